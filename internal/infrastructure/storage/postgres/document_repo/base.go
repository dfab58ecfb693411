// Package document_repo provides PostgreSQL implementations for document
// repositories. Headers and lines live in separate tables; lines are
// replaced as a whole on every write.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/infrastructure/storage/postgres"
)

// immutableCols are never rewritten by Update.
var immutableCols = []string{"id", "version", "created_at", "created_by", "updated_at"}

// BaseDocumentRepo provides common header operations for document entities.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
	document   func(T) *entity.Document
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
	document func(T) *entity.Document,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
		document:   document,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return postgres.Builder()
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts the document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	data := postgres.FilterColumns(postgres.StructToMap(doc), r.selectCols)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entityName, "insert")
	}
	return nil
}

// Update rewrites the header with optimistic locking and bumps doc's version.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	d := r.document(doc)
	data := postgres.FilterColumns(postgres.StructToMap(doc), r.selectCols, immutableCols...)
	now := time.Now().UTC()

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": d.ID}).
		Where(squirrel.Eq{"version": d.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entityName, "update")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, d.ID)
	}

	d.Touch()
	d.SetUpdatedAt(now)
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID.String())
}

// GetForUpdate retrieves a document header and locks its row.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": docID}).
		Suffix("FOR UPDATE")
	return r.FindOne(ctx, q, docID.String())
}

// FindOne executes a SELECT query and returns a single header.
func (r *BaseDocumentRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (T, error) {
	doc := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, ref)
		}
		return doc, fmt.Errorf("get %s: %w", r.entityName, err)
	}

	return doc, nil
}

// Find returns every header matching conds, oldest first.
func (r *BaseDocumentRepo[T]) Find(ctx context.Context, conds ...squirrel.Sqlizer) ([]T, error) {
	q := r.baseSelect()
	for _, c := range conds {
		q = q.Where(c)
	}

	sql, args, err := q.OrderBy("date", "created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("find %s: %w", r.entityName, err)
	}
	return out, nil
}

// List retrieves headers with search, conds, ordering and pagination.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter, conds ...squirrel.Sqlizer) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listQuery(filter, conds...)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}

	sql, args, err := q.OrderBy(orderBy, "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.entityName, err)
	}

	return result, nil
}

func (r *BaseDocumentRepo[T]) listQuery(filter domain.ListFilter, conds ...squirrel.Sqlizer) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	for _, c := range conds {
		q = q.Where(c)
	}
	return q
}

var orderAliases = map[string]string{
	"createdAt":  "created_at",
	"-createdAt": "-created_at",
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if alias, ok := orderAliases[orderBy]; ok {
		orderBy = alias
	}
	return postgres.ParseOrderBy(orderBy, []string{"number", "date", "created_at"}, "date DESC")
}

// dateRange builds conditions for an inclusive date range.
func dateRange(from, to *time.Time) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if from != nil {
		conds = append(conds, squirrel.GtOrEq{"date": *from})
	}
	if to != nil {
		conds = append(conds, squirrel.LtOrEq{"date": *to})
	}
	return conds
}

// eqIf adds column = *v when v is set.
func eqIf[V any](conds []squirrel.Sqlizer, column string, v *V) []squirrel.Sqlizer {
	if v == nil {
		return conds
	}
	return append(conds, squirrel.Eq{column: *v})
}

func isConstraint(err error, name string) bool {
	return postgres.ConstraintName(err) == name
}
