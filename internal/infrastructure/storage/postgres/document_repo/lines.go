package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/core/id"
	"partsflow/internal/infrastructure/storage/postgres"
)

// LineTable stores the table part of a document.
type LineTable[L any] struct {
	txm      *postgres.TxManager
	table    string
	fk       string
	cols     []string
	owner    func(*L) id.ID
	setOwner func(*L, id.ID)
}

// NewLineTable creates a line table keyed by the fk column.
func NewLineTable[L any](txm *postgres.TxManager, table, fk string, owner func(*L) id.ID, setOwner func(*L, id.ID)) *LineTable[L] {
	return &LineTable[L]{
		txm:      txm,
		table:    table,
		fk:       fk,
		cols:     postgres.ExtractDBColumns[L](),
		owner:    owner,
		setOwner: setOwner,
	}
}

// Load returns the lines of one document ordered by line number.
func (t *LineTable[L]) Load(ctx context.Context, docID id.ID) ([]L, error) {
	byDoc, err := t.LoadMany(ctx, []id.ID{docID})
	if err != nil {
		return nil, err
	}
	return byDoc[docID], nil
}

// LoadMany returns the lines of several documents grouped by document id.
func (t *LineTable[L]) LoadMany(ctx context.Context, docIDs []id.ID) (map[id.ID][]L, error) {
	out := make(map[id.ID][]L, len(docIDs))
	if len(docIDs) == 0 {
		return out, nil
	}

	sql, args, err := postgres.Builder().
		Select(t.cols...).
		From(t.table).
		Where(squirrel.Eq{t.fk: docIDs}).
		OrderBy(t.fk, "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, t.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load %s: %w", t.table, err)
	}
	for i := range lines {
		owner := t.owner(&lines[i])
		out[owner] = append(out[owner], lines[i])
	}
	return out, nil
}

// Insert writes lines for docID. Inside a transaction it uses COPY.
func (t *LineTable[L]) Insert(ctx context.Context, docID id.ID, lines []L) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		t.setOwner(&lines[i], docID)
	}

	if t.txm.InTransaction(ctx) {
		if _, err := postgres.CopyStructs(ctx, postgres.NewBatchInserter(t.txm), t.table, t.cols, lines); err != nil {
			return postgres.MapError(err, t.table, "copy")
		}
		return nil
	}

	q := postgres.Builder().Insert(t.table).Columns(t.cols...)
	for i := range lines {
		q = q.Values(postgres.StructValues(&lines[i], t.cols)...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, t.table, "insert")
	}
	return nil
}

// Replace deletes the stored lines of docID and writes lines.
func (t *LineTable[L]) Replace(ctx context.Context, docID id.ID, lines []L) error {
	if _, err := t.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM "+t.table+" WHERE "+t.fk+" = $1", docID); err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	return t.Insert(ctx, docID, lines)
}

// linedRepo combines a header table with its line table.
type linedRepo[T any, L any] struct {
	*BaseDocumentRepo[T]
	lines    *LineTable[L]
	getLines func(T) []L
	setLines func(T, []L)
}

// Create inserts header and lines.
func (r *linedRepo[T, L]) Create(ctx context.Context, doc T) error {
	if err := r.BaseDocumentRepo.Create(ctx, doc); err != nil {
		return err
	}
	return r.lines.Insert(ctx, r.document(doc).ID, r.getLines(doc))
}

// GetByID loads header and lines.
func (r *linedRepo[T, L]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	doc, err := r.BaseDocumentRepo.GetByID(ctx, docID)
	if err != nil {
		return doc, err
	}
	return doc, r.attach(ctx, doc)
}

// GetForUpdate locks the header and loads lines.
func (r *linedRepo[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return doc, err
	}
	return doc, r.attach(ctx, doc)
}

// Update rewrites header and lines.
func (r *linedRepo[T, L]) Update(ctx context.Context, doc T) error {
	if err := r.BaseDocumentRepo.Update(ctx, doc); err != nil {
		return err
	}
	return r.lines.Replace(ctx, r.document(doc).ID, r.getLines(doc))
}

// findWithLines returns matching documents with their lines.
func (r *linedRepo[T, L]) findWithLines(ctx context.Context, conds ...squirrel.Sqlizer) ([]T, error) {
	docs, err := r.Find(ctx, conds...)
	if err != nil {
		return nil, err
	}

	ids := make([]id.ID, len(docs))
	for i, d := range docs {
		ids[i] = r.document(d).ID
	}
	byDoc, err := r.lines.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		r.setLines(d, byDoc[r.document(d).ID])
	}
	return docs, nil
}

func (r *linedRepo[T, L]) attach(ctx context.Context, doc T) error {
	lines, err := r.lines.Load(ctx, r.document(doc).ID)
	if err != nil {
		return err
	}
	r.setLines(doc, lines)
	return nil
}
