package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
)

// docRepo stores one document type. Values are copied on every read and
// write so callers never alias stored lines.
type docRepo[T any] struct {
	store    *Store
	name     string
	table    func(*state) map[id.ID]T
	document func(*T) *entity.Document
	clone    func(T) T
}

func (r *docRepo[T]) Create(ctx context.Context, doc *T) error {
	return r.store.do(ctx, func(st *state) error {
		d := r.document(doc)
		tbl := r.table(st)
		if _, exists := tbl[d.ID]; exists {
			return apperror.NewDuplicate(r.name, "id", d.ID.String())
		}
		for _, existing := range tbl {
			if d.Number != "" && r.document(&existing).Number == d.Number {
				return apperror.NewDuplicate(r.name, "number", d.Number)
			}
		}
		tbl[d.ID] = r.clone(*doc)
		return nil
	})
}

func (r *docRepo[T]) GetByID(ctx context.Context, docID id.ID) (*T, error) {
	var out *T
	err := r.store.do(ctx, func(st *state) error {
		v, ok := r.table(st)[docID]
		if !ok {
			return apperror.NewNotFound(r.name, docID)
		}
		c := r.clone(v)
		out = &c
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the transaction lock already serializes writers.
func (r *docRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (*T, error) {
	return r.GetByID(ctx, docID)
}

func (r *docRepo[T]) Update(ctx context.Context, doc *T) error {
	return r.store.do(ctx, func(st *state) error {
		d := r.document(doc)
		tbl := r.table(st)
		stored, ok := tbl[d.ID]
		if !ok {
			return apperror.NewNotFound(r.name, d.ID)
		}
		if r.document(&stored).Version != d.Version {
			return apperror.NewConcurrentModification(r.name, d.ID)
		}
		d.Touch()
		d.SetUpdatedAt(time.Now().UTC())
		tbl[d.ID] = r.clone(*doc)
		return nil
	})
}

// find returns copies of the documents matching match.
func (r *docRepo[T]) find(ctx context.Context, match func(*T) bool) ([]*T, error) {
	var out []*T
	err := r.store.do(ctx, func(st *state) error {
		for _, v := range r.table(st) {
			if match(&v) {
				c := r.clone(v)
				out = append(out, &c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *T) int {
		return compareDocuments(r.document(a), r.document(b), "date")
	})
	return out, err
}

// list filters by number search, date range and match, then sorts and pages.
func (r *docRepo[T]) list(ctx context.Context, filter domain.ListFilter, from, to *time.Time, match func(*T) bool) (domain.ListResult[*T], error) {
	filter = filter.Normalize()
	search := strings.ToLower(filter.Search)

	rows, err := r.find(ctx, func(v *T) bool {
		d := r.document(v)
		if search != "" && !strings.Contains(strings.ToLower(d.Number), search) {
			return false
		}
		if from != nil && d.Date.Before(*from) {
			return false
		}
		if to != nil && d.Date.After(*to) {
			return false
		}
		return match == nil || match(v)
	})
	if err != nil {
		return domain.ListResult[*T]{}, err
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "-date"
	}
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")
	slices.SortStableFunc(rows, func(a, b *T) int {
		c := compareDocuments(r.document(a), r.document(b), field)
		if desc {
			return -c
		}
		return c
	})
	return paginate(rows, filter), nil
}

func compareDocuments(a, b *entity.Document, field string) int {
	switch field {
	case "number":
		return cmp.Compare(a.Number, b.Number)
	case "createdAt", "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	}
}
