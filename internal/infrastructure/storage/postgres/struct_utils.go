package postgres

import (
	"reflect"
	"sync"
)

// column is one "db"-tagged field, reachable through embedded structs by index.
type column struct {
	name  string
	index []int
}

// columnPlans caches the column layout per struct type.
var columnPlans sync.Map // reflect.Type -> []column

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnPlans.Load(t); ok {
		return cached.([]column)
	}

	var plan []column
	if t.Kind() == reflect.Struct {
		plan = collectColumns(t, nil)
	}
	columnPlans.Store(t, plan)
	return plan
}

// collectColumns walks t depth-first, so embedded bases (entity.Document,
// stock.Key) contribute their columns at the position they are embedded.
func collectColumns(t reflect.Type, prefix []int) []column {
	var out []column
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, collectColumns(f.Type, index)...)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			out = append(out, column{name: tag, index: index})
		}
	}
	return out
}

// ExtractDBColumns lists the "db" columns of T, embedded bases included.
// Repositories call it once at construction.
func ExtractDBColumns[T any]() []string {
	plan := columnsOf(reflect.TypeFor[T]())
	cols := make([]string, len(plan))
	for i, c := range plan {
		cols[i] = c.name
	}
	return cols
}

// StructToMap maps the "db" columns of v (a struct or pointer to one) to values.
func StructToMap(v any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}

	plan := columnsOf(rv.Type())
	out := make(map[string]any, len(plan))
	for _, c := range plan {
		out[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return out
}

// StructValues returns the values of v for cols, in order.
// Columns v does not have yield nil.
func StructValues(v any, cols []string) []any {
	m := StructToMap(v)
	out := make([]any, len(cols))
	for i, col := range cols {
		out[i] = m[col]
	}
	return out
}

// FilterColumns keeps the entries of data named in cols, skipping excluded ones.
func FilterColumns(data map[string]any, cols []string, exclude ...string) map[string]any {
	skip := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}
	out := make(map[string]any, len(cols))
	for _, col := range cols {
		if _, ok := skip[col]; ok {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}
