package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
	"partsflow/internal/domain"
)

func TestBaseCatalogRepo_ListQuery(t *testing.T) {
	repo := NewBaseCatalogRepo[any](nil, "cat_items", "item", []string{"id", "code", "name"}, func() any { return nil })

	t.Run("no search", func(t *testing.T) {
		q, err := repo.listQuery(domain.ListFilter{})
		require.NoError(t, err)

		sql, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, code, name FROM cat_items", sql)
		assert.Empty(t, args)
	})

	t.Run("search matches code or name", func(t *testing.T) {
		q, err := repo.listQuery(domain.ListFilter{Search: "brk"})
		require.NoError(t, err)

		sql, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, code, name FROM cat_items WHERE (name ILIKE $1 OR code ILIKE $2)", sql)
		assert.Equal(t, []any{"%brk%", "%brk%"}, args)
	})
}

func TestBaseCatalogRepo_ParseOrderBy(t *testing.T) {
	repo := NewBaseCatalogRepo[any](nil, "cat_items", "item", []string{"id", "code", "name"}, func() any { return nil })

	tests := []struct {
		name    string
		orderBy string
		want    string
	}{
		{"default", "", "code ASC"},
		{"list default is ignored for catalogs", "-date", "code ASC"},
		{"ascending", "name", "name ASC"},
		{"descending", "-code", "code DESC"},
		{"explicit plus", "+name", "name ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown column is rejected", func(t *testing.T) {
		_, err := repo.parseOrderBy("password; DROP TABLE")
		assert.True(t, apperror.IsValidation(err))
	})
}
