package document_repo

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/domain/documents/sales_order"
)

func newTestRepo() *BaseDocumentRepo[*sales_order.SalesOrder] {
	return NewBaseDocumentRepo(
		nil,
		"doc_sales_orders",
		"sales order",
		[]string{"id", "number", "date", "status"},
		func() *sales_order.SalesOrder { return &sales_order.SalesOrder{} },
		func(d *sales_order.SalesOrder) *entity.Document { return &d.Document },
	)
}

func TestBaseDocumentRepo_ListQuery(t *testing.T) {
	repo := newTestRepo()
	customerID := id.New()
	status := sales_order.StatusConfirmed
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	conds := dateRange(&from, nil)
	conds = eqIf(conds, "customer_id", &customerID)
	conds = eqIf(conds, "status", &status)
	conds = eqIf[id.ID](conds, "quotation_id", nil)

	sql, args, err := repo.listQuery(domain.ListFilter{Search: "SO-2025"}, conds...).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, number, date, status FROM doc_sales_orders WHERE number ILIKE $1 AND date >= $2 AND customer_id = $3 AND status = $4",
		sql)
	require.Len(t, args, 4)
	assert.Equal(t, "%SO-2025%", args[0])
	assert.Equal(t, from, args[1])
	assert.Equal(t, customerID.String(), fmt.Sprint(args[2]))
	assert.Equal(t, status, args[3])
}

func TestBaseDocumentRepo_ParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		in   string
		want string
	}{
		{"", "date DESC"},
		{"-date", "date DESC"},
		{"number", "number ASC"},
		{"createdAt", "created_at ASC"},
		{"-createdAt", "created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := repo.parseOrderBy("grand_total; --")
	assert.True(t, apperror.IsValidation(err))
}

func TestDateRange_Inclusive(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	conds := dateRange(&from, &to)
	require.Len(t, conds, 2)

	sql, args, err := conds[1].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "date <= ?", sql)
	assert.Equal(t, []any{to}, args)
}
