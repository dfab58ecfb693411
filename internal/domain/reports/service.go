package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/pkg/logger"
)

// Service provides report generation operations.
type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

// NewService creates a new reports service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetStockSummary returns per-item stock with the low-stock flag.
func (s *Service) GetStockSummary(ctx context.Context, filter StockSummaryFilter) (*StockSummary, error) {
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)

	var out StockSummary
	err := s.fetch(ctx, "stock_summary", filter, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.StockSummary(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("get stock summary: %w", err)
		}
		return buildStockSummary(rows, filter.LowStockOnly, s.now()), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func buildStockSummary(rows []StockSummaryRow, lowOnly bool, now time.Time) StockSummary {
	out := StockSummary{
		GeneratedAt: now,
		Rows:        make([]StockSummaryRow, 0, len(rows)),
		TotalValue:  types.Zero(),
	}
	for _, r := range rows {
		r.LowStock = r.MinStock > 0 && r.Quantity <= r.MinStock
		if lowOnly && !r.LowStock {
			continue
		}
		if r.LowStock {
			out.LowStockItems++
		}
		out.TotalQuantity += r.Quantity
		out.TotalValue = out.TotalValue.Add(r.InventoryValue)
		out.Rows = append(out.Rows, r)
	}
	return out
}

// GetReceivables returns outstanding invoices classified at filter.AsOf.
func (s *Service) GetReceivables(ctx context.Context, filter ReceivablesFilter) (*Receivables, error) {
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)
	if filter.AsOf == nil {
		now := s.now()
		filter.AsOf = &now
	}
	asOf := filter.AsOf.UTC().Truncate(24 * time.Hour)
	filter.AsOf = &asOf

	var out Receivables
	err := s.fetch(ctx, "receivables", filter, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.OutstandingInvoices(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("get receivables: %w", err)
		}
		return buildReceivables(rows, asOf, filter.OverdueOnly), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func buildReceivables(rows []ReceivableRow, asOf time.Time, overdueOnly bool) Receivables {
	out := Receivables{
		AsOf:             asOf,
		Rows:             make([]ReceivableRow, 0, len(rows)),
		TotalOutstanding: types.Zero(),
		TotalOverdue:     types.Zero(),
	}
	for _, r := range rows {
		inv := invoice.Invoice{Status: r.StoredStatus, DueDate: r.DueDate}
		r.Status = inv.EffectiveStatus(asOf)
		if r.Status == invoice.StatusOverdue {
			r.DaysOverdue = int(asOf.Sub(r.DueDate).Hours() / 24)
			out.TotalOverdue = out.TotalOverdue.Add(r.RemainingAmount)
		} else if overdueOnly {
			continue
		}
		out.TotalOutstanding = out.TotalOutstanding.Add(r.RemainingAmount)
		out.Rows = append(out.Rows, r)
	}
	return out
}

func (s *Service) fetch(ctx context.Context, report string, params any, dest any, loader func(context.Context) (any, error)) error {
	if s.cache != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		key, err := s.cache.BuildKey(ctx, "reports", report, string(raw))
		if err == nil {
			return s.cache.FetchJSON(ctx, key, dest, loader)
		}
		logger.Warn(ctx, "report cache unavailable", "report", report, "error", err)
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
