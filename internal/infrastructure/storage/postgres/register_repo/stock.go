// Package register_repo provides the PostgreSQL implementation of the stock ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/id"
	"partsflow/internal/domain/registers/stock"
	"partsflow/internal/infrastructure/storage/postgres"
)

const (
	stockRecordsTable      = "reg_stock_records"
	stockReservationsTable = "reg_stock_reservations"
)

var recordCols = []string{
	"s.id", "s.item_id", "s.location_id", "s.batch_id",
	"s.quantity", "s.reserved_qty", "s.available_qty", "s.updated_at",
}

var candidateCols = append(append([]string{}, recordCols...),
	"b.number AS batch_number", "b.purchase_date", "b.purchase_price AS unit_cost",
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: postgres.Builder(),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *StockRepo) requireTx(ctx context.Context, op string) error {
	if !r.txm.InTransaction(ctx) {
		return apperror.NewInternal(fmt.Errorf("%s requires transaction context", op))
	}
	return nil
}

// candidates selects stock records joined with their batches in FIFO order.
func (r *StockRepo) candidates() squirrel.SelectBuilder {
	return r.builder.
		Select(candidateCols...).
		From(stockRecordsTable + " s").
		Join("cat_batches b ON b.id = s.batch_id").
		OrderBy("b.purchase_date", "s.id")
}

// LockCandidates implements stock.Repository.
func (r *StockRepo) LockCandidates(ctx context.Context, itemID id.ID) ([]stock.Candidate, error) {
	if err := r.requireTx(ctx, "LockCandidates"); err != nil {
		return nil, err
	}

	sql, args, err := r.lockCandidatesQuery(itemID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stock.Candidate
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("lock candidates: %w", err)
	}
	return out, nil
}

// lockCandidatesQuery selects the item's records with free units in FIFO
// order and row-locks them.
func (r *StockRepo) lockCandidatesQuery(itemID id.ID) squirrel.SelectBuilder {
	return r.candidates().
		Where(squirrel.Eq{"s.item_id": itemID}).
		Where(squirrel.Gt{"s.available_qty": 0}).
		Suffix("FOR UPDATE OF s")
}

// holdingRow flattens a reservation joined with its record and batch.
type holdingRow struct {
	stock.Candidate

	ResOrderID  id.ID `db:"res_order_id"`
	ResLineID   id.ID `db:"res_line_id"`
	ResQuantity int64 `db:"res_quantity"`
}

// LockHoldings implements stock.Repository.
func (r *StockRepo) LockHoldings(ctx context.Context, orderID id.ID, lineID *id.ID) ([]stock.Holding, error) {
	if err := r.requireTx(ctx, "LockHoldings"); err != nil {
		return nil, err
	}

	q := r.candidates().
		Columns("sr.order_id AS res_order_id", "sr.line_id AS res_line_id", "sr.quantity AS res_quantity").
		Join(stockReservationsTable + " sr ON sr.record_id = s.id").
		Where(squirrel.Eq{"sr.order_id": orderID}).
		OrderBy("sr.line_id").
		Suffix("FOR UPDATE OF s, sr")
	if lineID != nil {
		q = q.Where(squirrel.Eq{"sr.line_id": *lineID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []holdingRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock holdings: %w", err)
	}

	out := make([]stock.Holding, len(rows))
	for i, row := range rows {
		out[i] = stock.Holding{
			Candidate: row.Candidate,
			Reservation: stock.Reservation{
				OrderID:  row.ResOrderID,
				LineID:   row.ResLineID,
				RecordID: row.ID,
				ItemID:   row.ItemID,
				Quantity: row.ResQuantity,
			},
		}
	}
	return out, nil
}

// LockRecord implements stock.Repository.
func (r *StockRepo) LockRecord(ctx context.Context, key stock.Key) (*stock.Record, error) {
	if err := r.requireTx(ctx, "LockRecord"); err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select(recordCols...).
		From(stockRecordsTable + " s").
		Where(squirrel.Eq{
			"s.item_id":     key.ItemID,
			"s.location_id": key.LocationID,
			"s.batch_id":    key.BatchID,
		}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec stock.Record
	if err := pgxscan.Get(ctx, r.querier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock record: %w", err)
	}
	return &rec, nil
}

// InsertRecord implements stock.Repository.
func (r *StockRepo) InsertRecord(ctx context.Context, rec *stock.Record) error {
	rec.UpdatedAt = time.Now().UTC()

	sql, args, err := r.builder.
		Insert(stockRecordsTable).
		Columns("item_id", "location_id", "batch_id", "quantity", "reserved_qty", "available_qty", "updated_at").
		Values(rec.ItemID, rec.LocationID, rec.BatchID, rec.Quantity, rec.ReservedQty, rec.AvailableQty, rec.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&rec.ID); err != nil {
		return postgres.MapError(err, "stock record", "insert")
	}
	return nil
}

// UpdateRecord implements stock.Repository.
func (r *StockRepo) UpdateRecord(ctx context.Context, rec *stock.Record) error {
	rec.UpdatedAt = time.Now().UTC()

	sql, args, err := r.builder.
		Update(stockRecordsTable).
		Set("quantity", rec.Quantity).
		Set("reserved_qty", rec.ReservedQty).
		Set("available_qty", rec.AvailableQty).
		Set("updated_at", rec.UpdatedAt).
		Where(squirrel.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "stock record", "update")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock record", rec.ID)
	}
	return nil
}

// SaveReservation implements stock.Repository.
func (r *StockRepo) SaveReservation(ctx context.Context, res stock.Reservation) error {
	if res.Quantity < 0 {
		return apperror.NewInternal(fmt.Errorf("negative reservation %d on record %d", res.Quantity, res.RecordID))
	}

	var (
		sql  string
		args []any
		err  error
	)
	if res.Quantity == 0 {
		sql, args, err = r.builder.
			Delete(stockReservationsTable).
			Where(squirrel.Eq{"order_id": res.OrderID, "line_id": res.LineID, "record_id": res.RecordID}).
			ToSql()
	} else {
		sql, args, err = r.builder.
			Insert(stockReservationsTable).
			Columns("order_id", "line_id", "record_id", "item_id", "quantity").
			Values(res.OrderID, res.LineID, res.RecordID, res.ItemID, res.Quantity).
			Suffix("ON CONFLICT (order_id, line_id, record_id) DO UPDATE SET quantity = EXCLUDED.quantity").
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("build reservation write: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "stock reservation", "save")
	}
	return nil
}

// GetAvailability implements stock.Repository.
func (r *StockRepo) GetAvailability(ctx context.Context, itemID id.ID) (stock.Availability, error) {
	out := stock.Availability{ItemID: itemID}

	sql, args, err := r.builder.
		Select(
			"COALESCE(SUM(quantity), 0)",
			"COALESCE(SUM(reserved_qty), 0)",
			"COALESCE(SUM(available_qty), 0)",
		).
		From(stockRecordsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		ToSql()
	if err != nil {
		return out, fmt.Errorf("build query: %w", err)
	}

	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&out.Quantity, &out.ReservedQty, &out.AvailableQty); err != nil {
		return out, fmt.Errorf("get availability: %w", err)
	}
	return out, nil
}

// ListRecords implements stock.Repository.
func (r *StockRepo) ListRecords(ctx context.Context, filter stock.RecordFilter) ([]stock.Record, error) {
	q := r.builder.
		Select(recordCols...).
		From(stockRecordsTable + " s").
		OrderBy("s.id")

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"s.item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"s.location_id": *filter.LocationID})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"s.batch_id": *filter.BatchID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"s.quantity": 0})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stock.Record
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// ListReservations implements stock.Repository.
func (r *StockRepo) ListReservations(ctx context.Context, orderID id.ID) ([]stock.Reservation, error) {
	sql, args, err := r.builder.
		Select("order_id", "line_id", "record_id", "item_id", "quantity").
		From(stockReservationsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_id", "record_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stock.Reservation
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}
