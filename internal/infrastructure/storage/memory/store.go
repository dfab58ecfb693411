// Package memory provides an in-process storage backend implementing every
// repository and the unit of work. Transactions are serialized by one lock
// and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"partsflow/internal/core/id"
	"partsflow/internal/core/tx"
	"partsflow/internal/domain"
	"partsflow/internal/domain/catalogs/batch"
	"partsflow/internal/domain/catalogs/customer"
	"partsflow/internal/domain/catalogs/item"
	"partsflow/internal/domain/catalogs/location"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/domain/documents/delivery_order"
	"partsflow/internal/domain/documents/goods_receipt"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
	"partsflow/internal/domain/documents/sales_order"
	"partsflow/internal/domain/documents/sales_quotation"
	"partsflow/internal/domain/documents/sales_return"
	"partsflow/internal/domain/registers/stock"
)

type reservationKey struct {
	orderID  id.ID
	lineID   id.ID
	recordID int64
}

type state struct {
	items     map[id.ID]item.Item
	customers map[id.ID]customer.Customer
	locations map[id.ID]location.Location
	batches   map[id.ID]batch.Batch
	taxRates  map[id.ID]taxrate.TaxRate

	records      map[int64]stock.Record
	reservations map[reservationKey]stock.Reservation
	nextRecordID int64

	quotations     map[id.ID]sales_quotation.SalesQuotation
	salesOrders    map[id.ID]sales_order.SalesOrder
	deliveryOrders map[id.ID]delivery_order.DeliveryOrder
	invoices       map[id.ID]invoice.Invoice
	payments       map[id.ID]payment.Payment
	returns        map[id.ID]sales_return.SalesReturn
	receipts       map[id.ID]goods_receipt.GoodsReceipt

	events []domain.Event
}

func newState() *state {
	return &state{
		items:          make(map[id.ID]item.Item),
		customers:      make(map[id.ID]customer.Customer),
		locations:      make(map[id.ID]location.Location),
		batches:        make(map[id.ID]batch.Batch),
		taxRates:       make(map[id.ID]taxrate.TaxRate),
		records:        make(map[int64]stock.Record),
		reservations:   make(map[reservationKey]stock.Reservation),
		quotations:     make(map[id.ID]sales_quotation.SalesQuotation),
		salesOrders:    make(map[id.ID]sales_order.SalesOrder),
		deliveryOrders: make(map[id.ID]delivery_order.DeliveryOrder),
		invoices:       make(map[id.ID]invoice.Invoice),
		payments:       make(map[id.ID]payment.Payment),
		returns:        make(map[id.ID]sales_return.SalesReturn),
		receipts:       make(map[id.ID]goods_receipt.GoodsReceipt),
	}
}

// snapshot copies every table. Stored values never share mutable memory
// with callers (lines are copied on the way in and out), so a shallow map
// copy is a complete snapshot.
func (s *state) snapshot() *state {
	return &state{
		items:          maps.Clone(s.items),
		customers:      maps.Clone(s.customers),
		locations:      maps.Clone(s.locations),
		batches:        maps.Clone(s.batches),
		taxRates:       maps.Clone(s.taxRates),
		records:        maps.Clone(s.records),
		reservations:   maps.Clone(s.reservations),
		nextRecordID:   s.nextRecordID,
		quotations:     maps.Clone(s.quotations),
		salesOrders:    maps.Clone(s.salesOrders),
		deliveryOrders: maps.Clone(s.deliveryOrders),
		invoices:       maps.Clone(s.invoices),
		payments:       maps.Clone(s.payments),
		returns:        maps.Clone(s.returns),
		receipts:       maps.Clone(s.receipts),
		events:         slices.Clone(s.events),
	}
}

// Store holds all data of the memory backend.
type Store struct {
	mu   sync.Mutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do runs fn against the live state, taking the store lock unless ctx
// already belongs to a transaction of this store.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// TxManager implements tx.Manager for the memory store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager over store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction implements tx.Manager. Nested calls join the outer
// transaction; on error or panic the state is restored.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.data.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.data = saved
			panic(p)
		}
		if err != nil {
			s.data = saved
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)
