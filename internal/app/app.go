// Package app assembles the domain services over a storage backend.
package app

import (
	"partsflow/internal/core/numerator"
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
	"partsflow/internal/domain/reports"
	"partsflow/internal/infrastructure/storage/memory"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/internal/infrastructure/storage/postgres/catalog_repo"
	"partsflow/internal/infrastructure/storage/postgres/document_repo"
	"partsflow/internal/infrastructure/storage/postgres/register_repo"
	"partsflow/internal/infrastructure/storage/postgres/report_repo"
)

// Repositories is the storage side of the application.
type Repositories struct {
	Items     item.Repository
	Customers customer.Repository
	Locations location.Repository
	Batches   batch.Repository
	TaxRates  taxrate.Repository

	Stock stock.Repository

	Quotations     sales_quotation.Repository
	SalesOrders    sales_order.Repository
	DeliveryOrders delivery_order.Repository
	Invoices       invoice.Repository
	Payments       payment.Repository
	SalesReturns   sales_return.Repository
	GoodsReceipts  goods_receipt.Repository

	Reports reports.Repository
}

// Options carries the non-repository collaborators.
type Options struct {
	TxManager tx.Manager
	Numerator numerator.Generator
	Events    domain.EventPublisher

	// TaxRates overrides Repositories.TaxRates for default-rate lookups (e.g. a cache).
	TaxRates taxrate.DefaultRateProvider

	// ReportCache is optional.
	ReportCache reports.Cache

	// ReceivingLocation is the location code restocked returns go to by default.
	ReceivingLocation string
}

// Services holds every domain service.
type Services struct {
	Stock          *stock.Service
	Quotations     *sales_quotation.Service
	SalesOrders    *sales_order.Service
	DeliveryOrders *delivery_order.Service
	Invoices       *invoice.Service
	Payments       *payment.Service
	SalesReturns   *sales_return.Service
	GoodsReceipts  *goods_receipt.Service
	Reports        *reports.Service
}

// NewServices wires the domain services.
func NewServices(repos Repositories, opts Options) *Services {
	var rates taxrate.DefaultRateProvider = repos.TaxRates
	if opts.TaxRates != nil {
		rates = opts.TaxRates
	}

	ledger := stock.NewService(repos.Stock, repos.Items, repos.Batches, opts.TxManager)

	orders := sales_order.NewService(sales_order.Deps{
		Repo:      repos.SalesOrders,
		Ledger:    ledger,
		Picking:   repos.DeliveryOrders,
		Customers: repos.Customers,
		Items:     repos.Items,
		TaxRates:  rates,
		Numerator: opts.Numerator,
		Events:    opts.Events,
		TxManager: opts.TxManager,
	})

	return &Services{
		Stock:       ledger,
		SalesOrders: orders,
		Quotations: sales_quotation.NewService(sales_quotation.Deps{
			Repo:      repos.Quotations,
			Orders:    orders,
			Customers: repos.Customers,
			Items:     repos.Items,
			TaxRates:  rates,
			Numerator: opts.Numerator,
			Events:    opts.Events,
			TxManager: opts.TxManager,
		}),
		DeliveryOrders: delivery_order.NewService(
			repos.DeliveryOrders,
			repos.SalesOrders,
			ledger,
			opts.Numerator,
			opts.Events,
			opts.TxManager,
		),
		Invoices: invoice.NewService(invoice.Deps{
			Repo:       repos.Invoices,
			Orders:     repos.SalesOrders,
			Deliveries: repos.DeliveryOrders,
			Customers:  repos.Customers,
			TaxRates:   rates,
			Numerator:  opts.Numerator,
			Events:     opts.Events,
			TxManager:  opts.TxManager,
		}),
		Payments: payment.NewService(
			repos.Payments,
			repos.Invoices,
			opts.Numerator,
			opts.Events,
			opts.TxManager,
		),
		SalesReturns: sales_return.NewService(sales_return.Deps{
			Repo:              repos.SalesReturns,
			Orders:            repos.SalesOrders,
			Shipments:         repos.DeliveryOrders,
			Locations:         repos.Locations,
			Ledger:            ledger,
			Numerator:         opts.Numerator,
			Events:            opts.Events,
			TxManager:         opts.TxManager,
			ReceivingLocation: opts.ReceivingLocation,
		}),
		GoodsReceipts: goods_receipt.NewService(goods_receipt.Deps{
			Repo:      repos.GoodsReceipts,
			Batches:   repos.Batches,
			Items:     repos.Items,
			Locations: repos.Locations,
			Ledger:    ledger,
			Numerator: opts.Numerator,
			Events:    opts.Events,
			TxManager: opts.TxManager,
		}),
		Reports: reports.NewService(repos.Reports, opts.ReportCache),
	}
}

// MemoryRepositories exposes the memory store as Repositories.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Items:          store.Items(),
		Customers:      store.Customers(),
		Locations:      store.Locations(),
		Batches:        store.Batches(),
		TaxRates:       store.TaxRates(),
		Stock:          store.Stock(),
		Quotations:     store.SalesQuotations(),
		SalesOrders:    store.SalesOrders(),
		DeliveryOrders: store.DeliveryOrders(),
		Invoices:       store.Invoices(),
		Payments:       store.Payments(),
		SalesReturns:   store.SalesReturns(),
		GoodsReceipts:  store.GoodsReceipts(),
		Reports:        store.Reports(),
	}
}

// PostgresRepositories builds Repositories over PostgreSQL.
func PostgresRepositories(txm *postgres.TxManager) Repositories {
	return Repositories{
		Items:          catalog_repo.NewItemRepo(txm),
		Customers:      catalog_repo.NewCustomerRepo(txm),
		Locations:      catalog_repo.NewLocationRepo(txm),
		Batches:        catalog_repo.NewBatchRepo(txm),
		TaxRates:       catalog_repo.NewTaxRateRepo(txm),
		Stock:          register_repo.NewStockRepo(txm),
		Quotations:     document_repo.NewSalesQuotationRepo(txm),
		SalesOrders:    document_repo.NewSalesOrderRepo(txm),
		DeliveryOrders: document_repo.NewDeliveryOrderRepo(txm),
		Invoices:       document_repo.NewInvoiceRepo(txm),
		Payments:       document_repo.NewPaymentRepo(txm),
		SalesReturns:   document_repo.NewSalesReturnRepo(txm),
		GoodsReceipts:  document_repo.NewGoodsReceiptRepo(txm),
		Reports:        report_repo.NewReportRepo(txm),
	}
}
