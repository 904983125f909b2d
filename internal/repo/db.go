package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX abstracts a pgx pool or transaction so the same queries run in both.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles all hand-written SQL against a DBTX.
type Queries struct {
	db DBTX
}

// New constructs a Queries instance over the provided pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Category is a product grouping shown in the catalog.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Product is a sellable catalog entry. Price keeps three decimal places so
// per-unit prices like 3.335 survive until totals are rounded.
type Product struct {
	ID            uuid.UUID
	CategoryID    uuid.NullUUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int32
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sale is the persisted record of a completed checkout. Amounts are stored
// exactly as computed at commit time and never re-derived.
type Sale struct {
	ID             uuid.UUID
	InvoiceNumber  string
	CashierID      uuid.UUID
	CustomerName   *string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	Notes          *string
	Status         string
	CreatedAt      time.Time
}

// SaleItem is one line of a sale, denormalised at commit time.
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// User is a cashier or admin account.
type User struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// AuditLog is one append-only activity record.
type AuditLog struct {
	ID         uuid.UUID
	ActorID    uuid.NullUUID
	Action     string
	EntityType string
	EntityID   *string
	Metadata   []byte
	IP         *string
	CreatedAt  time.Time
}

// DomainEvent is a persisted business event available for fan-out.
type DomainEvent struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}

// scanDecimal parses a numeric column selected with a ::text cast.
func scanDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
