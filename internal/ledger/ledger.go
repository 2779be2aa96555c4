package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType is the reward kind a payment or voucher entitles its owner to.
type ItemType string

const (
	ItemVIP          ItemType = "VIP"
	ItemVIPPlus      ItemType = "VIP+"
	ItemKeyRare      ItemType = "Klucz Rzadki"
	ItemKeyEpic      ItemType = "Klucz Epicki"
	ItemKeyLegendary ItemType = "Klucz Legendarny"
	ItemKeyMythic    ItemType = "Klucz Mityczny"
)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a transaction may move from s to next.
func (s Status) CanTransition(next Status) bool {
	return s == StatusProcessing && next.Terminal()
}

// Transaction is one attempted fulfillment triggered by a payment.
type Transaction struct {
	ID            uuid.UUID
	TransactionID string
	MinecraftNick string
	ItemType      ItemType
	Quantity      int
	Amount        decimal.Decimal
	PayerEmail    string
	Status        Status
	Timestamp     time.Time
}

// TransactionDraft carries the webhook fields needed to record a new transaction.
type TransactionDraft struct {
	TransactionID string
	MinecraftNick string
	ItemType      ItemType
	Quantity      int
	Amount        decimal.Decimal
	PayerEmail    string
}

// Voucher is a pre-issued, single-use reward code.
type Voucher struct {
	Code       string
	ItemType   ItemType
	Quantity   int
	CreatedAt  time.Time
	Redeemed   bool
	RedeemedBy *string
	RedeemedAt *time.Time
}

// Store owns the persisted transaction and voucher collections. Implementations
// serialize writes per collection; the two collections never share a lock.
type Store interface {
	AppendTransaction(ctx context.Context, draft TransactionDraft) (*Transaction, error)
	FindTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	UpdateTransactionStatus(ctx context.Context, transactionID string, status Status) (*Transaction, error)
	ListTransactions(ctx context.Context) ([]*Transaction, error)

	CreateVoucher(ctx context.Context, itemType ItemType, quantity int) (*Voucher, error)
	FindVoucherByCode(ctx context.Context, code string) (*Voucher, error)
	MarkVoucherRedeemed(ctx context.Context, code, nick string) (*Voucher, error)
	ListVouchers(ctx context.Context) ([]*Voucher, error)
}
