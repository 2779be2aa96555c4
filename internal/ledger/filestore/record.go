package filestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

// On-disk shapes. Field names match the files the service has always written.

type transactionRecord struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID string          `json:"transaction_id"`
	MinecraftNick string          `json:"minecraft_nick"`
	ItemType      string          `json:"item_type"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PayerEmail    string          `json:"payer_email"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

type voucherRecord struct {
	Code       string     `json:"code"`
	ItemType   string     `json:"item_type"`
	Quantity   int        `json:"quantity"`
	CreatedAt  time.Time  `json:"created_at"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedBy *string    `json:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemed_at"`
}

func (r transactionRecord) toDomain() *ledger.Transaction {
	return &ledger.Transaction{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		MinecraftNick: r.MinecraftNick,
		ItemType:      ledger.ItemType(r.ItemType),
		Quantity:      r.Quantity,
		Amount:        r.Amount,
		PayerEmail:    r.PayerEmail,
		Status:        ledger.Status(r.Status),
		Timestamp:     r.Timestamp,
	}
}

func (r voucherRecord) toDomain() *ledger.Voucher {
	v := &ledger.Voucher{
		Code:      r.Code,
		ItemType:  ledger.ItemType(r.ItemType),
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
		Redeemed:  r.Redeemed,
	}

	// Copies keep callers from mutating the loaded collection.
	if r.RedeemedBy != nil {
		v.RedeemedBy = new(*r.RedeemedBy)
	}

	if r.RedeemedAt != nil {
		v.RedeemedAt = new(*r.RedeemedAt)
	}

	return v
}
