package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

type transactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID string          `json:"transaction_id"`
	MinecraftNick string          `json:"minecraft_nick"`
	ItemType      ledger.ItemType `json:"item_type"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PayerEmail    string          `json:"payer_email,omitempty"`
	Status        ledger.Status   `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

func toResponse(tx *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		TransactionID: tx.TransactionID,
		MinecraftNick: tx.MinecraftNick,
		ItemType:      tx.ItemType,
		Quantity:      tx.Quantity,
		Amount:        tx.Amount,
		PayerEmail:    tx.PayerEmail,
		Status:        tx.Status,
		Timestamp:     tx.Timestamp,
	}
}

func toResponseList(txs []*ledger.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
