package fulfillment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
	"github.com/MrJamesThe3rd/customcraft/internal/voucher"
)

var (
	// ErrFulfillmentInProgress means a transaction with the same id was recorded
	// but never reached a terminal status. It is not dispatched again.
	ErrFulfillmentInProgress = errors.New("fulfillment already in progress")

	ErrMissingTransactionID = fmt.Errorf("%w: transaction id is required", reward.ErrValidation)
)

// State is the position of one request in the fulfillment lifecycle.
type State string

const (
	StateReceived       State = "received"
	StateRecorded       State = "recorded"
	StateDispatching    State = "dispatching"
	StateFulfilled      State = "fulfilled"
	StateDispatchFailed State = "dispatch_failed"
)

// PaymentRequest is a confirmed payment as delivered by the webhook.
type PaymentRequest struct {
	TransactionID string
	MinecraftNick string
	ItemType      ledger.ItemType
	Quantity      int
	Amount        decimal.Decimal
	PayerEmail    string
}

func (r PaymentRequest) draft() ledger.TransactionDraft {
	return ledger.TransactionDraft{
		TransactionID: r.TransactionID,
		MinecraftNick: r.MinecraftNick,
		ItemType:      r.ItemType,
		Quantity:      r.Quantity,
		Amount:        r.Amount,
		PayerEmail:    r.PayerEmail,
	}
}

type PaymentOutcome struct {
	Transaction *ledger.Transaction
	State       State
	// Replayed is set when the transaction id was already handled and nothing
	// was dispatched this time.
	Replayed bool
	Dispatch reward.Outcome
	Label    string
}

type RedemptionOutcome struct {
	Status   voucher.Status
	Code     string
	Nick     string
	Voucher  *ledger.Voucher
	State    State
	Dispatch reward.Outcome
	Label    string
}

// Fulfilled reports whether the reward was delivered.
func (o *RedemptionOutcome) Fulfilled() bool {
	return o.State == StateFulfilled
}
