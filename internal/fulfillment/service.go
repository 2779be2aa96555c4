// Package fulfillment turns payments and voucher redemptions into delivered
// in-game rewards, keeping the ledger consistent with what was dispatched.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/metrics"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
	"github.com/MrJamesThe3rd/customcraft/internal/voucher"
)

// finalizeTries bounds retries of the local write that closes a fulfillment.
const finalizeTries = 3

//go:generate mockgen -source=service.go -destination=service_mock.go -package=fulfillment
type Ledger interface {
	AppendTransaction(ctx context.Context, draft ledger.TransactionDraft) (*ledger.Transaction, error)
	FindTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, transactionID string, status ledger.Status) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context) ([]*ledger.Transaction, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, commands []string) (reward.Outcome, error)
	Probe(ctx context.Context) (string, error)
}

type Service struct {
	ledger     Ledger
	vouchers   *voucher.Service
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.FulfillmentMetrics
	newBackOff func() backoff.BackOff

	payments singleflight.Group
	codes    *codeLocks

	consumedMu sync.Mutex
	consumed   map[string]struct{}
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.FulfillmentMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBackOff sets the policy used between finalizing retries. f is called
// once per retry sequence.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(s *Service) { s.newBackOff = f }
}

func NewService(l Ledger, vouchers *voucher.Service, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		ledger:     l,
		vouchers:   vouchers,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		newBackOff: defaultBackOff,
		codes:      newCodeLocks(),
		consumed:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond

	return b
}

// HandlePayment records the payment and grants its reward exactly once per
// transaction id. A dispatch failure returns the outcome together with the
// *reward.DispatchError; the transaction is left failed.
func (s *Service) HandlePayment(ctx context.Context, req PaymentRequest) (*PaymentOutcome, error) {
	if req.TransactionID == "" {
		s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeRejected)
		return nil, ErrMissingTransactionID
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	grant, err := reward.Resolve(req.ItemType, req.Quantity, req.MinecraftNick)
	if err != nil {
		s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeRejected)
		return nil, err
	}

	// Concurrent deliveries of one id share a single execution. Once recorded,
	// a payment runs to a terminal status even if its caller goes away.
	run := context.WithoutCancel(ctx)

	v, err, _ := s.payments.Do(req.TransactionID, func() (any, error) {
		return s.fulfillPayment(run, req, grant)
	})

	out, _ := v.(*PaymentOutcome)

	return out, err
}

func (s *Service) fulfillPayment(ctx context.Context, req PaymentRequest, grant *reward.Grant) (*PaymentOutcome, error) {
	log := s.logger.With("transaction_id", req.TransactionID)

	existing, err := s.ledger.FindTransaction(ctx, req.TransactionID)
	switch {
	case err == nil:
		return s.replay(log, existing)
	case !errors.Is(err, ledger.ErrNotFound):
		return nil, fmt.Errorf("looking up transaction: %w", err)
	}

	tx, err := s.ledger.AppendTransaction(ctx, req.draft())
	if errors.Is(err, ledger.ErrDuplicateTransaction) {
		// Recorded by another writer between the lookup and the append.
		if existing, ferr := s.ledger.FindTransaction(ctx, req.TransactionID); ferr == nil {
			return s.replay(log, existing)
		}
	}

	if err != nil {
		log.Error("recording transaction", "error", err)
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	out := &PaymentOutcome{
		Transaction: tx,
		State:       StateRecorded,
		Label:       reward.Label(grant.ItemType, grant.Quantity),
	}

	log.Info("payment recorded",
		"nick", grant.Nick,
		"reward", out.Label,
		"amount", req.Amount.StringFixed(2),
	)

	out.State = StateDispatching
	dispatched, dispatchErr := s.dispatch(ctx, grant.Commands)
	out.Dispatch = dispatched

	status := ledger.StatusCompleted
	if dispatchErr != nil {
		status = ledger.StatusFailed
	}

	final, err := backoff.Retry(ctx, func() (*ledger.Transaction, error) {
		t, err := s.ledger.UpdateTransactionStatus(ctx, req.TransactionID, status)
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrInvalidTransition) {
			return nil, backoff.Permanent(err)
		}

		return t, err
	}, s.retryOptions()...)
	if err != nil {
		// The transaction stays processing, which blocks any re-dispatch.
		log.Error("recording transaction status", "status", status, "dispatch_error", dispatchErr, "error", err)
		s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeFailed)

		return out, errors.Join(dispatchErr, fmt.Errorf("recording %s status: %w", status, err))
	}

	out.Transaction = final

	if dispatchErr != nil {
		out.State = StateDispatchFailed
		logDispatchFailure(log, dispatchErr)
		s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeFailed)

		return out, dispatchErr
	}

	out.State = StateFulfilled
	log.Info("payment fulfilled", "nick", grant.Nick, "reward", out.Label)
	s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeFulfilled)

	return out, nil
}

func (s *Service) replay(log *slog.Logger, tx *ledger.Transaction) (*PaymentOutcome, error) {
	if !tx.Status.Terminal() {
		log.Warn("transaction still processing, not dispatching again")
		return nil, fmt.Errorf("transaction %s: %w", tx.TransactionID, ErrFulfillmentInProgress)
	}

	state := StateFulfilled
	if tx.Status == ledger.StatusFailed {
		state = StateDispatchFailed
	}

	log.Info("payment already handled", "status", tx.Status)
	s.metrics.IncFulfillment(metrics.SourcePayment, metrics.OutcomeReplayed)

	return &PaymentOutcome{
		Transaction: tx,
		State:       state,
		Replayed:    true,
		Label:       reward.Label(tx.ItemType, tx.Quantity),
	}, nil
}

// HandleVoucherRedemption grants the voucher's reward to nick and marks the
// voucher redeemed only after every command was acknowledged. Unknown and used
// codes come back as a negative outcome, not an error.
func (s *Service) HandleVoucherRedemption(ctx context.Context, code, nick string) (*RedemptionOutcome, error) {
	unlock := s.codes.Lock(code)
	defer unlock()

	log := s.logger.With("voucher_code", code, "nick", nick)

	if s.isConsumed(code) {
		log.Warn("voucher already granted in this process")
		s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeRejected)

		return &RedemptionOutcome{Status: voucher.StatusAlreadyRedeemed, Code: code, Nick: nick, State: StateReceived}, nil
	}

	red, err := s.vouchers.Redeem(ctx, code, nick)
	if err != nil {
		log.Error("looking up voucher", "error", err)
		return nil, err
	}

	out := &RedemptionOutcome{
		Status:  red.Status,
		Code:    code,
		Nick:    nick,
		Voucher: red.Voucher,
		State:   StateReceived,
	}

	if rejected := red.Err(); rejected != nil {
		log.Info("voucher rejected", "status", red.Status, "reason", rejected)
		s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeRejected)

		return out, nil
	}

	grant, err := reward.Resolve(red.Voucher.ItemType, red.Voucher.Quantity, nick)
	if err != nil {
		s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeRejected)
		return nil, err
	}

	out.Label = reward.Label(grant.ItemType, grant.Quantity)

	run := context.WithoutCancel(ctx)

	out.State = StateDispatching
	dispatched, err := s.dispatch(run, grant.Commands)
	out.Dispatch = dispatched

	if err != nil {
		out.State = StateDispatchFailed
		logDispatchFailure(log, err)
		s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeFailed)

		return out, err
	}

	marked, err := backoff.Retry(run, func() (*ledger.Voucher, error) {
		v, err := s.vouchers.Complete(run, code, nick)
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrAlreadyRedeemed) {
			return nil, backoff.Permanent(err)
		}

		return v, err
	}, s.retryOptions()...)

	out.State = StateFulfilled

	if err != nil {
		s.consume(code)
		log.Error("reward granted but voucher not marked redeemed", "reward", out.Label, "error", err)
		s.metrics.IncUnmarked()
		s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeFulfilled)

		return out, fmt.Errorf("marking voucher redeemed: %w", err)
	}

	out.Voucher = marked
	log.Info("voucher redeemed", "reward", out.Label)
	s.metrics.IncFulfillment(metrics.SourceVoucher, metrics.OutcomeFulfilled)

	return out, nil
}

func (s *Service) IssueVoucher(ctx context.Context, itemType ledger.ItemType, quantity int, credential string) (*ledger.Voucher, error) {
	v, err := s.vouchers.Issue(ctx, itemType, quantity, credential)
	if err != nil {
		return nil, err
	}

	s.logger.Info("voucher issued", "voucher_code", v.Code, "reward", reward.Label(v.ItemType, v.Quantity))

	return v, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	return s.ledger.ListTransactions(ctx)
}

func (s *Service) ListVouchers(ctx context.Context) ([]*ledger.Voucher, error) {
	return s.vouchers.List(ctx)
}

// Probe checks the remote command channel and returns the server's reply.
func (s *Service) Probe(ctx context.Context) (string, error) {
	return s.dispatcher.Probe(ctx)
}

func (s *Service) dispatch(ctx context.Context, commands []string) (reward.Outcome, error) {
	start := time.Now()
	out, err := s.dispatcher.Dispatch(ctx, commands)
	s.metrics.ObserveDispatch(time.Since(start), err)

	return out, err
}

func (s *Service) retryOptions() []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(finalizeTries),
	}
}

func (s *Service) consume(code string) {
	s.consumedMu.Lock()
	defer s.consumedMu.Unlock()

	s.consumed[code] = struct{}{}
}

func (s *Service) isConsumed(code string) bool {
	s.consumedMu.Lock()
	defer s.consumedMu.Unlock()

	_, ok := s.consumed[code]

	return ok
}

func logDispatchFailure(log *slog.Logger, err error) {
	if de, ok := reward.AsDispatchError(err); ok {
		log.Error("dispatch failed",
			"command", de.Command,
			"index", de.Index,
			"succeeded", de.Succeeded,
			"error", de.Cause,
		)

		return
	}

	log.Error("dispatch failed", "error", err)
}
