// Package filestore keeps the ledger as two human-readable JSON files. Every
// mutation reloads the whole collection, changes it and rewrites it atomically
// while holding that collection's lock.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/customcraft/internal/encoding"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

const (
	TransactionsFile = "transactions.json"
	VouchersFile     = "vouchers.json"
)

type Store struct {
	transactionsPath string
	vouchersPath     string

	// One lock per collection so payments never wait on voucher writes.
	txMu      sync.Mutex
	voucherMu sync.Mutex

	now     func() time.Time
	newCode ledger.CodeGenerator
}

var _ ledger.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCodeGenerator overrides how candidate voucher codes are drawn.
func WithCodeGenerator(gen ledger.CodeGenerator) Option {
	return func(s *Store) { s.newCode = gen }
}

// New opens (creating if needed) a ledger directory.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	s := &Store{
		transactionsPath: filepath.Join(dir, TransactionsFile),
		vouchersPath:     filepath.Join(dir, VouchersFile),
		now:              time.Now,
		newCode:          ledger.NewVoucherCode,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Store) AppendTransaction(ctx context.Context, draft ledger.TransactionDraft) (*ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var records []transactionRecord
	if err := load(s.transactionsPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading transactions", Err: err}
	}

	for _, r := range records {
		if r.TransactionID == draft.TransactionID {
			return nil, fmt.Errorf("appending %s: %w", draft.TransactionID, ledger.ErrDuplicateTransaction)
		}
	}

	rec := transactionRecord{
		ID:            uuid.New(),
		TransactionID: draft.TransactionID,
		MinecraftNick: draft.MinecraftNick,
		ItemType:      string(draft.ItemType),
		Quantity:      draft.Quantity,
		Amount:        draft.Amount,
		PayerEmail:    draft.PayerEmail,
		Status:        string(ledger.StatusProcessing),
		Timestamp:     s.now().UTC(),
	}

	records = append(records, rec)
	if err := persist(s.transactionsPath, records); err != nil {
		return nil, &ledger.StorageError{Op: "persisting transactions", Err: err}
	}

	return rec.toDomain(), nil
}

func (s *Store) FindTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var records []transactionRecord
	if err := load(s.transactionsPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading transactions", Err: err}
	}

	for _, r := range records {
		if r.TransactionID == transactionID {
			return r.toDomain(), nil
		}
	}

	return nil, ledger.ErrNotFound
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, transactionID string, status ledger.Status) (*ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var records []transactionRecord
	if err := load(s.transactionsPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading transactions", Err: err}
	}

	idx := -1

	for i, r := range records {
		if r.TransactionID == transactionID {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, ledger.ErrNotFound
	}

	current := ledger.Status(records[idx].Status)
	if !current.CanTransition(status) {
		return nil, fmt.Errorf("%s -> %s: %w", current, status, ledger.ErrInvalidTransition)
	}

	records[idx].Status = string(status)
	if err := persist(s.transactionsPath, records); err != nil {
		return nil, &ledger.StorageError{Op: "persisting transactions", Err: err}
	}

	return records[idx].toDomain(), nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var records []transactionRecord
	if err := load(s.transactionsPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading transactions", Err: err}
	}

	txs := make([]*ledger.Transaction, len(records))
	for i, r := range records {
		txs[i] = r.toDomain()
	}

	return txs, nil
}

func (s *Store) CreateVoucher(ctx context.Context, itemType ledger.ItemType, quantity int) (*ledger.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.voucherMu.Lock()
	defer s.voucherMu.Unlock()

	var records []voucherRecord
	if err := load(s.vouchersPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading vouchers", Err: err}
	}

	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		taken[r.Code] = struct{}{}
	}

	code, err := ledger.UniqueCode(s.newCode, func(c string) bool {
		_, ok := taken[c]
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("creating voucher: %w", err)
	}

	rec := voucherRecord{
		Code:      code,
		ItemType:  string(itemType),
		Quantity:  quantity,
		CreatedAt: s.now().UTC(),
	}

	records = append(records, rec)
	if err := persist(s.vouchersPath, records); err != nil {
		return nil, &ledger.StorageError{Op: "persisting vouchers", Err: err}
	}

	return rec.toDomain(), nil
}

func (s *Store) FindVoucherByCode(ctx context.Context, code string) (*ledger.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.voucherMu.Lock()
	defer s.voucherMu.Unlock()

	var records []voucherRecord
	if err := load(s.vouchersPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading vouchers", Err: err}
	}

	for _, r := range records {
		if r.Code == code {
			return r.toDomain(), nil
		}
	}

	return nil, ledger.ErrNotFound
}

func (s *Store) MarkVoucherRedeemed(ctx context.Context, code, nick string) (*ledger.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.voucherMu.Lock()
	defer s.voucherMu.Unlock()

	var records []voucherRecord
	if err := load(s.vouchersPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading vouchers", Err: err}
	}

	idx := -1

	for i, r := range records {
		if r.Code == code {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, ledger.ErrNotFound
	}

	if records[idx].Redeemed {
		return nil, ledger.ErrAlreadyRedeemed
	}

	records[idx].Redeemed = true
	records[idx].RedeemedBy = new(nick)
	records[idx].RedeemedAt = new(s.now().UTC())

	if err := persist(s.vouchersPath, records); err != nil {
		return nil, &ledger.StorageError{Op: "persisting vouchers", Err: err}
	}

	return records[idx].toDomain(), nil
}

func (s *Store) ListVouchers(ctx context.Context) ([]*ledger.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.voucherMu.Lock()
	defer s.voucherMu.Unlock()

	var records []voucherRecord
	if err := load(s.vouchersPath, &records); err != nil {
		return nil, &ledger.StorageError{Op: "loading vouchers", Err: err}
	}

	vouchers := make([]*ledger.Voucher, len(records))
	for i, r := range records {
		vouchers[i] = r.toDomain()
	}

	return vouchers, nil
}

// load decodes path into dst. A missing or empty file is an empty collection.
func load(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := encoding.DecodeJSON(f, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	return nil
}

// persist replaces path with records atomically, so a crash mid-write
// leaves the previous collection intact.
func persist(path string, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}

	return nil
}
