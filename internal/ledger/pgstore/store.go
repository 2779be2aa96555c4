package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

const uniqueViolation = "23505"

type Store struct {
	db      *sql.DB
	newCode ledger.CodeGenerator
}

var _ ledger.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db, newCode: ledger.NewVoucherCode}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `id, transaction_id, minecraft_nick, item_type, quantity, amount, payer_email, status, created_at`

// scanTransaction expects transactionColumns order.
func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction

	var itemType, status string

	if err := s.Scan(
		&tx.ID, &tx.TransactionID, &tx.MinecraftNick, &itemType, &tx.Quantity,
		&tx.Amount, &tx.PayerEmail, &status, &tx.Timestamp,
	); err != nil {
		return nil, err
	}

	tx.ItemType = ledger.ItemType(itemType)
	tx.Status = ledger.Status(status)

	return &tx, nil
}

const voucherColumns = `code, item_type, quantity, created_at, redeemed, redeemed_by, redeemed_at`

func scanVoucher(s scanner) (*ledger.Voucher, error) {
	var v ledger.Voucher

	var itemType string

	var redeemedBy sql.NullString

	var redeemedAt sql.NullTime

	if err := s.Scan(&v.Code, &itemType, &v.Quantity, &v.CreatedAt, &v.Redeemed, &redeemedBy, &redeemedAt); err != nil {
		return nil, err
	}

	v.ItemType = ledger.ItemType(itemType)

	if redeemedBy.Valid {
		v.RedeemedBy = new(redeemedBy.String)
	}

	if redeemedAt.Valid {
		v.RedeemedAt = new(redeemedAt.Time)
	}

	return &v, nil
}

func (s *Store) AppendTransaction(ctx context.Context, d ledger.TransactionDraft) (*ledger.Transaction, error) {
	query := `
		INSERT INTO transactions (transaction_id, minecraft_nick, item_type, quantity, amount, payer_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query,
		d.TransactionID,
		d.MinecraftNick,
		d.ItemType,
		d.Quantity,
		d.Amount,
		d.PayerEmail,
		ledger.StatusProcessing,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("appending %s: %w", d.TransactionID, ledger.ErrDuplicateTransaction)
		}

		return nil, &ledger.StorageError{Op: "inserting transaction", Err: err}
	}

	return tx, nil
}

func (s *Store) FindTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, &ledger.StorageError{Op: "getting transaction", Err: err}
	}

	return tx, nil
}

// UpdateTransactionStatus only touches rows still in processing, which keeps
// terminal states final without an explicit lock.
func (s *Store) UpdateTransactionStatus(ctx context.Context, transactionID string, status ledger.Status) (*ledger.Transaction, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("-> %s: %w", status, ledger.ErrInvalidTransition)
	}

	query := `
		UPDATE transactions
		SET status = $1
		WHERE transaction_id = $2 AND status = $3
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, status, transactionID, ledger.StatusProcessing))
	if err == nil {
		return tx, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.StorageError{Op: "updating status", Err: err}
	}

	current, err := s.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%s -> %s: %w", current.Status, status, ledger.ErrInvalidTransition)
}

func (s *Store) ListTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &ledger.StorageError{Op: "listing transactions", Err: err}
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "scanning transaction", Err: err}
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "iterating transactions", Err: err}
	}

	return txs, nil
}

// CreateVoucher relies on the primary key to detect collisions and draws a new
// code for each one.
func (s *Store) CreateVoucher(ctx context.Context, itemType ledger.ItemType, quantity int) (*ledger.Voucher, error) {
	query := `
		INSERT INTO vouchers (code, item_type, quantity, created_at, redeemed)
		VALUES ($1, $2, $3, NOW(), FALSE)
		ON CONFLICT (code) DO NOTHING
		RETURNING ` + voucherColumns

	var (
		created *ledger.Voucher
		dbErr   error
	)

	_, err := ledger.UniqueCode(s.newCode, func(code string) bool {
		v, err := scanVoucher(s.db.QueryRowContext(ctx, query, code, itemType, quantity))
		if errors.Is(err, sql.ErrNoRows) {
			return true
		}

		// Stop drawing codes on a real failure.
		if err != nil {
			dbErr = err
			return false
		}

		created = v

		return false
	})
	if err != nil {
		return nil, fmt.Errorf("creating voucher: %w", err)
	}

	if dbErr != nil {
		return nil, &ledger.StorageError{Op: "inserting voucher", Err: dbErr}
	}

	return created, nil
}

func (s *Store) FindVoucherByCode(ctx context.Context, code string) (*ledger.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	v, err := scanVoucher(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, &ledger.StorageError{Op: "getting voucher", Err: err}
	}

	return v, nil
}

// MarkVoucherRedeemed is a conditional update, so only one concurrent caller
// can observe redeemed = false.
func (s *Store) MarkVoucherRedeemed(ctx context.Context, code, nick string) (*ledger.Voucher, error) {
	query := `
		UPDATE vouchers
		SET redeemed = TRUE, redeemed_by = $1, redeemed_at = NOW()
		WHERE code = $2 AND redeemed = FALSE
		RETURNING ` + voucherColumns

	v, err := scanVoucher(s.db.QueryRowContext(ctx, query, nick, code))
	if err == nil {
		return v, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.StorageError{Op: "marking voucher", Err: err}
	}

	if _, err := s.FindVoucherByCode(ctx, code); err != nil {
		return nil, err
	}

	return nil, ledger.ErrAlreadyRedeemed
}

func (s *Store) ListVouchers(ctx context.Context) ([]*ledger.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at ASC, code ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &ledger.StorageError{Op: "listing vouchers", Err: err}
	}
	defer rows.Close()

	var vouchers []*ledger.Voucher

	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "scanning voucher", Err: err}
		}

		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "iterating vouchers", Err: err}
	}

	return vouchers, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
