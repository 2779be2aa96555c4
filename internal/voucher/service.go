package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=voucher
type Repository interface {
	CreateVoucher(ctx context.Context, itemType ledger.ItemType, quantity int) (*ledger.Voucher, error)
	FindVoucherByCode(ctx context.Context, code string) (*ledger.Voucher, error)
	MarkVoucherRedeemed(ctx context.Context, code, nick string) (*ledger.Voucher, error)
	ListVouchers(ctx context.Context) ([]*ledger.Voucher, error)
}

type Authorizer interface {
	Authorize(credential string) error
}

// Status is the business result of a redemption attempt.
type Status string

const (
	StatusOK              Status = "ok"
	StatusNotFound        Status = "not_found"
	StatusAlreadyRedeemed Status = "already_redeemed"
)

// Redemption is what a lookup tells the caller about a code. Only StatusOK
// carries a voucher to fulfill.
type Redemption struct {
	Status  Status
	Code    string
	Nick    string
	Voucher *ledger.Voucher
}

// Err maps a negative result back onto the ledger sentinel.
func (r *Redemption) Err() error {
	switch r.Status {
	case StatusNotFound:
		return ledger.ErrNotFound
	case StatusAlreadyRedeemed:
		return ledger.ErrAlreadyRedeemed
	}

	return nil
}

type Service struct {
	repo Repository
	auth Authorizer
}

func NewService(repo Repository, auth Authorizer) *Service {
	return &Service{repo: repo, auth: auth}
}

// Issue creates a voucher for an authorized administrator. A zero quantity
// means one.
func (s *Service) Issue(ctx context.Context, itemType ledger.ItemType, quantity int, credential string) (*ledger.Voucher, error) {
	if err := s.auth.Authorize(credential); err != nil {
		return nil, err
	}

	if !reward.Known(itemType) {
		return nil, fmt.Errorf("%w: %q", reward.ErrUnknownItemType, itemType)
	}

	if quantity == 0 {
		quantity = 1
	}

	if quantity < 0 {
		return nil, fmt.Errorf("%w: %d", reward.ErrInvalidQuantity, quantity)
	}

	return s.repo.CreateVoucher(ctx, itemType, quantity)
}

// Redeem looks a code up without consuming it. Unknown and used codes are
// reported in the result; only storage failures are errors.
func (s *Service) Redeem(ctx context.Context, code, nick string) (*Redemption, error) {
	v, err := s.repo.FindVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return &Redemption{Status: StatusNotFound, Code: code, Nick: nick}, nil
		}

		return nil, fmt.Errorf("looking up voucher: %w", err)
	}

	if v.Redeemed {
		return &Redemption{Status: StatusAlreadyRedeemed, Code: code, Nick: nick, Voucher: v}, nil
	}

	return &Redemption{Status: StatusOK, Code: code, Nick: nick, Voucher: v}, nil
}

// Complete marks the voucher redeemed by nick. Call it only once the reward
// has been delivered.
func (s *Service) Complete(ctx context.Context, code, nick string) (*ledger.Voucher, error) {
	return s.repo.MarkVoucherRedeemed(ctx, code, nick)
}

func (s *Service) List(ctx context.Context) ([]*ledger.Voucher, error) {
	return s.repo.ListVouchers(ctx)
}
