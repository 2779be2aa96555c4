package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	voucherPrefix   = "VOUCHER-"
	voucherAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	voucherLength   = 8

	// MaxCodeAttempts bounds collision retries when issuing a voucher.
	MaxCodeAttempts = 16
)

// CodeGenerator produces candidate voucher codes. Stores retry on collision.
type CodeGenerator func() (string, error)

// NewVoucherCode returns a random code of the form VOUCHER-XXXXXXXX.
func NewVoucherCode() (string, error) {
	buf := make([]byte, voucherLength)
	limit := big.NewInt(int64(len(voucherAlphabet)))

	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("reading random: %w", err)
		}

		buf[i] = voucherAlphabet[n.Int64()]
	}

	return voucherPrefix + string(buf), nil
}

// UniqueCode draws from gen until taken reports false, at most MaxCodeAttempts times.
func UniqueCode(gen CodeGenerator, taken func(code string) bool) (string, error) {
	for range MaxCodeAttempts {
		code, err := gen()
		if err != nil {
			return "", err
		}

		if !taken(code) {
			return code, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}
