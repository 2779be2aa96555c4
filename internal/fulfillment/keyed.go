package fulfillment

import "github.com/moby/locker"

// codeLocks serializes redemptions of the same voucher code. Different codes
// never contend.
type codeLocks struct {
	l *locker.Locker
}

func newCodeLocks() *codeLocks {
	return &codeLocks{l: locker.New()}
}

// Lock blocks until code is free and returns its unlock func.
func (c *codeLocks) Lock(code string) func() {
	c.l.Lock(code)

	return func() { _ = c.l.Unlock(code) }
}
