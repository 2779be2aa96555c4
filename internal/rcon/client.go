// Package rcon connects the reward dispatcher to the game server's RCON port.
package rcon

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gorcon/rcon"

	"github.com/MrJamesThe3rd/customcraft/internal/reward"
)

const defaultDialTimeout = 5 * time.Second

type conn interface {
	Execute(command string) (string, error)
	Close() error
}

type dialFunc func(address, password string, dialTimeout time.Duration) (conn, error)

func dialRCON(address, password string, dialTimeout time.Duration) (conn, error) {
	c, err := rcon.Dial(address, password,
		rcon.SetDialTimeout(dialTimeout),
		rcon.SetDeadline(dialTimeout),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Client opens one authenticated RCON connection per session.
type Client struct {
	address  string
	password string
	dial     dialFunc
}

var _ reward.Channel = (*Client)(nil)

func New(host string, port int, password string) *Client {
	return &Client{
		address:  net.JoinHostPort(host, strconv.Itoa(port)),
		password: password,
		dial:     dialRCON,
	}
}

// Address is the host:port the client dials.
func (c *Client) Address() string { return c.address }

type dialResult struct {
	conn conn
	err  error
}

// Open dials and authenticates, giving up when ctx ends.
func (c *Client) Open(ctx context.Context) (reward.Session, error) {
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	done := make(chan dialResult, 1)

	go func() {
		cn, err := c.dial(c.address, c.password, timeout)
		done <- dialResult{conn: cn, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("rcon dial %s: %w", c.address, res.err)
		}

		return &session{conn: res.conn}, nil
	case <-ctx.Done():
		// Release a connection that completes after we stopped waiting.
		go func() {
			if res := <-done; res.err == nil {
				res.conn.Close()
			}
		}()

		return nil, ctx.Err()
	}
}

type session struct {
	conn conn
}

type execResult struct {
	resp string
	err  error
}

func (s *session) Send(ctx context.Context, command string) (string, error) {
	done := make(chan execResult, 1)

	go func() {
		resp, err := s.conn.Execute(command)
		done <- execResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("rcon execute: %w", res.err)
		}

		return res.resp, nil
	case <-ctx.Done():
		// Closing unblocks the pending Execute.
		s.conn.Close()
		return "", ctx.Err()
	}
}

func (s *session) Close() error {
	return s.conn.Close()
}
