package reward

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrTimeout         = errors.New("remote command timed out")
	ErrNotAcknowledged = errors.New("remote command not acknowledged")
)

// Channel opens sessions on the remote command channel.
type Channel interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one authenticated connection to the game server.
type Session interface {
	Send(ctx context.Context, command string) (string, error)
	Close() error
}

// Acknowledger decides whether a response means the server accepted command.
type Acknowledger func(command, response string) error

// Server replies that mean the command never ran, lowercased. The first group
// is vanilla, the rest come from LuckPerms and CrazyCrates.
var rejectionMarkers = []string{
	"unknown or incomplete command",
	"unknown command",
	"an internal error occurred",

	"could not be found",
	"is not a valid username",
	"does not exist",

	"is not online",
	"there is no crate called",
	"is not a number",
	"inventory is full",
}

// formatCodes matches Minecraft color and style codes such as §c.
var formatCodes = regexp.MustCompile(`§.`)

// DefaultAcknowledger rejects replies carrying a known failure marker from the
// server or the permission and crate plugins.
func DefaultAcknowledger(_, response string) error {
	plain := strings.TrimSpace(formatCodes.ReplaceAllString(response, ""))
	lower := strings.ToLower(plain)

	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrNotAcknowledged, plain)
		}
	}

	return nil
}

// Outcome reports how far a dispatch got.
type Outcome struct {
	Commands  []string
	Responses []string
	Succeeded int
}

// Complete reports whether every command was acknowledged.
func (o Outcome) Complete() bool {
	return len(o.Commands) > 0 && o.Succeeded == len(o.Commands)
}

// DispatchError carries the failing command. Commands before Index already
// took effect remotely and are not rolled back.
type DispatchError struct {
	Command   string
	Index     int
	Succeeded int
	Cause     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatching command %d (%q): %v", e.Index+1, e.Command, e.Cause)
}

func (e *DispatchError) Unwrap() error { return e.Cause }

// AsDispatchError extracts a *DispatchError from err's chain.
func AsDispatchError(err error) (*DispatchError, bool) {
	var de *DispatchError
	ok := errors.As(err, &de)

	return de, ok
}

type Dispatcher struct {
	channel Channel
	timeout time.Duration
	ack     Acknowledger
}

type DispatcherOption func(*Dispatcher)

// WithAcknowledger replaces DefaultAcknowledger.
func WithAcknowledger(ack Acknowledger) DispatcherOption {
	return func(d *Dispatcher) { d.ack = ack }
}

// NewDispatcher bounds each command (connect + send) by timeout.
func NewDispatcher(channel Channel, timeout time.Duration, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		channel: channel,
		timeout: timeout,
		ack:     DefaultAcknowledger,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch sends commands in order, one connection each, and stops at the
// first failure. It never retries: a failed grant has an unknown remote effect.
func (d *Dispatcher) Dispatch(ctx context.Context, commands []string) (Outcome, error) {
	out := Outcome{Commands: commands}

	for i, cmd := range commands {
		resp, err := d.execute(ctx, cmd)
		if err != nil {
			return out, &DispatchError{Command: cmd, Index: i, Succeeded: out.Succeeded, Cause: err}
		}

		out.Responses = append(out.Responses, resp)
		out.Succeeded++
	}

	return out, nil
}

// Probe runs a harmless command to check connectivity and credentials.
func (d *Dispatcher) Probe(ctx context.Context) (string, error) {
	resp, err := d.execute(ctx, "list")
	if err != nil {
		return "", &DispatchError{Command: "list", Cause: err}
	}

	return resp, nil
}

func (d *Dispatcher) execute(ctx context.Context, command string) (resp string, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)

		defer cancel()
	}

	defer func() {
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}()

	session, err := d.channel.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("connecting: %w", err)
	}
	defer session.Close()

	resp, err = session.Send(ctx, command)
	if err != nil {
		return "", fmt.Errorf("sending: %w", err)
	}

	if d.ack != nil {
		if err := d.ack(command, resp); err != nil {
			return resp, err
		}
	}

	return resp, nil
}
