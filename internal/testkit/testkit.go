// Package testkit holds in-memory stand-ins shared by service and handler tests.
package testkit

import (
	"context"
	"sync"
	"time"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/messaging"
)

// Bus records published messages.
type Bus struct {
	mu       sync.Mutex
	Messages []messaging.Message
	Err      error
	next     int
}

// Publish implements messaging.Client.
func (b *Bus) Publish(_ context.Context, msg messaging.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Messages = append(b.Messages, msg)
	return b.Err
}

// Consume hands every recorded message to handler once, in publish order,
// then polls for more until ctx is done.
func (b *Bus) Consume(ctx context.Context, handler messaging.Handler) error {
	for {
		b.mu.Lock()
		if b.next < len(b.Messages) {
			msg := b.Messages[b.next]
			b.next++
			b.mu.Unlock()
			if handler != nil {
				_ = handler(ctx, msg)
			}
			continue
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Topic implements messaging.Client.
func (b *Bus) Topic() string { return "oficina.events" }

// Types returns the event_type header of every recorded message, in order.
func (b *Bus) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Messages))
	for _, m := range b.Messages {
		out = append(out, m.Headers["event_type"])
	}
	return out
}

// Tx runs transaction bodies without a database, counting outcomes.
type Tx struct {
	Calls     int
	Commits   int
	Rollbacks int
}

// RunInTx calls fn with a nil handle.
func (t *Tx) RunInTx(ctx context.Context, fn database.TxFunc) error {
	t.Calls++
	if err := fn(ctx, nil); err != nil {
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}

// PGError carries a Postgres SQLSTATE the way the driver error does.
type PGError struct {
	Code           string
	ConstraintName string
}

func (e PGError) Error() string { return "ERROR #" + e.Code }

// Field returns the code for 'C' and the constraint for 'n'.
func (e PGError) Field(k byte) string {
	switch k {
	case 'C':
		return e.Code
	case 'n':
		return e.ConstraintName
	}
	return ""
}
