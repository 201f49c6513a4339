package notify

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Outbox collects messages instead of sending them. The gateway returns the
// collected messages to the chat transport, which delivers them.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send appends msg. It never fails.
func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns the collected messages sorted by user ID.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := slices.Clone(o.messages)
	slices.SortFunc(out, func(a, b Message) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return out
}
