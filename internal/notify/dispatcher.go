// Package notify delivers private messages to participants.
//
// Delivery is best-effort: a failed send never blocks, cancels or rolls back
// the sends made to other participants, and nothing is retried. The caller
// gets a Report and decides what to tell the user.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 4
	DefaultSendTimeout = 10 * time.Second
)

// Message is one private message to one user.
type Message struct {
	// ID lets the transport deduplicate deliveries.
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(userID, text string) Message {
	return Message{ID: uuid.New().String(), UserID: userID, Text: text}
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Failure records a message that could not be delivered.
type Failure struct {
	UserID string
	Err    error
}

// Report summarizes a dispatch. Both lists keep the input order.
type Report struct {
	Sent   []string
	Failed []Failure
}

// OK reports whether every message was delivered.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Observer is notified of every send outcome. metrics.Metrics implements it.
type Observer interface {
	ObserveNotification(ok bool)
}

// Dispatcher fans messages out to a Sender with bounded concurrency.
type Dispatcher struct {
	concurrency int
	sendTimeout time.Duration
	observer    Observer
}

// NewDispatcher creates a dispatcher. Non-positive values fall back to the
// defaults; observer may be nil.
func NewDispatcher(concurrency int, sendTimeout time.Duration, observer Observer) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{
		concurrency: concurrency,
		sendTimeout: sendTimeout,
		observer:    observer,
	}
}

// Dispatch sends every message and waits for all of them.
func (d *Dispatcher) Dispatch(ctx context.Context, sender Sender, msgs []Message) Report {
	errs := make([]error, len(msgs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, msg := range msgs {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()
			errs[i] = sender.Send(sendCtx, msg)
			return nil
		})
	}
	_ = g.Wait()

	var report Report
	for i, msg := range msgs {
		ok := errs[i] == nil
		if d.observer != nil {
			d.observer.ObserveNotification(ok)
		}
		if ok {
			report.Sent = append(report.Sent, msg.UserID)
			continue
		}
		slog.Warn("Notification failed",
			"message_id", msg.ID,
			"user_id", msg.UserID,
			"error", errs[i],
		)
		report.Failed = append(report.Failed, Failure{UserID: msg.UserID, Err: errs[i]})
	}
	return report
}
