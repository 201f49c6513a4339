package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type flakySender struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []string
	active atomic.Int32
	peak   atomic.Int32
}

func (s *flakySender) Send(_ context.Context, msg Message) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if s.fail[msg.UserID] {
		return errors.New("chat not found")
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg.UserID)
	s.mu.Unlock()
	return nil
}

type countingObserver struct {
	ok, failed atomic.Int32
}

func (o *countingObserver) ObserveNotification(ok bool) {
	if ok {
		o.ok.Add(1)
		return
	}
	o.failed.Add(1)
}

func TestDispatch_PartialFailureDoesNotBlockOthers(t *testing.T) {
	sender := &flakySender{fail: map[string]bool{"bob": true}}
	observer := &countingObserver{}
	d := NewDispatcher(2, time.Second, observer)

	msgs := []Message{
		NewMessage("alice", "a"),
		NewMessage("bob", "b"),
		NewMessage("carol", "c"),
		NewMessage("dave", "d"),
	}
	report := d.Dispatch(context.Background(), sender, msgs)

	require.False(t, report.OK())
	require.Equal(t, []string{"alice", "carol", "dave"}, report.Sent)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "bob", report.Failed[0].UserID)
	require.ElementsMatch(t, []string{"alice", "carol", "dave"}, sender.sent)
	require.LessOrEqual(t, sender.peak.Load(), int32(2))
	require.Equal(t, int32(3), observer.ok.Load())
	require.Equal(t, int32(1), observer.failed.Load())
}

func TestDispatch_Empty(t *testing.T) {
	d := NewDispatcher(0, 0, nil)
	report := d.Dispatch(context.Background(), NewOutbox(), nil)
	require.True(t, report.OK())
	require.Empty(t, report.Sent)
}

func TestOutbox_CollectsSortedMessages(t *testing.T) {
	outbox := NewOutbox()
	d := NewDispatcher(4, time.Second, nil)

	report := d.Dispatch(context.Background(), outbox, []Message{
		NewMessage("carol", "c"),
		NewMessage("alice", "a"),
		NewMessage("bob", "b"),
	})
	require.True(t, report.OK())

	msgs := outbox.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "alice", msgs[0].UserID)
	require.Equal(t, "bob", msgs[1].UserID)
	require.Equal(t, "carol", msgs[2].UserID)
	require.NotEmpty(t, msgs[0].ID)
	require.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestWebhook_Send(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []webhookPayload
		keys     []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if p.ChatID == "blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		mu.Lock()
		payloads = append(payloads, p)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, server.Client())

	msg := NewMessage("42", "Du bist der Wichtel für Bob!")
	require.NoError(t, webhook.Send(context.Background(), msg))
	require.Equal(t, []webhookPayload{{ChatID: "42", Text: "Du bist der Wichtel für Bob!"}}, payloads)
	require.Equal(t, []string{msg.ID}, keys)

	err := webhook.Send(context.Background(), NewMessage("blocked", "x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
