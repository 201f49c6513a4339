// Package router turns chat commands into coordinator calls and renders the
// German reply texts.
//
// Commands that need a group name and arrive without one, and joins without a
// display name, are suspended: the user is prompted and the next plain text
// message completes the command. Any other command, /cancel or the pending
// timeout drops the suspended command.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/wichtelbot/internal/metrics"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/santa"
)

const DefaultPendingTimeout = 5 * time.Minute

// Command is one message from the chat transport. A Command with an empty
// Name is a plain text message whose words are in Args.
type Command struct {
	Name  string      `json:"name"`
	Args  []string    `json:"args"`
	Actor santa.Actor `json:"actor"`
}

// Result is the reply to the sender plus private messages for other users.
type Result struct {
	Text          string           `json:"text"`
	Notifications []notify.Message `json:"notifications"`
}

// Options configures a Router.
type Options struct {
	// Sender delivers reveals. When nil, reveals are collected and returned
	// in Result.Notifications.
	Sender notify.Sender

	// PendingTimeout defaults to DefaultPendingTimeout.
	PendingTimeout time.Duration

	Metrics *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

type handlerFunc func(ctx context.Context, req *request) (string, error)

// request is the per-call state handed to command handlers.
type request struct {
	actor  santa.Actor
	args   []string
	sender notify.Sender
}

// Router dispatches commands. It is safe for concurrent use.
type Router struct {
	coord    *santa.Coordinator
	sender   notify.Sender
	conv     *conversations
	metrics  *metrics.Metrics
	handlers map[string]handlerFunc
}

// New creates a router on top of coord.
func New(coord *santa.Coordinator, opts Options) *Router {
	if opts.PendingTimeout <= 0 {
		opts.PendingTimeout = DefaultPendingTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Router{
		coord:   coord,
		sender:  opts.Sender,
		conv:    newConversations(opts.PendingTimeout, opts.Now),
		metrics: opts.Metrics,
	}
	r.handlers = map[string]handlerFunc{
		"start":    r.start,
		"help":     r.help,
		"create":   r.withGroup("create", r.create),
		"delete":   r.withGroup("delete", r.delete),
		"join":     r.withGroup("join", r.join),
		"leave":    r.leave,
		"status":   r.status,
		"list":     r.withGroup("list", r.list),
		"restrict": r.restrict,
		"wish":     r.wish,
		"assign":   r.withGroup("assign", r.assign),
		"reset":    r.withGroup("reset", r.reset),
		"groups":   r.groups,
	}
	return r
}

// Handle processes one command and never fails: every error is rendered as
// reply text.
func (r *Router) Handle(ctx context.Context, cmd Command) Result {
	name := normalizeCommand(cmd.Name)
	outbox := notify.NewOutbox()
	req := &request{actor: cmd.Actor, args: cmd.Args, sender: r.sender}
	if req.sender == nil {
		req.sender = outbox
	}

	label := name
	var (
		text string
		err  error
	)
	switch {
	case cmd.Actor.ID == "":
		err = santa.ErrInvalidInput
	case name == "":
		label = "text"
		text, err = r.continueInteraction(ctx, req)
	case name == "cancel":
		text = msgNothingPending
		if r.conv.reset(cmd.Actor.ID) {
			text = msgCancelled
		}
	default:
		r.conv.reset(cmd.Actor.ID)
		handler, ok := r.handlers[name]
		if !ok {
			label = "unknown"
			text = msgUnknown
			break
		}
		text, err = handler(ctx, req)
	}

	outcome := "ok"
	if err != nil {
		kind := santa.KindOf(err)
		outcome = strings.ToLower(string(kind))
		if kind == santa.KindPersistence && text != "" {
			text += "\n" + errorText(err)
		} else {
			text = errorText(err)
		}
		logCommandError(label, cmd.Actor.ID, kind, err)
	}
	r.metrics.ObserveCommand(label, outcome)

	notifications := outbox.Messages()
	if notifications == nil {
		notifications = []notify.Message{}
	}
	return Result{Text: text, Notifications: notifications}
}

// Phase returns the interaction phase of a user.
func (r *Router) Phase(userID string) Phase {
	return r.conv.phase(userID)
}

// continueInteraction feeds a plain text message into the user's suspended
// command.
func (r *Router) continueInteraction(ctx context.Context, req *request) (string, error) {
	p, ok := r.conv.take(req.actor.ID)
	if !ok {
		return msgPlainText, nil
	}
	text := strings.TrimSpace(strings.Join(req.args, " "))

	switch p.phase {
	case PhaseAwaitingGroupName:
		fields := strings.Fields(text)
		if len(fields) == 0 {
			r.conv.awaitGroupName(req.actor.ID, p.command)
			return msgAskGroupName, nil
		}
		req.args = fields
		return r.handlers[p.command](ctx, req)
	case PhaseAwaitingDisplayName:
		return r.joinAs(ctx, req, p.group, text)
	default:
		return msgPlainText, nil
	}
}

// withGroup prompts for a missing group name and validates a given one
// before calling fn with it.
func (r *Router) withGroup(command string, fn func(ctx context.Context, req *request, group string) (string, error)) handlerFunc {
	return func(ctx context.Context, req *request) (string, error) {
		if len(req.args) == 0 {
			r.conv.awaitGroupName(req.actor.ID, command)
			return msgAskGroupName, nil
		}
		group := req.args[0]
		if err := validateGroupName(group); err != nil {
			return "", err
		}
		return fn(ctx, req, group)
	}
}

// done keeps the reply of an operation that took effect but failed to
// persist.
func done(text string, err error) (string, error) {
	if err != nil && !errors.Is(err, santa.ErrPersistence) {
		return "", err
	}
	return text, err
}

func normalizeCommand(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	// Telegram addresses commands in groups as /join@WichtelBot.
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

func logCommandError(command, userID string, kind santa.Kind, err error) {
	switch kind {
	case santa.KindPersistence, santa.KindInternal:
		slog.Error("Command failed", "command", command, "user_id", userID, "kind", kind, "error", err)
	default:
		slog.Debug("Command rejected", "command", command, "user_id", userID, "kind", kind, "error", err)
	}
}
