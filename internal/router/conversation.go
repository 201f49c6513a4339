package router

import (
	"sync"
	"time"
)

// Phase is where a user is in a multi-message interaction.
type Phase int

const (
	PhaseIdle Phase = iota

	// PhaseAwaitingGroupName: a command was sent without a group name. The
	// next plain message is taken as the name.
	PhaseAwaitingGroupName

	// PhaseAwaitingDisplayName: a join needs a display name. The next plain
	// message is taken as the name.
	PhaseAwaitingDisplayName
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingGroupName:
		return "awaiting_group_name"
	case PhaseAwaitingDisplayName:
		return "awaiting_display_name"
	default:
		return "idle"
	}
}

// pending is a suspended interaction.
type pending struct {
	phase Phase

	// command waits for a group name.
	command string

	// group waits for a display name.
	group string

	expires time.Time
}

// conversations tracks pending interactions per user. Entries expire after
// ttl; an expired entry behaves like IDLE.
type conversations struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	byUser map[string]pending
}

func newConversations(ttl time.Duration, now func() time.Time) *conversations {
	return &conversations{
		ttl:    ttl,
		now:    now,
		byUser: make(map[string]pending),
	}
}

// awaitGroupName suspends command until the user sends a group name.
func (c *conversations) awaitGroupName(userID, command string) {
	c.set(userID, pending{phase: PhaseAwaitingGroupName, command: command})
}

// awaitDisplayName suspends a join of group until the user sends a name.
func (c *conversations) awaitDisplayName(userID, group string) {
	c.set(userID, pending{phase: PhaseAwaitingDisplayName, group: group})
}

func (c *conversations) set(userID string, p pending) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, other := range c.byUser {
		if !now.Before(other.expires) {
			delete(c.byUser, id)
		}
	}
	p.expires = now.Add(c.ttl)
	c.byUser[userID] = p
}

// take removes and returns the user's pending interaction if it has not
// expired.
func (c *conversations) take(userID string) (pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.byUser[userID]
	if !ok {
		return pending{}, false
	}
	delete(c.byUser, userID)
	if !c.now().Before(p.expires) {
		return pending{}, false
	}
	return p, true
}

// phase returns the user's current phase.
func (c *conversations) phase(userID string) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.byUser[userID]
	if !ok || !c.now().Before(p.expires) {
		return PhaseIdle
	}
	return p.phase
}

// reset drops the user's pending interaction and reports whether a live one
// existed.
func (c *conversations) reset(userID string) bool {
	_, ok := c.take(userID)
	return ok
}
