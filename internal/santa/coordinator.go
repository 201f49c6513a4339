// Package santa owns the state of the bot: the group registry, the
// membership index (user -> group), owner restrictions and wishes.
//
// A single mutex guards all of it. Every successful mutation persists a full
// snapshot before it returns. Assign is the one operation that releases the
// lock in the middle, to send the reveals without holding it; the group is
// marked ASSIGNED first, which hides it from every other operation except
// Leave.
package santa

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/metrics"
	"github.com/mmynk/wichtelbot/internal/models"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/storage"
)

// Actor is the chat user issuing an operation.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// Options configures a Coordinator.
type Options struct {
	// AdminUsername may delete, reset and assign any group and list all
	// groups. Matching ignores case and a leading '@'.
	AdminUsername string

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Coordinator is the process-wide state store.
type Coordinator struct {
	mu          sync.Mutex
	groups      map[string]*models.Group
	memberships map[string]string
	preferences map[string]string

	store      storage.Store
	engine     *assignment.Engine
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	admin      string
	now        func() time.Time
}

// New loads the last snapshot from store and rebuilds the membership index.
// Any load failure is returned; the caller should not start without state.
func New(ctx context.Context, store storage.Store, engine *assignment.Engine, dispatcher *notify.Dispatcher, opts Options) (*Coordinator, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	snap.Normalize()

	c := &Coordinator{
		groups:      make(map[string]*models.Group, len(snap.Groups)),
		memberships: make(map[string]string),
		preferences: snap.Preferences,
		store:       store,
		engine:      engine,
		dispatcher:  dispatcher,
		metrics:     opts.Metrics,
		admin:       normalizeUsername(opts.AdminUsername),
		now:         opts.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.preferences == nil {
		c.preferences = make(map[string]string)
	}

	names := lo.Keys(snap.Groups)
	slices.Sort(names)
	for _, name := range names {
		group := snap.Groups[name]
		// A draw that was interrupted before its final save never happened.
		group.State = models.GroupOpen
		for _, p := range group.Participants {
			if other, dup := c.memberships[p.UserID]; dup {
				return nil, fmt.Errorf("%w: %s is in %s and %s", ErrMembershipConflict, p.UserID, other, name)
			}
			c.memberships[p.UserID] = name
		}
		c.groups[name] = group
	}
	c.metrics.SetState(len(c.groups), len(c.memberships))

	slog.Info("State loaded",
		"groups", len(c.groups),
		"participants", len(c.memberships),
		"preferences", len(c.preferences),
	)
	return c, nil
}

// Snapshot returns a deep copy of the persistable state.
func (c *Coordinator) Snapshot() *models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() *models.Snapshot {
	snap := models.NewSnapshot()
	for name, group := range c.groups {
		if group.State != models.GroupOpen {
			continue
		}
		snap.Groups[name] = group.Clone()
	}
	for userID, wish := range c.preferences {
		snap.Preferences[userID] = wish
	}
	return snap
}

// persist saves the current state. The caller holds c.mu.
func (c *Coordinator) persist(ctx context.Context) error {
	c.metrics.SetState(len(c.groups), len(c.memberships))
	if err := c.store.Save(ctx, c.snapshotLocked()); err != nil {
		slog.Error("Persisting state failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// IsAdmin reports whether actor is the configured admin.
func (c *Coordinator) IsAdmin(actor Actor) bool {
	return c.admin != "" && normalizeUsername(actor.Username) == c.admin
}

func (c *Coordinator) canManage(group *models.Group, actor Actor) bool {
	return actor.ID != "" && actor.ID == group.OwnerID || c.IsAdmin(actor)
}

// openGroupLocked returns the group if it exists and is still open.
func (c *Coordinator) openGroupLocked(name string) (*models.Group, error) {
	group, ok := c.groups[name]
	if !ok || group.State != models.GroupOpen {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return group, nil
}

// removeGroupLocked drops group and the index entries that point at it.
func (c *Coordinator) removeGroupLocked(group *models.Group) {
	if c.groups[group.Name] != group {
		return
	}
	delete(c.groups, group.Name)
	for _, p := range group.Participants {
		if c.memberships[p.UserID] == group.Name {
			delete(c.memberships, p.UserID)
		}
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
