package santa

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mmynk/wichtelbot/internal/models"
)

// CreateGroup registers an empty open group owned by owner.
func (c *Coordinator) CreateGroup(ctx context.Context, name string, owner Actor) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || owner.ID == "" {
		return models.Group{}, fmt.Errorf("%w: group name and owner are required", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.groups[name]; exists {
		return models.Group{}, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	group := models.NewGroup(name, owner.ID, c.now().Unix())
	c.groups[name] = group
	slog.Info("Group created", "group", name, "owner_id", owner.ID)

	return *group.Clone(), c.persist(ctx)
}

// DeleteGroup removes the group and every membership pointing at it.
func (c *Coordinator) DeleteGroup(ctx context.Context, name string, actor Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, err := c.openGroupLocked(name)
	if err != nil {
		return err
	}
	if !c.canManage(group, actor) {
		return fmt.Errorf("%w: delete %s", ErrForbidden, name)
	}

	c.removeGroupLocked(group)
	slog.Info("Group deleted", "group", name, "actor_id", actor.ID, "participants", len(group.Participants))

	return c.persist(ctx)
}

// GetGroup returns a copy of an open group.
func (c *Coordinator) GetGroup(name string) (models.Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, err := c.openGroupLocked(name)
	if err != nil {
		return models.Group{}, err
	}
	return *group.Clone(), nil
}

// ListGroups returns every open group sorted by name. Admin only.
func (c *Coordinator) ListGroups(actor Actor) ([]models.Group, error) {
	if !c.IsAdmin(actor) {
		return nil, fmt.Errorf("%w: list groups", ErrForbidden)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groups := make([]models.Group, 0, len(c.groups))
	for _, group := range c.groups {
		if group.State == models.GroupOpen {
			groups = append(groups, *group.Clone())
		}
	}
	slices.SortFunc(groups, func(a, b models.Group) int {
		return strings.Compare(a.Name, b.Name)
	})
	return groups, nil
}

// ResetGroup removes all participants and restrictions but keeps the group.
// It returns the number of removed participants.
func (c *Coordinator) ResetGroup(ctx context.Context, name string, actor Actor) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, err := c.openGroupLocked(name)
	if err != nil {
		return 0, err
	}
	if !c.canManage(group, actor) {
		return 0, fmt.Errorf("%w: reset %s", ErrForbidden, name)
	}

	removed := len(group.Participants)
	for _, p := range group.Participants {
		delete(c.memberships, p.UserID)
	}
	group.Participants = []models.Participant{}
	group.Restrictions = models.Restrictions{}
	slog.Info("Group reset", "group", name, "actor_id", actor.ID, "removed", removed)

	return removed, c.persist(ctx)
}
