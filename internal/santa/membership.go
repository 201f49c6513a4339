package santa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/wichtelbot/internal/models"
)

// LeaveResult describes what a Leave did.
type LeaveResult struct {
	Group string

	// GroupDeleted is set when the leaving user was the last participant.
	GroupDeleted bool
}

// Join adds actor to the group under displayName.
//
// Checks run in this order: the user must not be in any group, the group
// must exist and be open, and a display name must be given. When only the
// display name is missing, ErrDisplayNameRequired is returned and nothing
// changes; the caller may ask for a name and call Join again.
func (c *Coordinator) Join(ctx context.Context, actor Actor, groupName, displayName string) (models.Group, error) {
	if actor.ID == "" {
		return models.Group{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.memberships[actor.ID]; ok {
		return models.Group{}, fmt.Errorf("%w: %s", ErrAlreadyInGroup, current)
	}
	group, err := c.openGroupLocked(groupName)
	if err != nil {
		return models.Group{}, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return models.Group{}, ErrDisplayNameRequired
	}

	group.Participants = append(group.Participants, models.Participant{
		UserID:      actor.ID,
		DisplayName: displayName,
		JoinedAt:    c.now().Unix(),
	})
	c.memberships[actor.ID] = group.Name
	slog.Info("Participant joined", "group", group.Name, "user_id", actor.ID, "participants", len(group.Participants))

	return *group.Clone(), c.persist(ctx)
}

// Leave removes the user from their group. The group is deleted when it
// becomes empty. Leaving a group whose draw is in progress is allowed.
func (c *Coordinator) Leave(ctx context.Context, userID string) (LeaveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, ok := c.memberships[userID]
	if !ok {
		return LeaveResult{}, ErrNotInGroup
	}
	delete(c.memberships, userID)

	result := LeaveResult{Group: name}
	group, ok := c.groups[name]
	if !ok {
		// Index pointed at a vanished group; the index entry was the only state.
		slog.Warn("Membership pointed at missing group", "group", name, "user_id", userID)
		return result, c.persist(ctx)
	}

	group.RemoveParticipant(userID)
	if len(group.Participants) == 0 {
		c.removeGroupLocked(group)
		result.GroupDeleted = true
	}
	slog.Info("Participant left", "group", name, "user_id", userID, "group_deleted", result.GroupDeleted)

	return result, c.persist(ctx)
}

// MembershipOf returns the name of the user's current group.
func (c *Coordinator) MembershipOf(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.memberships[userID]
	return name, ok
}
