package santa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxWishLength bounds a stored wish, in characters.
const MaxWishLength = 500

// AddRestriction forbids giverID from drawing recipientID in the group. Only
// the owner may restrict. It reports whether the pair was new; repeating a
// restriction is not an error.
func (c *Coordinator) AddRestriction(ctx context.Context, groupName string, actor Actor, giverID, recipientID string) (bool, error) {
	if giverID == recipientID {
		return false, fmt.Errorf("%w: giver and recipient must differ", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	group, err := c.openGroupLocked(groupName)
	if err != nil {
		return false, err
	}
	if actor.ID == "" || actor.ID != group.OwnerID {
		return false, fmt.Errorf("%w: restrict %s", ErrForbidden, groupName)
	}
	for _, id := range []string{giverID, recipientID} {
		if !group.HasParticipant(id) {
			return false, fmt.Errorf("%w: %s", ErrNotAParticipant, id)
		}
	}

	if !group.Restrictions.Add(giverID, recipientID) {
		return false, nil
	}
	slog.Info("Restriction added", "group", groupName, "giver_id", giverID, "recipient_id", recipientID)

	return true, c.persist(ctx)
}

// SetPreference stores the user's wish, replacing any previous one.
func (c *Coordinator) SetPreference(ctx context.Context, userID, wish string) error {
	wish = strings.TrimSpace(wish)
	if userID == "" || wish == "" {
		return fmt.Errorf("%w: wish must not be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(wish) > MaxWishLength {
		return fmt.Errorf("%w: wish is longer than %d characters", ErrInvalidInput, MaxWishLength)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.preferences[userID] = wish
	slog.Info("Preference stored", "user_id", userID, "length", len(wish))

	return c.persist(ctx)
}

// Preference returns the user's wish.
func (c *Coordinator) Preference(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wish, ok := c.preferences[userID]
	return wish, ok
}
