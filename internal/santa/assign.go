package santa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/models"
	"github.com/mmynk/wichtelbot/internal/notify"
)

// AssignRequest asks for a draw in one group.
type AssignRequest struct {
	Group string
	Actor Actor
	Mode  assignment.Mode
}

// AssignResult is the outcome of a completed draw.
type AssignResult struct {
	Group    string
	Mode     assignment.Mode
	Pairings []models.Pairing
	Attempts int
	Fallback bool

	// Report lists which reveals were delivered.
	Report notify.Report
}

// Assign draws recipients for every participant, sends each giver a private
// reveal through sender, and then deletes the group.
//
// The draw and the state change to ASSIGNED happen under the lock; the
// reveals are sent without it; the group is removed under the lock again.
// A failed reveal does not undo the draw: it shows up in the Report. If only
// the final save fails, the result is returned together with an error
// wrapping ErrPersistence.
func (c *Coordinator) Assign(ctx context.Context, req AssignRequest, sender notify.Sender) (*AssignResult, error) {
	if req.Mode == "" {
		req.Mode = assignment.ModeDerangement
	}

	c.mu.Lock()
	group, pairings, draw, err := c.drawLocked(ctx, req)
	if err != nil {
		c.mu.Unlock()
		c.metrics.ObserveAssignment(string(req.Mode), strings.ToLower(string(KindOf(err))), 0)
		slog.Warn("Assignment failed", "group", req.Group, "mode", req.Mode, "error", err)
		return nil, err
	}
	group.State = models.GroupAssigned
	c.mu.Unlock()

	c.metrics.ObserveAssignment(string(req.Mode), "ok", draw.Attempts)
	slog.Info("Assignment drawn",
		"group", group.Name,
		"mode", draw.Mode,
		"participants", len(pairings),
		"attempts", draw.Attempts,
		"fallback", draw.Fallback,
	)

	msgs := lo.Map(pairings, func(p models.Pairing, _ int) notify.Message {
		return notify.NewMessage(p.GiverID, RevealText(p))
	})
	// The group is gone either way; a caller hanging up must not cut the
	// fan-out short.
	report := c.dispatcher.Dispatch(context.WithoutCancel(ctx), sender, msgs)

	result := &AssignResult{
		Group:    group.Name,
		Mode:     draw.Mode,
		Pairings: pairings,
		Attempts: draw.Attempts,
		Fallback: draw.Fallback,
		Report:   report,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeGroupLocked(group)
	slog.Info("Group closed after assignment",
		"group", group.Name,
		"sent", len(report.Sent),
		"failed", len(report.Failed),
	)

	return result, c.persist(context.WithoutCancel(ctx))
}

// drawLocked validates the request and computes the pairings. The caller
// holds c.mu.
func (c *Coordinator) drawLocked(ctx context.Context, req AssignRequest) (*models.Group, []models.Pairing, assignment.Result, error) {
	group, err := c.openGroupLocked(req.Group)
	if err != nil {
		return nil, nil, assignment.Result{}, err
	}
	if !c.canManage(group, req.Actor) {
		return nil, nil, assignment.Result{}, fmt.Errorf("%w: assign %s", ErrForbidden, req.Group)
	}

	draw, err := c.engine.Assign(ctx, req.Mode, group.ParticipantIDs(), group.Restrictions)
	if err != nil {
		return nil, nil, draw, fmt.Errorf("assign %s: %w", req.Group, err)
	}

	pairings := make([]models.Pairing, 0, len(group.Participants))
	for _, giver := range group.Participants {
		recipientID := draw.Recipients[giver.UserID]
		recipient, _ := group.Participant(recipientID)
		pairings = append(pairings, models.Pairing{
			GiverID:       giver.UserID,
			GiverName:     giver.DisplayName,
			RecipientID:   recipient.UserID,
			RecipientName: recipient.DisplayName,
			Wish:          c.preferences[recipient.UserID],
		})
	}
	return group, pairings, draw, nil
}

// RevealText is the private message telling a giver whom they draw.
func RevealText(p models.Pairing) string {
	text := fmt.Sprintf("🎁 Du bist der Wichtel für %s! Viel Spaß beim Besorgen des Geschenks!", p.RecipientName)
	if p.Wish != "" {
		text += fmt.Sprintf("\nWunsch von %s: %s", p.RecipientName, p.Wish)
	}
	return text
}
