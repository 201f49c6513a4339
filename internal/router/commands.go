package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/models"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/santa"
)

func (r *Router) start(context.Context, *request) (string, error) {
	return msgWelcome, nil
}

func (r *Router) help(context.Context, *request) (string, error) {
	return msgHelp, nil
}

func (r *Router) create(ctx context.Context, req *request, group string) (string, error) {
	_, err := r.coord.CreateGroup(ctx, group, req.actor)
	return done(fmt.Sprintf(msgCreated, group, group), err)
}

func (r *Router) delete(ctx context.Context, req *request, group string) (string, error) {
	err := r.coord.DeleteGroup(ctx, group, req.actor)
	return done(fmt.Sprintf(msgDeleted, group), err)
}

// join uses the words after the group name as display name, falling back to
// the chat profile name.
func (r *Router) join(ctx context.Context, req *request, group string) (string, error) {
	name := strings.TrimSpace(strings.Join(req.args[1:], " "))
	if name == "" {
		name = strings.TrimSpace(req.actor.DisplayName)
	}
	return r.joinAs(ctx, req, group, name)
}

func (r *Router) joinAs(ctx context.Context, req *request, group, name string) (string, error) {
	if name != "" {
		if err := validateDisplayName(name); err != nil {
			r.conv.awaitDisplayName(req.actor.ID, group)
			return "", err
		}
	}

	joined, err := r.coord.Join(ctx, req.actor, group, name)
	if errors.Is(err, santa.ErrDisplayNameRequired) {
		r.conv.awaitDisplayName(req.actor.ID, group)
		return msgAskDisplayName, nil
	}
	return done(fmt.Sprintf(msgJoined, joined.Name, name), err)
}

func (r *Router) leave(ctx context.Context, req *request) (string, error) {
	res, err := r.coord.Leave(ctx, req.actor.ID)
	text := fmt.Sprintf(msgLeft, res.Group)
	if res.GroupDeleted {
		text = fmt.Sprintf(msgLeftDeleted, res.Group)
	}
	return done(text, err)
}

func (r *Router) status(_ context.Context, req *request) (string, error) {
	var lines []string
	if name, ok := r.coord.MembershipOf(req.actor.ID); ok {
		group, err := r.coord.GetGroup(name)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf(msgStatus, group.Name, len(group.Participants)))
		if group.OwnerID == req.actor.ID {
			lines = append(lines, msgStatusOwner)
		}
	} else {
		lines = append(lines, msgStatusNone)
	}
	if wish, ok := r.coord.Preference(req.actor.ID); ok {
		lines = append(lines, fmt.Sprintf(msgStatusWish, wish))
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) list(_ context.Context, _ *request, name string) (string, error) {
	group, err := r.coord.GetGroup(name)
	if err != nil {
		return "", err
	}
	if len(group.Participants) == 0 {
		return msgListEmpty, nil
	}
	lines := lo.Map(group.Participants, func(p models.Participant, _ int) string {
		return "- " + p.DisplayName
	})
	return fmt.Sprintf(msgListHeader, group.Name) + "\n" + strings.Join(lines, "\n"), nil
}

func (r *Router) restrict(ctx context.Context, req *request) (string, error) {
	if len(req.args) != 3 {
		return "", invalidf(nil, msgRestrictUsage)
	}
	name := req.args[0]
	if err := validateGroupName(name); err != nil {
		return "", err
	}
	group, err := r.coord.GetGroup(name)
	if err != nil {
		return "", err
	}
	giver, err := resolveParticipant(group, req.args[1])
	if err != nil {
		return "", err
	}
	recipient, err := resolveParticipant(group, req.args[2])
	if err != nil {
		return "", err
	}
	if giver.UserID == recipient.UserID {
		return "", invalidf(nil, msgSameUser)
	}

	added, err := r.coord.AddRestriction(ctx, name, req.actor, giver.UserID, recipient.UserID)
	text := fmt.Sprintf(msgRestricted, giver.DisplayName, recipient.DisplayName)
	if err == nil && !added {
		text = msgRestrictedDup
	}
	return done(text, err)
}

// resolveParticipant finds a participant by user ID or, ignoring case, by a
// display name that is unique within the group.
func resolveParticipant(group models.Group, ref string) (models.Participant, error) {
	if p, ok := group.Participant(ref); ok {
		return p, nil
	}
	matches := group.FindByName(ref)
	switch len(matches) {
	case 0:
		return models.Participant{}, invalidf(nil, msgUnknownName, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Participant{}, invalidf(nil, msgAmbiguousName, ref)
	}
}

func (r *Router) wish(ctx context.Context, req *request) (string, error) {
	wish := strings.TrimSpace(strings.Join(req.args, " "))
	if wish == "" {
		if current, ok := r.coord.Preference(req.actor.ID); ok {
			return fmt.Sprintf(msgStatusWish, current), nil
		}
		return "", invalidf(nil, msgWishUsage)
	}
	if err := validateWish(wish); err != nil {
		return "", err
	}
	return done(msgWishStored, r.coord.SetPreference(ctx, req.actor.ID, wish))
}

func (r *Router) assign(ctx context.Context, req *request, group string) (string, error) {
	mode := assignment.ModeDerangement
	if len(req.args) > 1 {
		parsed, err := assignment.ParseMode(req.args[1])
		if err != nil {
			return "", invalidf(nil, msgInvalidMode, req.args[1])
		}
		mode = parsed
	}

	res, err := r.coord.Assign(ctx, santa.AssignRequest{Group: group, Actor: req.actor, Mode: mode}, req.sender)
	if res == nil {
		return "", err
	}

	text := fmt.Sprintf(msgAssigned, res.Group)
	if res.Mode == assignment.ModeCircular {
		text = fmt.Sprintf(msgAssignedCircle, res.Group)
	}
	if !res.Report.OK() {
		names := lo.FilterMap(res.Pairings, func(p models.Pairing, _ int) (string, bool) {
			_, failed := lo.Find(res.Report.Failed, func(f notify.Failure) bool { return f.UserID == p.GiverID })
			return p.GiverName, failed
		})
		text += "\n" + fmt.Sprintf(msgNotifyFailed, strings.Join(names, ", "))
	}
	return done(text, err)
}

func (r *Router) reset(ctx context.Context, req *request, group string) (string, error) {
	removed, err := r.coord.ResetGroup(ctx, group, req.actor)
	return done(fmt.Sprintf(msgReset, group, removed), err)
}

func (r *Router) groups(_ context.Context, req *request) (string, error) {
	groups, err := r.coord.ListGroups(req.actor)
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return msgGroupsEmpty, nil
	}
	lines := lo.Map(groups, func(g models.Group, _ int) string {
		return fmt.Sprintf(msgGroupsLine, g.Name, len(g.Participants))
	})
	return msgGroupsHeader + "\n" + strings.Join(lines, "\n"), nil
}
