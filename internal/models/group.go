package models

import "strings"

// GroupState is the lifecycle state of a group.
type GroupState string

const (
	// GroupOpen accepts joins, leaves and restrictions.
	GroupOpen GroupState = "OPEN"

	// GroupAssigned is terminal: the draw was made and the group is about to
	// be removed.
	GroupAssigned GroupState = "ASSIGNED"
)

// Group represents one Secret Santa exchange.
type Group struct {
	// Name is the unique key of the group (e.g., "Xmas2026").
	Name string `json:"name"`

	// OwnerID is the chat user ID of the creator. Only the owner (or the
	// configured admin) may delete, reset, restrict or assign.
	OwnerID string `json:"owner_id"`

	// Participants in join order.
	Participants []Participant `json:"participants"`

	// Restrictions maps giver ID to the recipient IDs they must not draw.
	Restrictions Restrictions `json:"restrictions"`

	// State is OPEN until an assignment starts.
	State GroupState `json:"state"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// Participant is a member of a group.
type Participant struct {
	// UserID is the stable chat identity of the participant.
	UserID string `json:"user_id"`

	// DisplayName is shown to other participants and used in reveals.
	DisplayName string `json:"display_name"`

	// JoinedAt is the Unix timestamp of the join.
	JoinedAt int64 `json:"joined_at"`
}

// NewGroup returns an empty open group.
func NewGroup(name, ownerID string, createdAt int64) *Group {
	return &Group{
		Name:         name,
		OwnerID:      ownerID,
		Participants: []Participant{},
		Restrictions: Restrictions{},
		State:        GroupOpen,
		CreatedAt:    createdAt,
	}
}

// Participant returns the participant with the given user ID.
func (g *Group) Participant(userID string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// HasParticipant reports whether userID is a member of the group.
func (g *Group) HasParticipant(userID string) bool {
	_, ok := g.Participant(userID)
	return ok
}

// ParticipantIDs returns the member IDs in join order.
func (g *Group) ParticipantIDs() []string {
	ids := make([]string, len(g.Participants))
	for i, p := range g.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// FindByName returns all participants whose display name matches name,
// ignoring case.
func (g *Group) FindByName(name string) []Participant {
	var matches []Participant
	for _, p := range g.Participants {
		if strings.EqualFold(p.DisplayName, name) {
			matches = append(matches, p)
		}
	}
	return matches
}

// RemoveParticipant drops userID from the group and from every restriction
// that mentions it. It reports whether the user was a member.
func (g *Group) RemoveParticipant(userID string) bool {
	for i, p := range g.Participants {
		if p.UserID == userID {
			g.Participants = append(g.Participants[:i], g.Participants[i+1:]...)
			g.Restrictions.Forget(userID)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	clone := *g
	clone.Participants = append([]Participant{}, g.Participants...)
	clone.Restrictions = g.Restrictions.Clone()
	return &clone
}
