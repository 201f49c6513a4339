package models

// Snapshot is the complete persisted state of the bot. Stores save and load
// it as one unit.
type Snapshot struct {
	// Groups by name. Only open groups are ever persisted.
	Groups map[string]*Group `json:"groups"`

	// Preferences maps user ID to free-text wish.
	Preferences map[string]string `json:"preferences"`
}

// NewSnapshot returns an empty snapshot with non-nil maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Groups:      make(map[string]*Group),
		Preferences: make(map[string]string),
	}
}

// Normalize replaces nil maps and slices with empty ones so that snapshots
// loaded from different stores compare equal.
func (s *Snapshot) Normalize() *Snapshot {
	if s.Groups == nil {
		s.Groups = make(map[string]*Group)
	}
	if s.Preferences == nil {
		s.Preferences = make(map[string]string)
	}
	for _, g := range s.Groups {
		if g.Participants == nil {
			g.Participants = []Participant{}
		}
		if g.Restrictions == nil {
			g.Restrictions = Restrictions{}
		}
	}
	return s
}
