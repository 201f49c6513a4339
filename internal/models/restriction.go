package models

import "slices"

// Restrictions maps a giver's user ID to the sorted set of recipient IDs the
// giver must not draw. Exclusions accumulate; adding one never removes another.
type Restrictions map[string][]string

// Add records that giverID must not draw recipientID. It reports whether the
// pair was new.
func (r Restrictions) Add(giverID, recipientID string) bool {
	forbidden := r[giverID]
	i, found := slices.BinarySearch(forbidden, recipientID)
	if found {
		return false
	}
	r[giverID] = slices.Insert(forbidden, i, recipientID)
	return true
}

// Forbids reports whether giverID is excluded from drawing recipientID.
func (r Restrictions) Forbids(giverID, recipientID string) bool {
	_, found := slices.BinarySearch(r[giverID], recipientID)
	return found
}

// Forget removes userID both as a giver and as a forbidden recipient.
func (r Restrictions) Forget(userID string) {
	delete(r, userID)
	for giver, forbidden := range r {
		if i, found := slices.BinarySearch(forbidden, userID); found {
			forbidden = slices.Delete(forbidden, i, i+1)
			if len(forbidden) == 0 {
				delete(r, giver)
				continue
			}
			r[giver] = forbidden
		}
	}
}

// Count returns the number of giver/recipient pairs.
func (r Restrictions) Count() int {
	n := 0
	for _, forbidden := range r {
		n += len(forbidden)
	}
	return n
}

// Clone returns a deep copy. A nil receiver yields an empty, non-nil map.
func (r Restrictions) Clone() Restrictions {
	clone := make(Restrictions, len(r))
	for giver, forbidden := range r {
		clone[giver] = slices.Clone(forbidden)
	}
	return clone
}
