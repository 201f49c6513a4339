package models

// Pairing is one giver -> recipient link of a computed assignment. Pairings
// live only until the reveals are dispatched.
type Pairing struct {
	GiverID       string
	GiverName     string
	RecipientID   string
	RecipientName string

	// Wish is the recipient's stored preference, empty if none.
	Wish string
}
