package santa

import (
	"errors"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/storage"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDisplayNameRequired  = errors.New("display name required")
	ErrNotFound             = errors.New("group not found")
	ErrAlreadyExists        = errors.New("group already exists")
	ErrAlreadyInGroup       = errors.New("user is already in a group")
	ErrNotInGroup           = errors.New("user is not in a group")
	ErrForbidden            = errors.New("only the group owner or the admin may do this")
	ErrNotAParticipant      = errors.New("user is not a participant of this group")
	ErrPersistence          = errors.New("failed to persist state")
	ErrMembershipConflict   = errors.New("user appears in more than one group")
	ErrInsufficientMembers  = assignment.ErrInsufficientParticipants
	ErrInfeasibleAssignment = assignment.ErrInfeasible
)

// Kind classifies an error for presentation.
type Kind string

const (
	KindValidation               Kind = "VALIDATION"
	KindNotFound                 Kind = "NOT_FOUND"
	KindAlreadyExists            Kind = "ALREADY_EXISTS"
	KindAlreadyInGroup           Kind = "ALREADY_IN_GROUP"
	KindNotInGroup               Kind = "NOT_IN_GROUP"
	KindForbidden                Kind = "FORBIDDEN"
	KindInsufficientParticipants Kind = "INSUFFICIENT_PARTICIPANTS"
	KindInfeasible               Kind = "INFEASIBLE"
	KindPersistence              Kind = "PERSISTENCE_IO"
	KindInternal                 Kind = "INTERNAL"
)

// KindOf maps an error returned by the coordinator to its Kind. A nil error
// has no kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDisplayNameRequired),
		errors.Is(err, ErrNotAParticipant),
		errors.Is(err, assignment.ErrDuplicateParticipant):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrAlreadyInGroup):
		return KindAlreadyInGroup
	case errors.Is(err, ErrNotInGroup):
		return KindNotInGroup
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInsufficientMembers):
		return KindInsufficientParticipants
	case errors.Is(err, ErrInfeasibleAssignment):
		return KindInfeasible
	case errors.Is(err, ErrPersistence),
		errors.Is(err, ErrMembershipConflict),
		errors.Is(err, storage.ErrIO):
		return KindPersistence
	default:
		return KindInternal
	}
}
