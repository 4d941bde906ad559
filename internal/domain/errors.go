package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the services return wraps exactly one of these so
// the transport layer can map it to a status code.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

var (
	// ErrDilemmaNotFound is returned for unknown or inactive dilemmas.
	ErrDilemmaNotFound = fmt.Errorf("dilemma %w", ErrNotFound)
	// ErrUserNotFound is returned when a client UUID has never been seen.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrDecisionNotFound is returned by repositories when no decision exists for a user and dilemma.
	ErrDecisionNotFound = fmt.Errorf("decision %w", ErrNotFound)

	// ErrInvalidChoice indicates a letter outside the dilemma's option range.
	ErrInvalidChoice = fmt.Errorf("%w: invalid choice", ErrValidation)
	// ErrInvalidClientUUID indicates a malformed client identifier.
	ErrInvalidClientUUID = fmt.Errorf("%w: clientUuid must be a valid UUID", ErrValidation)
	// ErrInitialChoiceRequired is returned when a final choice arrives before an initial one.
	ErrInitialChoiceRequired = fmt.Errorf("%w: initial choice required first", ErrValidation)
	// ErrInvalidDilemma indicates a malformed dilemma definition or update.
	ErrInvalidDilemma = fmt.Errorf("%w: invalid dilemma", ErrValidation)

	// ErrAlreadyParticipated is returned when a user already has a decision for a dilemma.
	ErrAlreadyParticipated = fmt.Errorf("%w: already participated in this dilemma", ErrConflict)
	// ErrAlreadyFinalized is returned when the final choice has already been recorded.
	ErrAlreadyFinalized = fmt.Errorf("%w: final choice already recorded", ErrConflict)
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// KindOf reports the kind wrapped by err.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
