// README: Sentinel errors shared by the trip engine; the HTTP layer maps them to status codes.
package trip

import "errors"

var (
	// ErrNotFound: no trip with that id, or the caller may not know it exists.
	ErrNotFound = errors.New("trip not found")

	// ErrValidation: malformed input — bad filters, non-positive required
	// payment, negative money or mileage.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden: role/ownership mismatch on a read, edit, or transition.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState: the requested status transition is not legal for the
	// caller's role from the trip's current status.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrBadCursor: the pagination cursor failed to decode, carries an
	// unknown version, or was minted for a different index.
	ErrBadCursor = errors.New("invalid pagination cursor")
)
