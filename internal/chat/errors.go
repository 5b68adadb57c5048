// ABOUTME: Rejection taxonomy for chat operations
// ABOUTME: All rejections are connection-local and map to the error wire event

package chat

import "errors"

// ErrUnauthorized is returned when the actor lacks the role required for a
// gated operation (pin, unpin, delete).
var ErrUnauthorized = errors.New("not authorized")

// ErrValidation is returned for malformed input, e.g. an empty message with
// no attachments. Rejected before any persistence attempt.
var ErrValidation = errors.New("invalid message")

// ErrNotJoined is returned when a connection addresses a room it has not
// joined. The membership check precedes persistence.
var ErrNotJoined = errors.New("not a member of this project")

// ErrNotFound is returned when a pin or unpin references a message id that
// does not exist. Delete of an absent id is deliberately NOT an error - see
// Service.Delete.
var ErrNotFound = errors.New("message not found")

// ErrUnknownEmployee is returned when the authenticated user id has no
// directory record. The identity collaborator is the authority; a stale or
// forged id gets nothing.
var ErrUnknownEmployee = errors.New("unknown employee")

// UserMessage returns the text a rejection surfaces on the wire. Anything
// outside the taxonomy is reported generically so store internals never
// leak to clients.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotJoined),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnknownEmployee):
		return err.Error()
	default:
		return "internal error"
	}
}
