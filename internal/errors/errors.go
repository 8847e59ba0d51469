package errors

import "errors"

// Sentinel errors for the realtime core. The split follows one rule:
// failures that would corrupt durable state abort the operation and are
// reported; failures in best-effort live delivery are logged and swallowed.
var (
	// ErrUnauthenticated means no resolvable user identity; the connection
	// or request is refused outright.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means a room or conversation was addressed by a
	// non-participant. The request is rejected with no state change.
	ErrForbidden = errors.New("forbidden")

	// ErrNoSuchMatch means unmatch was called for a pair with no match.
	ErrNoSuchMatch = errors.New("no such match")

	// ErrNoSuchConversation means the conversation id does not exist.
	ErrNoSuchConversation = errors.New("no such conversation")

	// ErrNoSuchReport means the report id does not exist or is not owned
	// by the caller.
	ErrNoSuchReport = errors.New("no such report")

	// ErrSelfInteraction rejects like/dislike/report targeting oneself.
	ErrSelfInteraction = errors.New("cannot interact with yourself")

	// ErrEmptyMessage rejects chat messages with no content.
	ErrEmptyMessage = errors.New("message body is empty")
)

// Is re-exports errors.Is so callers aliasing this package don't need a
// second import of the stdlib package.
func Is(err, target error) bool { return errors.Is(err, target) }
