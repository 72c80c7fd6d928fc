package domain

import "errors"

// Error taxonomy. Implementations wrap these with fmt.Errorf("...: %w", err)
// and callers classify with errors.Is.
var (
	// ErrDiscovery means the target process or module was not found. Retryable.
	ErrDiscovery = errors.New("target not found")

	// ErrUnreadable means the memory handle or address is no longer valid.
	// The engine re-discovers the target when it sees this.
	ErrUnreadable = errors.New("target memory unreadable")

	// ErrMalformed means the identifier read from the target is not valid text.
	// Classified as "not an ad", never propagated further.
	ErrMalformed = errors.New("malformed track identifier")

	// ErrNotYetAvailable means the target has no audio session yet. Retryable.
	ErrNotYetAvailable = errors.New("audio session not yet available")

	// ErrPlatformCall means a mute/unmute call failed. The arbiter keeps its state.
	ErrPlatformCall = errors.New("platform call failed")

	// ErrNotFound means the signature pattern does not occur in a snapshot.
	ErrNotFound = errors.New("signature not found")

	// ErrNotAttached means the player has no live attachment to the target.
	ErrNotAttached = errors.New("player not attached")

	// ErrFatal marks startup resource-acquisition failures that end the process.
	ErrFatal = errors.New("fatal")

	// ErrUnsupportedPlatform means no player backend exists for this OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// IsRetryable reports whether err is one of the errors that are expected
// while the target is still starting up.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDiscovery) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotYetAvailable)
}
