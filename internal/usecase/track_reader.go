package usecase

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// ReadTrack reads the n-byte identifier window at addr.
// Unreadable memory wraps domain.ErrUnreadable; invalid UTF-8 wraps domain.ErrMalformed.
// NUL padding at the end of the window is dropped.
func ReadTrack(mem domain.MemoryReader, addr domain.Address, n int) (domain.TrackIdentifier, error) {
	if mem == nil {
		return "", domain.ErrNotAttached
	}

	data, err := mem.Read(addr, n)
	if err != nil {
		return "", fmt.Errorf("read %d bytes at %s: %w", n, addr, err)
	}
	if len(data) != n {
		return "", fmt.Errorf("short read at %s (%d of %d bytes): %w", addr, len(data), n, domain.ErrUnreadable)
	}

	data = bytes.TrimRight(data, "\x00")
	if !utf8.Valid(data) {
		return "", fmt.Errorf("identifier %q: %w", data, domain.ErrMalformed)
	}
	return domain.TrackIdentifier(data), nil
}
