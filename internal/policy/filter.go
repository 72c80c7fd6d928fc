package policy

import (
	"path/filepath"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// EventFilter keeps only notifications that touch one of a fixed set of file names.
type EventFilter struct {
	names map[string]struct{}
}

// NewEventFilter builds a filter from an allow-list of base file names.
func NewEventFilter(names []string) EventFilter {
	f := EventFilter{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.names[n] = struct{}{}
	}
	return f
}

// IsRelevant reports whether any path carried by ev has an allow-listed file name.
func (f EventFilter) IsRelevant(ev domain.FsChangeEvent) bool {
	for _, p := range ev.Paths {
		if _, ok := f.names[filepath.Base(p)]; ok {
			return true
		}
	}
	return false
}

// AnyRelevant reports whether at least one event in the batch is relevant.
func (f EventFilter) AnyRelevant(events []domain.FsChangeEvent) bool {
	for _, ev := range events {
		if f.IsRelevant(ev) {
			return true
		}
	}
	return false
}

// IsRelevant filters ev against the Spotify state files.
func IsRelevant(ev domain.FsChangeEvent) bool {
	return NewEventFilter(NewSpotifyPolicy().StateFiles()).IsRelevant(ev)
}
