package policy

import (
	"strings"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// Classifier decides whether a track identifier denotes an advertisement.
// It is pure and total: empty or partial identifiers are never ads.
type Classifier struct {
	sentinel domain.TrackIdentifier
}

// NewClassifier creates a classifier for the given sentinel.
// An empty sentinel falls back to AdSentinel, as does the zero Classifier.
func NewClassifier(sentinel domain.TrackIdentifier) Classifier {
	if sentinel == "" {
		sentinel = AdSentinel
	}
	return Classifier{sentinel: sentinel}
}

// IsAd reports whether id equals or contains the sentinel.
func (c Classifier) IsAd(id domain.TrackIdentifier) bool {
	if id == "" {
		return false
	}
	sentinel := c.sentinel
	if sentinel == "" {
		sentinel = AdSentinel
	}
	return strings.Contains(string(id), string(sentinel))
}

// IsAd classifies id against the default Spotify sentinel.
func IsAd(id domain.TrackIdentifier) bool {
	return NewClassifier(AdSentinel).IsAd(id)
}
