// Package policy describes the monitored application and the pure rules
// applied to what it exposes: which events matter and which tracks are ads.
package policy

import (
	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// DefaultTrackLength is the size of the in-memory identifier window.
const DefaultTrackLength = 10

// TargetPolicy defines the strategy interface for a monitored application.
// Implementations provide app-specific process, module, and file names.
type TargetPolicy interface {
	// ID returns unique identifier (e.g., "spotify").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// ProcessPattern returns the executable name to look for.
	// Matched case-insensitively as a substring.
	ProcessPattern() string

	// ModuleName returns the module that holds the playback indicator.
	ModuleName() string

	// LaunchCommand returns argv used to start the app when it is not running.
	LaunchCommand() []string

	// AdSentinel returns the identifier that marks an advertisement.
	AdSentinel() domain.TrackIdentifier

	// StateFiles returns file names whose changes mean playback state changed.
	StateFiles() []string
}

// ToTarget converts a TargetPolicy to a domain.Target entity.
func ToTarget(tp TargetPolicy) domain.Target {
	return domain.Target{
		ID:            tp.ID(),
		Name:          tp.Name(),
		ProcessName:   tp.ProcessPattern(),
		ModuleName:    tp.ModuleName(),
		LaunchCommand: tp.LaunchCommand(),
		TrackLength:   DefaultTrackLength,
		AdSentinel:    tp.AdSentinel(),
		StateFiles:    tp.StateFiles(),
	}
}
