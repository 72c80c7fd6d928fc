// Package domain contains core entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "fmt"

// TrackIdentifier is the short token the player exposes for what is currently
// playing, e.g. "spotify:track:..." or "spotify:ad:...".
// It may be truncated or empty while the player is starting up.
type TrackIdentifier string

// Address is a virtual address inside the target process.
type Address uintptr

// String formats the address as hex.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// ModuleInfo describes a module loaded into the target process.
type ModuleInfo struct {
	Name string
	Base Address
	Size int
}

// ModuleSnapshot is a copy of a loaded module's memory plus its load address.
type ModuleSnapshot struct {
	Base  Address
	Bytes []byte
}

// FsChangeEvent is a raw "something changed under this path" notification.
// A single notification may carry several paths.
type FsChangeEvent struct {
	Paths []string
	Op    string
}

// MuteState is the arbiter's belief about the player's audio output.
type MuteState int

const (
	Unmuted MuteState = iota
	Muted
)

func (s MuteState) String() string {
	switch s {
	case Muted:
		return "muted"
	case Unmuted:
		return "unmuted"
	default:
		return "unknown"
	}
}

// Action is what the arbiter decided to do for one observation.
type Action int

const (
	NoOp Action = iota
	DoMute
	DoUnmute
)

func (a Action) String() string {
	switch a {
	case DoMute:
		return "mute"
	case DoUnmute:
		return "unmute"
	default:
		return "noop"
	}
}

// Target describes the monitored application.
// Built from a policy.TargetPolicy; see policy.ToTarget.
type Target struct {
	ID            string
	Name          string
	ProcessName   string   // Executable name substring, matched case-insensitively
	ModuleName    string   // Module holding the playback indicator (memory backend only)
	LaunchCommand []string // Used when the process is not running
	TrackLength   int      // Bytes read at the resolved address
	AdSentinel    TrackIdentifier
	StateFiles    []string // File names whose changes trigger a re-check
}
