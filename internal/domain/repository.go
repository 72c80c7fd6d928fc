package domain

import "context"

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern (case-insensitive substring).
	FindByName(pattern string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// Launch starts a detached process from argv.
	Launch(argv []string) error
}

// MemoryReader reads another process's memory.
// This is the only place raw process memory is touched; everything above it
// works on plain byte slices.
type MemoryReader interface {
	// Read returns exactly n bytes at addr, or an error wrapping ErrUnreadable.
	Read(addr Address, n int) ([]byte, error)

	// Snapshot copies a whole module. Unreadable pages are left zeroed.
	Snapshot(module ModuleInfo) (ModuleSnapshot, error)

	// Close releases the process handle.
	Close() error
}

// MemoryOpener opens a read-only view of a process's memory.
type MemoryOpener interface {
	Open(pid int) (MemoryReader, error)
}

// ModuleLocator finds a loaded module by name inside a process.
type ModuleLocator interface {
	// FindModule returns an error wrapping ErrDiscovery if the module is not loaded yet.
	FindModule(pid int, name string) (ModuleInfo, error)
}

// AudioSession is a capability bound to exactly one audio session.
type AudioSession interface {
	// SetMute issues a single platform mute call. Errors wrap ErrPlatformCall.
	SetMute(mute bool) error

	// Mute returns the session's current mute flag.
	Mute() (bool, error)

	// Close releases the session.
	Close() error
}

// AudioBinder matches an audio session to a process.
type AudioBinder interface {
	// Bind returns an error wrapping ErrNotYetAvailable if pid has no session yet.
	Bind(pid int) (AudioSession, error)

	// Close releases platform resources held by the binder.
	Close() error
}

// Muter is what the arbiter needs from a player.
type Muter interface {
	SetMute(ctx context.Context, mute bool) error
}

// Player is the platform-neutral view of the monitored application.
// The engine and the arbiter are written once against this interface.
type Player interface {
	Muter

	// Attach discovers (or launches) the target and prepares it for polling.
	// Blocks, retrying on a fixed interval, until attached or ctx is done.
	Attach(ctx context.Context) error

	// CurrentTrack returns the current identifier.
	// Errors wrap ErrUnreadable (re-attach), ErrMalformed (not an ad) or others (log and skip).
	CurrentTrack(ctx context.Context) (TrackIdentifier, error)

	// Muted reports whether the target is currently silenced.
	// Used after attaching to adopt a mute left in place earlier.
	Muted(ctx context.Context) (bool, error)

	// PID returns the attached process id, or 0.
	PID() int

	// Detach drops the attachment. The next Attach performs full rediscovery.
	Detach() error

	// Close releases every resource. The mute state is left as-is.
	Close() error
}

// EventSource delivers filesystem change notifications without ever blocking the producer.
type EventSource interface {
	// Ready fires when at least one event is queued.
	Ready() <-chan struct{}

	// Drain removes and returns all queued events.
	Drain() []FsChangeEvent

	// Errors reports watcher errors.
	Errors() <-chan error

	// Close stops watching.
	Close() error
}

// ScriptingBridge talks to an application through its scripting interface.
// Used where the player exposes its state directly instead of through memory.
type ScriptingBridge interface {
	// CurrentTrack returns the identifier of the current track.
	// Errors wrap ErrUnreadable if the application is not running.
	CurrentTrack(ctx context.Context) (TrackIdentifier, error)

	// Volume returns the application volume (0-100).
	Volume(ctx context.Context) (int, error)

	// SetVolume sets the application volume (0-100).
	SetVolume(ctx context.Context, volume int) error
}
