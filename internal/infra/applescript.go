package infra

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

const (
	osascriptPath = "/usr/bin/osascript"

	// notRunningMarker is printed by the guarded scripts instead of launching the app.
	notRunningMarker = "<not running>"

	// DefaultScriptTimeout bounds a single osascript invocation.
	DefaultScriptTimeout = 5 * time.Second
)

// CommandRunner abstracts command execution for testing
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes real system commands
type RealCommandRunner struct{}

// Output executes a command and returns its stdout
func (r *RealCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// AppleScriptBridge implements domain.ScriptingBridge with osascript.
// Every script checks that the app is running first, since `tell application`
// would otherwise launch it.
type AppleScriptBridge struct {
	app     string
	runner  CommandRunner
	timeout time.Duration
}

// NewAppleScriptBridge creates a bridge for the named application.
func NewAppleScriptBridge(app string) *AppleScriptBridge {
	return NewAppleScriptBridgeWithRunner(app, &RealCommandRunner{})
}

// NewAppleScriptBridgeWithRunner creates a bridge with an injectable runner (for testing).
func NewAppleScriptBridgeWithRunner(app string, runner CommandRunner) *AppleScriptBridge {
	return &AppleScriptBridge{app: app, runner: runner, timeout: DefaultScriptTimeout}
}

// CurrentTrack returns the Spotify URI of the current track.
func (b *AppleScriptBridge) CurrentTrack(ctx context.Context) (domain.TrackIdentifier, error) {
	out, err := b.tell(ctx, "return spotify url of current track")
	if err != nil {
		if strings.Contains(err.Error(), notRunningMarker) {
			return "", fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
		}
		return "", err
	}
	return domain.TrackIdentifier(out), nil
}

// Volume returns the application's sound volume.
func (b *AppleScriptBridge) Volume(ctx context.Context) (int, error) {
	out, err := b.tell(ctx, "return sound volume")
	if err != nil {
		return 0, fmt.Errorf("%w: get volume: %v", domain.ErrPlatformCall, err)
	}
	v, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("%w: parse volume %q: %v", domain.ErrPlatformCall, out, err)
	}
	return v, nil
}

// SetVolume sets the application's sound volume, clamped to 0-100.
func (b *AppleScriptBridge) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	if _, err := b.tell(ctx, "set sound volume to "+strconv.Itoa(volume)); err != nil {
		return fmt.Errorf("%w: set volume: %v", domain.ErrPlatformCall, err)
	}
	return nil
}

// tell runs statement inside a guarded tell block and returns trimmed stdout.
func (b *AppleScriptBridge) tell(ctx context.Context, statement string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.runner.Output(ctx, osascriptPath,
		"-e", fmt.Sprintf("if application %q is running then", b.app),
		"-e", fmt.Sprintf("tell application %q to %s", b.app, statement),
		"-e", "else",
		"-e", fmt.Sprintf("return %q", notRunningMarker),
		"-e", "end if",
	)
	if err != nil {
		return "", fmt.Errorf("osascript: %w", err)
	}

	result := strings.TrimSpace(string(out))
	if result == notRunningMarker {
		return "", fmt.Errorf("%s %s", b.app, notRunningMarker)
	}
	return result, nil
}

// Ensure AppleScriptBridge implements domain.ScriptingBridge.
var _ domain.ScriptingBridge = (*AppleScriptBridge)(nil)
