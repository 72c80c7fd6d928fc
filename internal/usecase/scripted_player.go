package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// DefaultRestoreVolume is used on unmute when no level was captured at mute time.
const DefaultRestoreVolume = 100

// ScriptedPlayer drives a target that exposes its state through a scripting
// interface. Muting sets the app volume to zero; unmuting restores exactly
// the level captured when muting.
type ScriptedPlayer struct {
	target   domain.Target
	pm       domain.ProcessManager
	bridge   domain.ScriptingBridge
	interval time.Duration
	logger   *zap.Logger

	pid         int
	savedVolume int
	haveSaved   bool
}

// NewScriptedPlayer creates a scripting-backed player.
func NewScriptedPlayer(
	target domain.Target,
	pm domain.ProcessManager,
	bridge domain.ScriptingBridge,
	interval time.Duration,
	logger *zap.Logger,
) *ScriptedPlayer {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptedPlayer{
		target:   target,
		pm:       pm,
		bridge:   bridge,
		interval: interval,
		logger:   logger,
	}
}

// Attach waits for (or launches) the target process.
func (p *ScriptedPlayer) Attach(ctx context.Context) error {
	if p.pid != 0 {
		return nil
	}
	pid, err := DiscoverTarget(ctx, p.pm, p.target, p.interval, p.logger)
	if err != nil {
		return err
	}
	p.pid = pid
	p.logger.Info("attached to target", zap.String("target", p.target.Name), zap.Int("pid", pid))
	return nil
}

// CurrentTrack asks the target for its current track.
func (p *ScriptedPlayer) CurrentTrack(ctx context.Context) (domain.TrackIdentifier, error) {
	return p.bridge.CurrentTrack(ctx)
}

// SetMute silences or restores the target's volume.
func (p *ScriptedPlayer) SetMute(ctx context.Context, mute bool) error {
	if mute {
		volume, err := p.bridge.Volume(ctx)
		if err != nil {
			return err
		}
		if err := p.bridge.SetVolume(ctx, 0); err != nil {
			return err
		}
		// Still silent from an earlier mute: keep the level captured then.
		if volume == 0 && p.haveSaved {
			return nil
		}
		p.savedVolume, p.haveSaved = volume, true
		return nil
	}

	volume := p.savedVolume
	if !p.haveSaved {
		volume = DefaultRestoreVolume
		p.logger.Warn("no saved volume, restoring default", zap.Int("volume", volume))
	}
	if err := p.bridge.SetVolume(ctx, volume); err != nil {
		return err
	}
	p.haveSaved = false
	return nil
}

// Muted reports whether the volume is still at zero from a mute issued here.
// A zero volume with nothing captured is the user's own setting.
func (p *ScriptedPlayer) Muted(ctx context.Context) (bool, error) {
	volume, err := p.bridge.Volume(ctx)
	if err != nil {
		return false, err
	}
	return volume == 0 && p.haveSaved, nil
}

// PID returns the attached process id, or 0.
func (p *ScriptedPlayer) PID() int {
	return p.pid
}

// Detach forgets the process. A captured volume is kept so an unmute
// after re-attachment still restores it.
func (p *ScriptedPlayer) Detach() error {
	p.pid = 0
	return nil
}

// Close releases nothing; the volume is left as-is.
func (p *ScriptedPlayer) Close() error {
	return p.Detach()
}

// Ensure ScriptedPlayer implements domain.Player.
var _ domain.Player = (*ScriptedPlayer)(nil)
