package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// AddressScanner resolves the track identifier address from a module snapshot.
// Implementation: scanner.Scanner.
type AddressScanner interface {
	Scan(snap domain.ModuleSnapshot) (domain.Address, error)
}

// candidateLister is optionally implemented by scanners that can report every match.
type candidateLister interface {
	Candidates(snap domain.ModuleSnapshot) []domain.Address
}

// MemoryPlayer reads playback state straight out of the target's memory and
// mutes it through its audio session.
//
// Attachment state (pid, memory handle, resolved address, audio session) is
// owned here and only touched from the engine goroutine.
type MemoryPlayer struct {
	target   domain.Target
	pm       domain.ProcessManager
	modules  domain.ModuleLocator
	opener   domain.MemoryOpener
	binder   domain.AudioBinder
	scanner  AddressScanner
	interval time.Duration
	logger   *zap.Logger

	pid      int
	mem      domain.MemoryReader
	address  domain.Address
	resolved bool
	session  domain.AudioSession
}

// NewMemoryPlayer creates a memory-backed player.
func NewMemoryPlayer(
	target domain.Target,
	pm domain.ProcessManager,
	modules domain.ModuleLocator,
	opener domain.MemoryOpener,
	binder domain.AudioBinder,
	scanner AddressScanner,
	interval time.Duration,
	logger *zap.Logger,
) *MemoryPlayer {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryPlayer{
		target:   target,
		pm:       pm,
		modules:  modules,
		opener:   opener,
		binder:   binder,
		scanner:  scanner,
		interval: interval,
		logger:   logger,
	}
}

// Attach runs the startup sequence: discover or launch the process, locate
// the module, resolve the identifier address, then wait for an audio session.
// Each step retries on a fixed interval. On error nothing stays acquired.
func (p *MemoryPlayer) Attach(ctx context.Context) (err error) {
	if p.attached() {
		return nil
	}
	defer func() {
		if err != nil {
			_ = p.Detach()
		}
	}()

	p.pid, err = DiscoverTarget(ctx, p.pm, p.target, p.interval, p.logger)
	if err != nil {
		return err
	}
	log := p.logger.With(zap.Int("pid", p.pid))

	var module domain.ModuleInfo
	err = Retry(ctx, p.interval, log, "module "+p.target.ModuleName, func() error {
		var findErr error
		module, findErr = p.modules.FindModule(p.pid, p.target.ModuleName)
		return findErr
	})
	if err != nil {
		return err
	}

	p.mem, err = p.opener.Open(p.pid)
	if err != nil {
		return fmt.Errorf("open process %d: %w", p.pid, err)
	}

	// The module may not be fully initialised yet; scan a fresh snapshot each time.
	err = Retry(ctx, p.interval, log, "track signature", func() error {
		snap, snapErr := p.mem.Snapshot(module)
		if snapErr != nil {
			return snapErr
		}
		addr, scanErr := p.scanner.Scan(snap)
		if scanErr != nil {
			return scanErr
		}
		p.address, p.resolved = addr, true
		if cl, ok := p.scanner.(candidateLister); ok && log.Core().Enabled(zap.DebugLevel) {
			log.Debug("signature candidates", zap.Int("count", len(cl.Candidates(snap))))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("resolved track address",
		zap.String("module", module.Name),
		zap.Stringer("base", module.Base),
		zap.Stringer("address", p.address))

	// No session exists until the target starts producing sound.
	err = Retry(ctx, p.interval, log, "audio session", func() error {
		session, bindErr := p.binder.Bind(p.pid)
		if bindErr != nil {
			return bindErr
		}
		p.session = session
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("attached to target", zap.String("target", p.target.Name))
	return nil
}

// CurrentTrack reads the identifier at the resolved address.
func (p *MemoryPlayer) CurrentTrack(ctx context.Context) (domain.TrackIdentifier, error) {
	if !p.resolved || p.mem == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnreadable, domain.ErrNotAttached)
	}
	return ReadTrack(p.mem, p.address, p.target.TrackLength)
}

// SetMute issues one mute call against the bound session.
func (p *MemoryPlayer) SetMute(ctx context.Context, mute bool) error {
	if p.session == nil {
		return fmt.Errorf("%w: %w", domain.ErrPlatformCall, domain.ErrNotAttached)
	}
	return p.session.SetMute(mute)
}

// Muted reads the bound session's mute flag.
func (p *MemoryPlayer) Muted(ctx context.Context) (bool, error) {
	if p.session == nil {
		return false, fmt.Errorf("%w: %w", domain.ErrPlatformCall, domain.ErrNotAttached)
	}
	return p.session.Mute()
}

// PID returns the attached process id, or 0.
func (p *MemoryPlayer) PID() int {
	if !p.attached() {
		return 0
	}
	return p.pid
}

// Address returns the resolved identifier address and whether it is valid.
func (p *MemoryPlayer) Address() (domain.Address, bool) {
	return p.address, p.resolved
}

// Detach invalidates the address and releases the memory handle and session.
func (p *MemoryPlayer) Detach() error {
	var err error
	if p.mem != nil {
		err = multierr.Append(err, p.mem.Close())
	}
	if p.session != nil {
		err = multierr.Append(err, p.session.Close())
	}
	p.pid, p.mem, p.session = 0, nil, nil
	p.address, p.resolved = 0, false
	return err
}

// Close detaches and releases the binder. The session's mute flag is left as-is.
func (p *MemoryPlayer) Close() error {
	return multierr.Combine(p.Detach(), p.binder.Close())
}

func (p *MemoryPlayer) attached() bool {
	return p.mem != nil && p.resolved && p.session != nil
}

// Ensure MemoryPlayer implements domain.Player.
var _ domain.Player = (*MemoryPlayer)(nil)
