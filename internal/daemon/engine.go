// Package daemon implements the engine loop that keeps the player muted during ads.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
	"github.com/eliteGoblin/focusd/ad_mute/internal/policy"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
)

// EngineConfig holds engine configuration.
type EngineConfig struct {
	SettleDelay   time.Duration // Pause before unmuting (default 500ms)
	RetryInterval time.Duration // How long to wait between attach attempts
	PollInterval  time.Duration // Re-check without a file event; 0 disables
}

// DefaultEngineConfig returns default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SettleDelay:   usecase.DefaultSettleDelay,
		RetryInterval: usecase.DefaultRetryInterval,
		PollInterval:  0, // Event-driven only
	}
}

// Engine drives the arbiter from file events.
// Everything below Run executes on one goroutine; the event source and the
// guardian only signal it.
type Engine struct {
	config     EngineConfig
	player     domain.Player
	events     domain.EventSource
	filter     policy.EventFilter
	classifier policy.Classifier
	arbiter    *usecase.Arbiter
	guardian   *Guardian
	logger     *zap.Logger

	stopGuardian context.CancelFunc
	lost         <-chan struct{}
}

// NewEngine creates a new engine.
func NewEngine(
	config EngineConfig,
	player domain.Player,
	events domain.EventSource,
	filter policy.EventFilter,
	classifier policy.Classifier,
	guardian *Guardian,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config:     config,
		player:     player,
		events:     events,
		filter:     filter,
		classifier: classifier,
		arbiter:    usecase.NewArbiter(player, config.SettleDelay, logger),
		guardian:   guardian,
		logger:     logger,
	}
}

// State returns the arbiter's current mute state.
func (e *Engine) State() domain.MuteState {
	return e.arbiter.State()
}

// Run attaches to the target and processes events until ctx is canceled.
// On cancellation no further mute calls are made and the last state is left as-is.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started")

	if err := e.attach(ctx, 0); err != nil {
		return err
	}
	defer e.unwatchTarget()

	// Check immediately so an ad already playing at startup is caught.
	e.tick(ctx)

	var poll <-chan time.Time
	if e.config.PollInterval > 0 {
		ticker := time.NewTicker(e.config.PollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	watchErrors := e.events.Errors()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", zap.Stringer("state", e.arbiter.State()))
			return ctx.Err()

		case <-e.events.Ready():
			// Bursts collapse into one check; the arbiter absorbs duplicates anyway.
			batch := e.events.Drain()
			if e.filter.AnyRelevant(batch) {
				e.tick(ctx)
			}

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			e.logger.Warn("file watcher error", zap.Error(err))

		case <-e.lost:
			e.logger.Info("target process exited, re-attaching")
			if err := e.reattach(ctx); err != nil {
				continue
			}
			e.tick(ctx)

		case <-poll:
			e.tick(ctx)
		}
	}
}

// tick runs one check, re-attaching at most once if the target went away.
func (e *Engine) tick(ctx context.Context) {
	if !e.check(ctx) {
		return
	}
	if err := e.reattach(ctx); err != nil {
		return
	}
	e.check(ctx)
}

// check reads, classifies and feeds the arbiter.
// Returns true when the target must be re-attached.
func (e *Engine) check(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	id, err := e.player.CurrentTrack(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMalformed):
		e.logger.Debug("malformed track identifier, treating as not an ad", zap.Error(err))
		id = ""
	case errors.Is(err, domain.ErrUnreadable):
		e.logger.Warn("target unreadable", zap.Error(err))
		return true
	default:
		e.logger.Warn("failed to read current track", zap.Error(err))
		return false
	}

	isAd := e.classifier.IsAd(id)
	action, err := e.arbiter.Observe(ctx, isAd)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("mute transition failed, will retry on next event",
				zap.Stringer("action", action),
				zap.Error(err))
		}
		return false
	}

	if action != domain.NoOp {
		e.logger.Info("ad state changed",
			zap.String("track", string(id)),
			zap.Bool("ad", isAd),
			zap.Stringer("action", action))
	} else {
		e.logger.Debug("checked track", zap.String("track", string(id)), zap.Bool("ad", isAd))
	}
	return false
}

// attach blocks until the player is attached or ctx is done, then adopts the
// target's mute flag. prevPID is the instance attached before, or 0.
func (e *Engine) attach(ctx context.Context, prevPID int) error {
	for {
		err := e.player.Attach(ctx)
		if err == nil {
			e.watchTarget(ctx)
			e.syncMuteState(ctx, prevPID)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.logger.Warn("failed to attach to target, retrying",
			zap.Duration("retry_in", e.config.RetryInterval),
			zap.Error(err))
		if detachErr := e.player.Detach(); detachErr != nil {
			e.logger.Debug("detach after failed attach", zap.Error(detachErr))
		}

		timer := time.NewTimer(e.config.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reattach drops the current attachment and performs full rediscovery.
func (e *Engine) reattach(ctx context.Context) error {
	prevPID := e.player.PID()
	e.unwatchTarget()
	if err := e.player.Detach(); err != nil {
		e.logger.Debug("detach failed", zap.Error(err))
	}
	return e.attach(ctx, prevPID)
}

// syncMuteState aligns the arbiter with the target's real mute flag, so a
// mute left on a session (or a volume left at zero) is undone by the next
// non-ad check. If the flag cannot be read, the state is kept for the same
// process and reset for a new one.
func (e *Engine) syncMuteState(ctx context.Context, prevPID int) {
	pid := e.player.PID()
	muted, err := e.player.Muted(ctx)
	if err != nil {
		if pid != 0 && pid == prevPID {
			e.logger.Warn("cannot read mute state, keeping previous state",
				zap.Int("pid", pid),
				zap.Stringer("state", e.arbiter.State()),
				zap.Error(err))
			return
		}
		e.logger.Warn("cannot read mute state, assuming unmuted", zap.Int("pid", pid), zap.Error(err))
		e.arbiter.Reset()
		return
	}

	before := e.arbiter.State()
	e.arbiter.Sync(muted)
	if after := e.arbiter.State(); after != before {
		e.logger.Info("adopted target mute state",
			zap.Int("pid", pid),
			zap.Stringer("from", before),
			zap.Stringer("to", after))
	}
}

func (e *Engine) watchTarget(ctx context.Context) {
	e.unwatchTarget()
	if e.guardian == nil {
		return
	}
	gctx, cancel := context.WithCancel(ctx)
	e.stopGuardian = cancel
	e.lost = e.guardian.Watch(gctx, e.player.PID())
}

func (e *Engine) unwatchTarget() {
	if e.stopGuardian != nil {
		e.stopGuardian()
		e.stopGuardian = nil
	}
	e.lost = nil
}
