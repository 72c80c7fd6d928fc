// Package usecase contains application logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// DefaultSettleDelay is the pause before unmuting, so trailing ad audio is not heard.
const DefaultSettleDelay = 500 * time.Millisecond

// Step is the arbiter's transition function.
// Only an edge produces an action; repeated observations are NoOp.
func Step(state domain.MuteState, isAd bool) (domain.MuteState, domain.Action) {
	switch {
	case state == domain.Unmuted && isAd:
		return domain.Muted, domain.DoMute
	case state == domain.Muted && !isAd:
		return domain.Unmuted, domain.DoUnmute
	default:
		return state, domain.NoOp
	}
}

// Arbiter owns the mute state and turns classifications into mute calls.
// It is driven from a single goroutine and does no locking.
type Arbiter struct {
	state  domain.MuteState
	muter  domain.Muter
	settle time.Duration
	logger *zap.Logger
}

// NewArbiter creates an arbiter in the Unmuted state.
func NewArbiter(muter domain.Muter, settle time.Duration, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arbiter{
		state:  domain.Unmuted,
		muter:  muter,
		settle: settle,
		logger: logger,
	}
}

// State returns the current mute state.
func (a *Arbiter) State() domain.MuteState {
	return a.state
}

// Reset puts the arbiter back to Unmuted without issuing any call.
// Used when a new process instance's mute flag cannot be read.
func (a *Arbiter) Reset() {
	a.state = domain.Unmuted
}

// Sync adopts the platform's mute flag without issuing any call.
func (a *Arbiter) Sync(muted bool) {
	a.state = domain.Unmuted
	if muted {
		a.state = domain.Muted
	}
}

// Observe feeds one classification to the arbiter.
// State only advances when the mute call succeeds; on failure the error wraps
// domain.ErrPlatformCall and the same transition is attempted on the next observation.
func (a *Arbiter) Observe(ctx context.Context, isAd bool) (domain.Action, error) {
	next, action := Step(a.state, isAd)
	if action == domain.NoOp {
		return action, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.NoOp, err
	}

	if action == domain.DoUnmute && a.settle > 0 {
		timer := time.NewTimer(a.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.NoOp, ctx.Err()
		case <-timer.C:
		}
	}

	if err := a.muter.SetMute(ctx, action == domain.DoMute); err != nil {
		a.logger.Warn("mute call failed, state unchanged",
			zap.Stringer("action", action),
			zap.Stringer("state", a.state),
			zap.Error(err))
		return action, fmt.Errorf("%s: %w", action, wrapPlatform(err))
	}

	a.logger.Info("mute state changed",
		zap.Stringer("from", a.state),
		zap.Stringer("to", next))
	a.state = next
	return action, nil
}

func wrapPlatform(err error) error {
	if errors.Is(err, domain.ErrPlatformCall) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPlatformCall, err)
}
