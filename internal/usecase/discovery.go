package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// DefaultRetryInterval is how long discovery, scanning and binding wait between attempts.
const DefaultRetryInterval = time.Second

// Retry calls fn until it succeeds, fails with a non-retryable error, or ctx is done.
// Every failed attempt is followed by a sleep of interval.
func Retry(ctx context.Context, interval time.Duration, logger *zap.Logger, what string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return err
		}

		if attempt == 1 {
			logger.Info("waiting for "+what, zap.Error(err))
		} else {
			logger.Debug("still waiting for "+what, zap.Int("attempt", attempt), zap.Error(err))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// FindTarget returns the oldest process matching the target's executable name.
func FindTarget(pm domain.ProcessManager, target domain.Target) (int, error) {
	pids, err := pm.FindByName(target.ProcessName)
	if err != nil {
		return 0, fmt.Errorf("enumerate processes: %v: %w", err, domain.ErrDiscovery)
	}
	if len(pids) == 0 {
		return 0, fmt.Errorf("no %s process: %w", target.ProcessName, domain.ErrDiscovery)
	}
	return pids[0], nil
}

// DiscoverTarget finds the target process, launching it once if it is absent,
// and polls every interval until it exists.
func DiscoverTarget(ctx context.Context, pm domain.ProcessManager, target domain.Target, interval time.Duration, logger *zap.Logger) (int, error) {
	pid, err := FindTarget(pm, target)
	if err == nil {
		return pid, nil
	}

	if len(target.LaunchCommand) > 0 {
		logger.Info("target not running, launching",
			zap.String("target", target.Name),
			zap.Strings("command", target.LaunchCommand))
		if err := pm.Launch(target.LaunchCommand); err != nil {
			// Keep polling; the user may start it by hand.
			logger.Warn("failed to launch target", zap.Error(err))
		}
	}

	err = Retry(ctx, interval, logger, target.Name+" process", func() error {
		var findErr error
		pid, findErr = FindTarget(pm, target)
		return findErr
	})
	if err != nil {
		return 0, err
	}
	return pid, nil
}
