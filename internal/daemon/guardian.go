package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// GuardianConfig holds guardian configuration.
type GuardianConfig struct {
	CheckInterval time.Duration // How often to check the target process
}

// DefaultGuardianConfig returns default guardian configuration.
func DefaultGuardianConfig() GuardianConfig {
	return GuardianConfig{
		CheckInterval: 2 * time.Second,
	}
}

// Guardian watches the attached target process and reports when it exits.
// It never touches engine state; it only closes a channel.
type Guardian struct {
	config         GuardianConfig
	processManager domain.ProcessManager
	logger         *zap.Logger
}

// NewGuardian creates a new guardian.
func NewGuardian(config GuardianConfig, pm domain.ProcessManager, logger *zap.Logger) *Guardian {
	return &Guardian{
		config:         config,
		processManager: pm,
		logger:         logger,
	}
}

// Watch polls pid until it stops running, then closes the returned channel.
// A pid <= 0 is never watched and the channel never closes.
// The goroutine exits when ctx is canceled.
func (g *Guardian) Watch(ctx context.Context, pid int) <-chan struct{} {
	lost := make(chan struct{})
	if pid <= 0 {
		return lost
	}

	go func() {
		ticker := time.NewTicker(g.config.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				if !g.processManager.IsRunning(pid) {
					g.logger.Info("target process gone", zap.Int("pid", pid))
					close(lost)
					return
				}
			}
		}
	}()

	return lost
}
