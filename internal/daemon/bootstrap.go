package daemon

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/config"
	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
	"github.com/eliteGoblin/focusd/ad_mute/internal/infra"
	"github.com/eliteGoblin/focusd/ad_mute/internal/policy"
	"github.com/eliteGoblin/focusd/ad_mute/internal/scanner"
)

// BuildTarget describes the configured app on this OS with overrides applied.
func BuildTarget(cfg config.Config) (domain.Target, error) {
	tp, err := policy.NewRegistry().Get(cfg.Target)
	if err != nil {
		return domain.Target{}, fmt.Errorf("%w: %v", domain.ErrFatal, err)
	}
	target := policy.ToTarget(tp)
	if cfg.TrackLength > 0 {
		target.TrackLength = cfg.TrackLength
	}
	if cfg.AdSentinel != "" {
		target.AdSentinel = domain.TrackIdentifier(cfg.AdSentinel)
	}
	return target, nil
}

// BuildPlayer creates the player backend for this OS.
func BuildPlayer(cfg config.Config, target domain.Target, pm domain.ProcessManager, logger *zap.Logger) (domain.Player, error) {
	sc, err := scanner.New(cfg.Signature.Pattern, cfg.Signature.Correction)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", domain.ErrFatal, err)
	}

	player, err := newPlayer(target, sc, pm, cfg.RetryInterval.Std(), logger)
	if err != nil {
		if errors.Is(err, domain.ErrFatal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFatal, err)
	}
	return player, nil
}

// ResolveUsersDir returns the configured data dir, or the one found on disk.
func ResolveUsersDir(cfg config.Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	return infra.NewDataDirResolver(runtime.GOOS).Resolve()
}

// Bootstrap wires the engine from configuration.
// Errors wrap domain.ErrFatal. The returned cleanup releases the watcher and
// the player; it never changes the mute state.
func Bootstrap(cfg config.Config, logger *zap.Logger) (*Engine, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target, err := BuildTarget(cfg)
	if err != nil {
		return nil, nil, err
	}

	usersDir, err := ResolveUsersDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := infra.AccountDirs(usersDir, cfg.User)
	if err != nil {
		return nil, nil, err
	}
	if len(accounts) == 0 {
		logger.Warn("no Spotify account directories yet, waiting for one to appear",
			zap.String("users_dir", usersDir),
			zap.String("user", cfg.User))
	}

	watcher, err := infra.NewFSWatcher(usersDir, accounts, cfg.User, logger)
	if err != nil {
		return nil, nil, err
	}

	pm := infra.NewProcessManager()
	player, err := BuildPlayer(cfg, target, pm, logger)
	if err != nil {
		return nil, nil, multierr.Append(err, watcher.Close())
	}

	guardian := NewGuardian(GuardianConfig{CheckInterval: cfg.LivenessInterval.Std()}, pm, logger)
	engine := NewEngine(
		EngineConfig{
			SettleDelay:   cfg.SettleDelay.Std(),
			RetryInterval: cfg.RetryInterval.Std(),
			PollInterval:  cfg.PollInterval.Std(),
		},
		player,
		watcher,
		policy.NewEventFilter(target.StateFiles),
		policy.NewClassifier(target.AdSentinel),
		guardian,
		logger,
	)

	cleanup := func() error {
		return multierr.Combine(watcher.Close(), player.Close())
	}
	return engine, cleanup, nil
}
