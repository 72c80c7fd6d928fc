package daemon

import (
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
	"github.com/eliteGoblin/focusd/ad_mute/internal/infra"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
)

// newPlayer reads the track from process memory and mutes the audio session.
func newPlayer(target domain.Target, sc usecase.AddressScanner, pm domain.ProcessManager, interval time.Duration, logger *zap.Logger) (domain.Player, error) {
	binder, err := infra.NewAudioBinder()
	if err != nil {
		return nil, err
	}
	return usecase.NewMemoryPlayer(
		target,
		pm,
		infra.NewModuleLocator(),
		infra.NewMemoryOpener(),
		binder,
		sc,
		interval,
		logger,
	), nil
}
