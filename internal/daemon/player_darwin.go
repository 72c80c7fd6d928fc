package daemon

import (
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
	"github.com/eliteGoblin/focusd/ad_mute/internal/infra"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
)

// newPlayer scripts Spotify through osascript. The signature scanner is unused here.
func newPlayer(target domain.Target, _ usecase.AddressScanner, pm domain.ProcessManager, interval time.Duration, logger *zap.Logger) (domain.Player, error) {
	return usecase.NewScriptedPlayer(target, pm, infra.NewAppleScriptBridge(target.Name), interval, logger), nil
}
