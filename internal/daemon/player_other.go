//go:build !windows && !darwin

package daemon

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
)

func newPlayer(_ domain.Target, _ usecase.AddressScanner, _ domain.ProcessManager, _ time.Duration, _ *zap.Logger) (domain.Player, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, runtime.GOOS)
}
