package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/config"
	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

func TestBuildTarget_AppliesOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.TrackLength = 16
	cfg.AdSentinel = "spotify:advert"

	target, err := BuildTarget(cfg)

	require.NoError(t, err)
	assert.Equal(t, "spotify", target.ID)
	assert.Equal(t, 16, target.TrackLength)
	assert.Equal(t, domain.TrackIdentifier("spotify:advert"), target.AdSentinel)
	assert.Contains(t, target.StateFiles, "ad-state-storage.bnk")
}

func TestBuildPlayer_BadSignatureIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Signature.Pattern = "not hex"

	target, err := BuildTarget(cfg)
	require.NoError(t, err)

	_, err = BuildPlayer(cfg, target, newFakeProcessManager(), zap.NewNop())

	assert.ErrorIs(t, err, domain.ErrFatal)
}

func TestBuildTarget_UnknownIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Target = "winamp"

	_, err := BuildTarget(cfg)

	assert.ErrorIs(t, err, domain.ErrFatal)
}

func TestResolveUsersDir_ConfiguredWins(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/somewhere/Spotify/Users"

	dir, err := ResolveUsersDir(cfg)

	require.NoError(t, err)
	assert.Equal(t, "/somewhere/Spotify/Users", dir)
}

func TestBootstrap_MissingDataDirIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "missing")

	_, _, err := Bootstrap(cfg, zap.NewNop())

	assert.ErrorIs(t, err, domain.ErrFatal)
}

func TestBootstrap_WiresEngine(t *testing.T) {
	users := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(users, "alice-user"), 0o755))

	cfg := config.Default()
	cfg.DataDir = users

	engine, cleanup, err := Bootstrap(cfg, zap.NewNop())
	if err != nil {
		// Platforms without a player backend fail after the watcher is set up.
		assert.ErrorIs(t, err, domain.ErrFatal)
		assert.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
		return
	}

	require.NotNil(t, engine)
	assert.Equal(t, domain.Unmuted, engine.State())
	assert.NoError(t, cleanup())
}
