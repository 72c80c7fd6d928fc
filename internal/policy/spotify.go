package policy

import (
	"runtime"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// AdSentinel is the URI prefix Spotify uses for advertisement tracks.
const AdSentinel domain.TrackIdentifier = "spotify:ad"

// State files Spotify rewrites when playback changes.
const (
	AdStateFile        = "ad-state-storage.bnk"
	RecentlyPlayedFile = "recently_played.bnk"

	// Some platforms surface the write as a temp file before the rename.
	TempSuffix = ".tmp"
)

// SpotifyPolicy implements TargetPolicy for the Spotify desktop client.
type SpotifyPolicy struct {
	goos string
}

// NewSpotifyPolicy creates a Spotify policy for the running OS.
func NewSpotifyPolicy() *SpotifyPolicy {
	return &SpotifyPolicy{goos: runtime.GOOS}
}

// NewSpotifyPolicyForOS creates a Spotify policy for a given GOOS (for testing).
func NewSpotifyPolicyForOS(goos string) *SpotifyPolicy {
	return &SpotifyPolicy{goos: goos}
}

func (p *SpotifyPolicy) ID() string {
	return "spotify"
}

func (p *SpotifyPolicy) Name() string {
	return "Spotify"
}

// ProcessPattern returns the Spotify executable name for the OS.
func (p *SpotifyPolicy) ProcessPattern() string {
	if p.goos == "windows" {
		return "spotify.exe"
	}
	return "Spotify"
}

// ModuleName returns the module scanned for the playback indicator.
// Only meaningful on Windows.
func (p *SpotifyPolicy) ModuleName() string {
	return "chrome_elf.dll"
}

// LaunchCommand returns how to start Spotify.
// On macOS `open -b` also just focuses an already running instance.
func (p *SpotifyPolicy) LaunchCommand() []string {
	switch p.goos {
	case "darwin":
		return []string{"/usr/bin/open", "-b", "com.spotify.client"}
	default:
		return []string{"spotify"}
	}
}

func (p *SpotifyPolicy) AdSentinel() domain.TrackIdentifier {
	return AdSentinel
}

// StateFiles returns the allow-list used by the event filter, temp variants included.
func (p *SpotifyPolicy) StateFiles() []string {
	return []string{
		AdStateFile,
		RecentlyPlayedFile,
		AdStateFile + TempSuffix,
		RecentlyPlayedFile + TempSuffix,
	}
}

// Ensure SpotifyPolicy implements TargetPolicy.
var _ TargetPolicy = (*SpotifyPolicy)(nil)
