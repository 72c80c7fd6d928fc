package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// AccountDirSuffix marks per-account directories under the Users directory.
const AccountDirSuffix = "-user"

// storePackageGlob matches the Microsoft Store install of Spotify.
const storePackageGlob = "SpotifyAB.SpotifyMusic*"

// DataDirResolver locates the Spotify Users directory.
type DataDirResolver struct {
	homeDir string
	goos    string
	getenv  func(string) string
}

// NewDataDirResolver creates a resolver for the running OS and the real user's home.
func NewDataDirResolver(goos string) *DataDirResolver {
	return &DataDirResolver{homeDir: GetRealUserHome(), goos: goos, getenv: os.Getenv}
}

// NewDataDirResolverWithEnv creates a resolver with custom home and env (for testing).
func NewDataDirResolverWithEnv(home, goos string, getenv func(string) string) *DataDirResolver {
	return &DataDirResolver{homeDir: home, goos: goos, getenv: getenv}
}

// Candidates returns every location Spotify may keep its Users directory, preferred first.
func (r *DataDirResolver) Candidates() []string {
	switch r.goos {
	case "windows":
		var dirs []string
		if appData := r.env("APPDATA", filepath.Join(r.homeDir, "AppData", "Roaming")); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "Spotify", "Users"))
		}
		localAppData := r.env("LOCALAPPDATA", filepath.Join(r.homeDir, "AppData", "Local"))
		matches, _ := filepath.Glob(filepath.Join(localAppData, "Packages", storePackageGlob))
		sort.Strings(matches)
		for _, pkg := range matches {
			dirs = append(dirs, filepath.Join(pkg, "LocalState", "Spotify", "Users"))
		}
		return dirs
	case "darwin":
		return []string{filepath.Join(r.homeDir, "Library", "Application Support", "Spotify", "Users")}
	default:
		dataHome := r.env("XDG_DATA_HOME", filepath.Join(r.homeDir, ".local", "share"))
		return []string{filepath.Join(dataHome, "Spotify", "Users")}
	}
}

// Resolve returns the first candidate that exists as a directory.
// Returns an error wrapping ErrFatal if there is none.
func (r *DataDirResolver) Resolve() (string, error) {
	candidates := r.Candidates()
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: no Spotify data directory (tried %s)",
		domain.ErrFatal, strings.Join(candidates, ", "))
}

func (r *DataDirResolver) env(key, fallback string) string {
	if v := r.getenv(key); v != "" {
		return v
	}
	return fallback
}

// AccountDirs returns the per-account directories under usersDir.
// With user set, only "<user>-user" is returned.
func AccountDirs(usersDir, user string) ([]string, error) {
	entries, err := os.ReadDir(usersDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrFatal, usersDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || !IsAccountDir(e.Name(), user) {
			continue
		}
		dirs = append(dirs, filepath.Join(usersDir, e.Name()))
	}
	return dirs, nil
}

// IsAccountDir reports whether name is an account directory, optionally pinned to user.
func IsAccountDir(name, user string) bool {
	if user != "" {
		return name == user+AccountDirSuffix
	}
	return strings.Contains(name, AccountDirSuffix)
}
