// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
)

// State file names Spotify rewrites on playback changes.
const (
	AdStateFile        = "ad-state-storage.bnk"
	RecentlyPlayedFile = "recently_played.bnk"
)

// FakeSpotifyData creates a directory structure mimicking Spotify's Users directory.
type FakeSpotifyData struct {
	Root string
}

// NewFakeSpotifyData creates a new fake data directory generator under root.
func NewFakeSpotifyData(root string) *FakeSpotifyData {
	return &FakeSpotifyData{Root: root}
}

// UsersDir returns the fake Users directory.
func (f *FakeSpotifyData) UsersDir() string {
	return filepath.Join(f.Root, "Spotify", "Users")
}

// AccountDir returns the directory of one account.
func (f *FakeSpotifyData) AccountDir(account string) string {
	return filepath.Join(f.UsersDir(), account+"-user")
}

// Create creates the Users directory with the given accounts and their state files.
func (f *FakeSpotifyData) Create(accounts ...string) error {
	if err := os.MkdirAll(f.UsersDir(), 0o755); err != nil {
		return err
	}
	// Non-account entries Spotify keeps next to the accounts
	if err := os.MkdirAll(filepath.Join(f.UsersDir(), "Browser"), 0o755); err != nil {
		return err
	}
	for _, a := range accounts {
		if err := f.AddAccount(a); err != nil {
			return err
		}
	}
	return nil
}

// AddAccount creates an account directory with empty state files.
func (f *FakeSpotifyData) AddAccount(account string) error {
	dir := f.AccountDir(account)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range []string{AdStateFile, RecentlyPlayedFile} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// TouchAdState rewrites the account's ad state file, as Spotify does around ads.
func (f *FakeSpotifyData) TouchAdState(account string) error {
	return f.write(account, AdStateFile)
}

// TouchRecentlyPlayed rewrites the account's recently played file.
func (f *FakeSpotifyData) TouchRecentlyPlayed(account string) error {
	return f.write(account, RecentlyPlayedFile)
}

// TouchUnrelated writes a file the agent must ignore.
func (f *FakeSpotifyData) TouchUnrelated(account string) error {
	return f.write(account, "prefs")
}

func (f *FakeSpotifyData) write(account, name string) error {
	path := filepath.Join(f.AccountDir(account), name)
	data, _ := os.ReadFile(path)
	return os.WriteFile(path, append(data, '.'), 0o644)
}

// Exists checks if the Users directory exists.
func (f *FakeSpotifyData) Exists() bool {
	_, err := os.Stat(f.UsersDir())
	return err == nil
}

// Cleanup removes the fake data directory.
func (f *FakeSpotifyData) Cleanup() error {
	return os.RemoveAll(filepath.Join(f.Root, "Spotify"))
}
