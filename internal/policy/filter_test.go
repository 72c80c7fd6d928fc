package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

func TestIsRelevant_AdStateFile(t *testing.T) {
	ev := domain.FsChangeEvent{Paths: []string{"/data/Spotify/Users/alice-user/ad-state-storage.bnk"}}
	assert.True(t, IsRelevant(ev))
}

func TestIsRelevant_OtherFile(t *testing.T) {
	ev := domain.FsChangeEvent{Paths: []string{"/data/Spotify/Users/alice-user/other-file.txt"}}
	assert.False(t, IsRelevant(ev))
}

func TestIsRelevant_TempVariant(t *testing.T) {
	ev := domain.FsChangeEvent{Paths: []string{"/u/alice-user/recently_played.bnk.tmp"}}
	assert.True(t, IsRelevant(ev))
}

func TestIsRelevant_ChecksEveryPath(t *testing.T) {
	ev := domain.FsChangeEvent{Paths: []string{
		"/u/alice-user/prefs",
		"/u/alice-user/other-file.txt",
		"/u/alice-user/recently_played.bnk",
	}}
	assert.True(t, IsRelevant(ev))
}

func TestIsRelevant_NoPaths(t *testing.T) {
	assert.False(t, IsRelevant(domain.FsChangeEvent{}))
}

func TestIsRelevant_SuffixIsNotEnough(t *testing.T) {
	ev := domain.FsChangeEvent{Paths: []string{"/u/alice-user/old-ad-state-storage.bnk"}}
	assert.False(t, IsRelevant(ev))
}

func TestEventFilter_AnyRelevant(t *testing.T) {
	f := NewEventFilter([]string{"a.bnk"})
	batch := []domain.FsChangeEvent{
		{Paths: []string{"/x/b.bnk"}},
		{Paths: []string{"/x/a.bnk"}},
	}
	assert.True(t, f.AnyRelevant(batch))
	assert.False(t, f.AnyRelevant(batch[:1]))
	assert.False(t, f.AnyRelevant(nil))
}
