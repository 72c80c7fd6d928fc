package infra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

func TestAudioBinder_CloseFromAnotherGoroutine(t *testing.T) {
	binder, err := NewAudioBinder()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- binder.Close() }()
	require.NoError(t, <-done)

	// The apartment thread has exited; a second Close is a no-op.
	assert.NoError(t, binder.Close())

	_, err = binder.Bind(1)
	assert.ErrorIs(t, err, domain.ErrPlatformCall)
}

func TestAudioBinder_UnknownPIDHasNoSession(t *testing.T) {
	binder, err := NewAudioBinder()
	require.NoError(t, err)
	defer binder.Close()

	// Windows pids are multiples of 4 well below this.
	_, err = binder.Bind(1<<30 + 1)
	if err != nil && !errors.Is(err, domain.ErrNotYetAvailable) {
		t.Skipf("no audio endpoints on this machine: %v", err)
	}
	assert.ErrorIs(t, err, domain.ErrNotYetAvailable)
}
