package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// mockMuter implements domain.Muter for testing
type mockMuter struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (m *mockMuter) SetMute(ctx context.Context, mute bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mute)
	return m.err
}

func (m *mockMuter) Calls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.calls...)
}

// mockProcessManager implements domain.ProcessManager for testing
type mockProcessManager struct {
	pids      []int
	appearAt  int // FindByName calls before pids show up
	findCalls int
	findErr   error
	launched  [][]string
	launchErr error
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.findCalls <= m.appearAt {
		return nil, nil
	}
	return m.pids, nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	for _, p := range m.pids {
		if p == pid {
			return true
		}
	}
	return false
}

func (m *mockProcessManager) Launch(argv []string) error {
	m.launched = append(m.launched, argv)
	return m.launchErr
}

// mockModuleLocator implements domain.ModuleLocator for testing
type mockModuleLocator struct {
	module   domain.ModuleInfo
	failures int
	calls    int
}

func (m *mockModuleLocator) FindModule(pid int, name string) (domain.ModuleInfo, error) {
	m.calls++
	if m.calls <= m.failures {
		return domain.ModuleInfo{}, fmt.Errorf("module %s: %w", name, domain.ErrDiscovery)
	}
	return m.module, nil
}

// fakeMemory implements domain.MemoryReader over a byte slice mapped at base
type fakeMemory struct {
	base    domain.Address
	data    []byte
	readErr error
	closed  bool
}

func (f *fakeMemory) Read(addr domain.Address, n int) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if addr < f.base || int(addr-f.base)+n > len(f.data) {
		return nil, fmt.Errorf("address %s: %w", addr, domain.ErrUnreadable)
	}
	off := int(addr - f.base)
	return append([]byte(nil), f.data[off:off+n]...), nil
}

func (f *fakeMemory) Snapshot(module domain.ModuleInfo) (domain.ModuleSnapshot, error) {
	return domain.ModuleSnapshot{Base: f.base, Bytes: append([]byte(nil), f.data...)}, nil
}

func (f *fakeMemory) Close() error {
	f.closed = true
	return nil
}

// mockOpener implements domain.MemoryOpener for testing
type mockOpener struct {
	mem     *fakeMemory
	err     error
	openPID int
}

func (m *mockOpener) Open(pid int) (domain.MemoryReader, error) {
	m.openPID = pid
	if m.err != nil {
		return nil, m.err
	}
	return m.mem, nil
}

// mockScanner implements AddressScanner for testing
type mockScanner struct {
	addr     domain.Address
	failures int
	calls    int
}

func (m *mockScanner) Scan(snap domain.ModuleSnapshot) (domain.Address, error) {
	m.calls++
	if m.calls <= m.failures {
		return 0, domain.ErrNotFound
	}
	return m.addr, nil
}

// mockSession implements domain.AudioSession for testing
type mockSession struct {
	muted   bool
	calls   []bool
	muteErr error
	closed  bool
}

func (m *mockSession) SetMute(mute bool) error {
	m.calls = append(m.calls, mute)
	if m.muteErr != nil {
		return m.muteErr
	}
	m.muted = mute
	return nil
}

func (m *mockSession) Mute() (bool, error) { return m.muted, nil }

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

// mockBinder implements domain.AudioBinder for testing
type mockBinder struct {
	session  *mockSession
	failures int
	calls    int
	boundPID int
	err      error
	closed   bool
}

func (m *mockBinder) Bind(pid int) (domain.AudioSession, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.calls <= m.failures {
		return nil, domain.ErrNotYetAvailable
	}
	m.boundPID = pid
	return m.session, nil
}

func (m *mockBinder) Close() error {
	m.closed = true
	return nil
}

var errBoom = errors.New("boom")
