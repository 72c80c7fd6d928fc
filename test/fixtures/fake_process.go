package fixtures

import (
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// Layout of the fake chrome_elf.dll image.
const (
	FakeModuleName    = "chrome_elf.dll"
	FakeModuleBase    = 0x10000000
	FakeModuleSize    = 64 * 1024
	FakeMarkerOffset  = 0x2000
	FakePID           = 4242
	fakeTrackCapacity = 64
)

// FakeSpotifyProcess stands in for a running Spotify process on Windows.
// It implements the process, module, memory and audio interfaces the memory
// player needs, backed by an in-memory module image.
type FakeSpotifyProcess struct {
	mu        sync.Mutex
	pid       int
	running   bool
	launched  int
	image     []byte
	muted     bool
	muteCalls []bool
	reads     int
	failReads int
}

// NewFakeSpotifyProcess creates a running process whose module holds the
// track marker followed by track.
func NewFakeSpotifyProcess(track string) *FakeSpotifyProcess {
	p := &FakeSpotifyProcess{
		pid:     FakePID,
		running: true,
		image:   make([]byte, FakeModuleSize),
	}
	copy(p.image[FakeMarkerOffset:], []byte{0x01, 0x00, 0x00, 0x00})
	p.writeTrack(track)
	return p
}

// TrackAddress is where the scanner should resolve the identifier.
func TrackAddress() domain.Address {
	return FakeModuleBase + FakeMarkerOffset + 4
}

// SetTrack overwrites the identifier in the module image.
func (p *FakeSpotifyProcess) SetTrack(track string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeTrack(track)
}

func (p *FakeSpotifyProcess) writeTrack(track string) {
	field := p.image[FakeMarkerOffset+4 : FakeMarkerOffset+4+fakeTrackCapacity]
	for i := range field {
		field[i] = 0
	}
	copy(field, track)
}

// Exit marks the process as no longer running.
func (p *FakeSpotifyProcess) Exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

// Restart brings the process back under a new pid. Windows remembers the
// per-app mute, so the new session keeps the old flag.
func (p *FakeSpotifyProcess) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pid++
	p.running = true
}

// FailNextReads makes the next n identifier reads fail as unreadable while
// the process keeps running.
func (p *FakeSpotifyProcess) FailNextReads(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failReads = n
}

// Muted reports the session's mute flag.
func (p *FakeSpotifyProcess) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// MuteCalls returns every SetMute call in order.
func (p *FakeSpotifyProcess) MuteCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.muteCalls...)
}

// Reads returns how many identifier reads were served.
func (p *FakeSpotifyProcess) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// PID returns the current pid.
func (p *FakeSpotifyProcess) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// FindByName implements domain.ProcessManager.
func (p *FakeSpotifyProcess) FindByName(pattern string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil, nil
	}
	return []int{p.pid}, nil
}

// IsRunning implements domain.ProcessManager.
func (p *FakeSpotifyProcess) IsRunning(pid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && pid == p.pid
}

// Launch implements domain.ProcessManager. A launch starts a new instance.
func (p *FakeSpotifyProcess) Launch(argv []string) error {
	p.mu.Lock()
	p.launched++
	p.mu.Unlock()
	p.Restart()
	return nil
}

// Launches returns how many times the process was launched.
func (p *FakeSpotifyProcess) Launches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.launched
}

// FindModule implements domain.ModuleLocator.
func (p *FakeSpotifyProcess) FindModule(pid int, name string) (domain.ModuleInfo, error) {
	if !p.IsRunning(pid) {
		return domain.ModuleInfo{}, fmt.Errorf("pid %d: %w", pid, domain.ErrDiscovery)
	}
	return domain.ModuleInfo{Name: FakeModuleName, Base: FakeModuleBase, Size: FakeModuleSize}, nil
}

// Open implements domain.MemoryOpener.
func (p *FakeSpotifyProcess) Open(pid int) (domain.MemoryReader, error) {
	if !p.IsRunning(pid) {
		return nil, fmt.Errorf("open %d: %w", pid, domain.ErrPlatformCall)
	}
	return &fakeMemory{proc: p, pid: pid}, nil
}

// Bind implements domain.AudioBinder.
func (p *FakeSpotifyProcess) Bind(pid int) (domain.AudioSession, error) {
	if !p.IsRunning(pid) {
		return nil, fmt.Errorf("pid %d: %w", pid, domain.ErrNotYetAvailable)
	}
	return &fakeSession{proc: p, pid: pid}, nil
}

// Close implements domain.AudioBinder.
func (p *FakeSpotifyProcess) Close() error { return nil }

type fakeMemory struct {
	proc *FakeSpotifyProcess
	pid  int
}

func (m *fakeMemory) Read(addr domain.Address, n int) ([]byte, error) {
	m.proc.mu.Lock()
	defer m.proc.mu.Unlock()
	m.proc.reads++
	if !m.proc.running || m.proc.pid != m.pid {
		return nil, fmt.Errorf("pid %d gone: %w", m.pid, domain.ErrUnreadable)
	}
	if m.proc.failReads > 0 {
		m.proc.failReads--
		return nil, fmt.Errorf("partial copy at %s: %w", addr, domain.ErrUnreadable)
	}
	off := int(addr - FakeModuleBase)
	if addr < FakeModuleBase || off+n > len(m.proc.image) {
		return nil, fmt.Errorf("address %s: %w", addr, domain.ErrUnreadable)
	}
	return append([]byte(nil), m.proc.image[off:off+n]...), nil
}

func (m *fakeMemory) Snapshot(module domain.ModuleInfo) (domain.ModuleSnapshot, error) {
	m.proc.mu.Lock()
	defer m.proc.mu.Unlock()
	return domain.ModuleSnapshot{Base: module.Base, Bytes: append([]byte(nil), m.proc.image...)}, nil
}

func (m *fakeMemory) Close() error { return nil }

type fakeSession struct {
	proc *FakeSpotifyProcess
	pid  int
}

func (s *fakeSession) SetMute(mute bool) error {
	s.proc.mu.Lock()
	defer s.proc.mu.Unlock()
	s.proc.muteCalls = append(s.proc.muteCalls, mute)
	if s.proc.pid != s.pid {
		return fmt.Errorf("session of %d expired: %w", s.pid, domain.ErrPlatformCall)
	}
	s.proc.muted = mute
	return nil
}

func (s *fakeSession) Mute() (bool, error) {
	s.proc.mu.Lock()
	defer s.proc.mu.Unlock()
	return s.proc.muted, nil
}

func (s *fakeSession) Close() error { return nil }

// Ensure FakeSpotifyProcess implements the platform interfaces.
var (
	_ domain.ProcessManager = (*FakeSpotifyProcess)(nil)
	_ domain.ModuleLocator  = (*FakeSpotifyProcess)(nil)
	_ domain.MemoryOpener   = (*FakeSpotifyProcess)(nil)
	_ domain.AudioBinder    = (*FakeSpotifyProcess)(nil)
)
