package daemon

import (
	"context"
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// fakePlayer implements domain.Player for testing
type fakePlayer struct {
	mu sync.Mutex

	pids           []int // pid handed out by the n-th successful Attach
	attachFailures int
	attachCalls    int
	detachCalls    int
	closed         bool
	pid            int
	lastPID        int
	freshInstances bool // a new pid starts unmuted

	track     domain.TrackIdentifier
	trackErr  error
	failReads int // next reads that return ErrUnreadable
	reads     int

	muteErr   error
	muteFails int // next mute calls that fail with muteErr
	muteCalls []bool
	muted     bool // platform mute flag
	mutedErr  error
}

func newFakePlayer(track domain.TrackIdentifier) *fakePlayer {
	return &fakePlayer{pids: []int{100}, track: track}
}

func (p *fakePlayer) Attach(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attachCalls++
	if p.attachFailures > 0 {
		p.attachFailures--
		return fmt.Errorf("attach: %w", domain.ErrPlatformCall)
	}
	idx := p.attachCalls - 1
	if idx >= len(p.pids) {
		idx = len(p.pids) - 1
	}
	p.pid = p.pids[idx]
	if p.freshInstances && p.pid != p.lastPID {
		p.muted = false
	}
	p.lastPID = p.pid
	return nil
}

func (p *fakePlayer) CurrentTrack(ctx context.Context) (domain.TrackIdentifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.failReads > 0 {
		p.failReads--
		return "", fmt.Errorf("read: %w", domain.ErrUnreadable)
	}
	return p.track, p.trackErr
}

func (p *fakePlayer) SetMute(ctx context.Context, mute bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muteCalls = append(p.muteCalls, mute)
	if p.muteFails > 0 {
		p.muteFails--
		return p.muteErr
	}
	p.muted = mute
	return nil
}

func (p *fakePlayer) Muted(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mutedErr != nil {
		return false, p.mutedErr
	}
	return p.muted, nil
}

func (p *fakePlayer) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *fakePlayer) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *fakePlayer) Detach() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detachCalls++
	p.pid = 0
	return nil
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlayer) setTrack(id domain.TrackIdentifier, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track, p.trackErr = id, err
}

func (p *fakePlayer) setFailReads(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failReads = n
}

func (p *fakePlayer) MuteCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.muteCalls...)
}

func (p *fakePlayer) AttachCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attachCalls
}

func (p *fakePlayer) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// fakeEvents implements domain.EventSource for testing
type fakeEvents struct {
	mu     sync.Mutex
	queue  []domain.FsChangeEvent
	ready  chan struct{}
	errs   chan error
	closed bool
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{ready: make(chan struct{}, 1), errs: make(chan error, 4)}
}

func (f *fakeEvents) push(paths ...string) {
	f.mu.Lock()
	f.queue = append(f.queue, domain.FsChangeEvent{Paths: paths, Op: "WRITE"})
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *fakeEvents) Ready() <-chan struct{} { return f.ready }

func (f *fakeEvents) Drain() []domain.FsChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

func (f *fakeEvents) Errors() <-chan error { return f.errs }

func (f *fakeEvents) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeProcessManager implements domain.ProcessManager for testing
type fakeProcessManager struct {
	mu      sync.Mutex
	running map[int]bool
	checks  int
}

func newFakeProcessManager(pids ...int) *fakeProcessManager {
	pm := &fakeProcessManager{running: make(map[int]bool)}
	for _, pid := range pids {
		pm.running[pid] = true
	}
	return pm
}

func (m *fakeProcessManager) FindByName(pattern string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pids []int
	for pid, ok := range m.running {
		if ok {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (m *fakeProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	return m.running[pid]
}

func (m *fakeProcessManager) Launch(argv []string) error { return nil }

func (m *fakeProcessManager) setRunning(pid int, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running[pid] = running
}

func (m *fakeProcessManager) Checks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

// fakeBridge implements domain.ScriptingBridge for testing
type fakeBridge struct {
	mu     sync.Mutex
	track  domain.TrackIdentifier
	volume int
	reads  int
	sets   []int
}

func newFakeBridge(track domain.TrackIdentifier, volume int) *fakeBridge {
	return &fakeBridge{track: track, volume: volume}
}

func (b *fakeBridge) CurrentTrack(ctx context.Context) (domain.TrackIdentifier, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.track, nil
}

func (b *fakeBridge) Volume(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	return b.volume, nil
}

func (b *fakeBridge) SetVolume(ctx context.Context, volume int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets = append(b.sets, volume)
	b.volume = volume
	return nil
}

func (b *fakeBridge) setTrack(id domain.TrackIdentifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.track = id
}

func (b *fakeBridge) Level() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

func (b *fakeBridge) VolumeReads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

func (b *fakeBridge) Sets() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.sets...)
}
