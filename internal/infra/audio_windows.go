package infra

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

const (
	sFalse                  = 0x1
	rpcEChangedMode         = 0x80010106
	eNotFound               = 0x80070490 // no default endpoint
	audclntSNoSingleProcess = 0x0889000D
)

// AudioBinderImpl implements domain.AudioBinder over WASAPI session management.
//
// COM is joined to the multithreaded apartment on one locked OS thread that
// lives until Close, so every other thread in the process is implicitly MTA.
type AudioBinderImpl struct {
	mu         sync.Mutex
	enumerator *wca.IMMDeviceEnumerator

	release   chan struct{}
	released  chan struct{}
	closeOnce sync.Once
}

// NewAudioBinder initialises COM and creates the device enumerator.
func NewAudioBinder() (*AudioBinderImpl, error) {
	b := &AudioBinderImpl{
		release:  make(chan struct{}),
		released: make(chan struct{}),
	}

	initErr := make(chan error, 1)
	go b.holdApartment(initErr)
	if err := <-initErr; err != nil {
		return nil, err
	}

	var enumerator *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(
		wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &enumerator,
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: create MMDeviceEnumerator: %v", domain.ErrPlatformCall, err)
	}
	b.enumerator = enumerator
	return b, nil
}

// holdApartment initialises COM on a locked thread and uninitialises it on
// the same thread once Close releases it.
func (b *AudioBinderImpl) holdApartment(initErr chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.released)

	uninit := true
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		switch {
		case isHRESULT(err, sFalse):
			// Already initialised on this thread; still needs a matching CoUninitialize.
		case isHRESULT(err, rpcEChangedMode):
			uninit = false
		default:
			initErr <- fmt.Errorf("%w: CoInitializeEx: %v", domain.ErrPlatformCall, err)
			return
		}
	}
	initErr <- nil

	<-b.release
	if uninit {
		ole.CoUninitialize()
	}
}

// Bind finds the audio session owned by pid, searching the default render
// endpoint first and then every other active render endpoint.
func (b *AudioBinderImpl) Bind(pid int) (domain.AudioSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enumerator == nil {
		return nil, fmt.Errorf("%w: binder closed", domain.ErrPlatformCall)
	}

	devices, err := b.renderDevices()
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, d := range devices {
			d.Release()
		}
	}()

	for _, dev := range devices {
		vol, err := sessionVolumeFor(dev, uint32(pid))
		if err != nil {
			return nil, err
		}
		if vol != nil {
			return &audioSession{volume: vol}, nil
		}
	}
	return nil, fmt.Errorf("no audio session for pid %d: %w", pid, domain.ErrNotYetAvailable)
}

// renderDevices returns the default endpoint followed by the active render endpoints.
func (b *AudioBinderImpl) renderDevices() ([]*wca.IMMDevice, error) {
	var devices []*wca.IMMDevice

	var def *wca.IMMDevice
	err := b.enumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EMultimedia, &def)
	if err == nil && def != nil {
		devices = append(devices, def)
	} else if err != nil && !isHRESULT(err, eNotFound) {
		return nil, fmt.Errorf("%w: GetDefaultAudioEndpoint: %v", domain.ErrPlatformCall, err)
	}

	var coll *wca.IMMDeviceCollection
	if err := b.enumerator.EnumAudioEndpoints(wca.ERender, wca.DEVICE_STATE_ACTIVE, &coll); err != nil {
		if len(devices) > 0 {
			return devices, nil
		}
		return nil, fmt.Errorf("%w: EnumAudioEndpoints: %v", domain.ErrPlatformCall, err)
	}
	defer coll.Release()

	var count uint32
	if err := coll.GetCount(&count); err != nil {
		return devices, nil
	}
	for i := uint32(0); i < count; i++ {
		var dev *wca.IMMDevice
		if err := coll.Item(i, &dev); err != nil || dev == nil {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// sessionVolumeFor returns the ISimpleAudioVolume of pid's session on dev, or nil.
func sessionVolumeFor(dev *wca.IMMDevice, pid uint32) (*wca.ISimpleAudioVolume, error) {
	var mgr *wca.IAudioSessionManager2
	if err := dev.Activate(wca.IID_IAudioSessionManager2, wca.CLSCTX_ALL, nil, &mgr); err != nil {
		return nil, fmt.Errorf("%w: IMMDevice.Activate: %v", domain.ErrPlatformCall, err)
	}
	defer mgr.Release()

	var sessions *wca.IAudioSessionEnumerator
	if err := mgr.GetSessionEnumerator(&sessions); err != nil {
		return nil, fmt.Errorf("%w: GetSessionEnumerator: %v", domain.ErrPlatformCall, err)
	}
	defer sessions.Release()

	var count int
	if err := sessions.GetCount(&count); err != nil {
		return nil, fmt.Errorf("%w: IAudioSessionEnumerator.GetCount: %v", domain.ErrPlatformCall, err)
	}

	for i := 0; i < count; i++ {
		vol, err := matchSession(sessions, i, pid)
		if err != nil {
			return nil, err
		}
		if vol != nil {
			return vol, nil
		}
	}
	return nil, nil
}

func matchSession(sessions *wca.IAudioSessionEnumerator, i int, pid uint32) (*wca.ISimpleAudioVolume, error) {
	var ctl *wca.IAudioSessionControl
	if err := sessions.GetSession(i, &ctl); err != nil {
		return nil, fmt.Errorf("%w: GetSession(%d): %v", domain.ErrPlatformCall, i, err)
	}
	defer ctl.Release()

	disp, err := ctl.QueryInterface(wca.IID_IAudioSessionControl2)
	if err != nil {
		return nil, fmt.Errorf("%w: IAudioSessionControl2: %v", domain.ErrPlatformCall, err)
	}
	ctl2 := (*wca.IAudioSessionControl2)(unsafe.Pointer(disp))
	defer ctl2.Release()

	// Sessions spanning several processes report AUDCLNT_S_NO_SINGLE_PROCESS, a success code.
	var sessionPID uint32
	if err := ctl2.GetProcessId(&sessionPID); err != nil && !isHRESULT(err, audclntSNoSingleProcess) {
		return nil, fmt.Errorf("%w: GetProcessId: %v", domain.ErrPlatformCall, err)
	}
	if sessionPID != pid {
		return nil, nil
	}

	disp, err = ctl2.QueryInterface(wca.IID_ISimpleAudioVolume)
	if err != nil {
		return nil, fmt.Errorf("%w: ISimpleAudioVolume: %v", domain.ErrPlatformCall, err)
	}
	return (*wca.ISimpleAudioVolume)(unsafe.Pointer(disp)), nil
}

func isHRESULT(err error, code uintptr) bool {
	var oleErr *ole.OleError
	return errors.As(err, &oleErr) && oleErr.Code() == code
}

// Close releases the enumerator and uninitialises COM.
func (b *AudioBinderImpl) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		if b.enumerator != nil {
			b.enumerator.Release()
			b.enumerator = nil
		}
		b.mu.Unlock()

		close(b.release)
		<-b.released
	})
	return nil
}

// audioSession wraps one ISimpleAudioVolume.
type audioSession struct {
	mu     sync.Mutex
	volume *wca.ISimpleAudioVolume
}

// SetMute issues a single ISimpleAudioVolume.SetMute call.
func (s *audioSession) SetMute(mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume == nil {
		return fmt.Errorf("%w: %w", domain.ErrPlatformCall, domain.ErrNotAttached)
	}
	if err := s.volume.SetMute(mute, nil); err != nil {
		return fmt.Errorf("%w: SetMute(%t): %v", domain.ErrPlatformCall, mute, err)
	}
	return nil
}

// Mute returns the session's current mute flag.
func (s *audioSession) Mute() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume == nil {
		return false, fmt.Errorf("%w: %w", domain.ErrPlatformCall, domain.ErrNotAttached)
	}
	var muted bool
	if err := s.volume.GetMute(&muted); err != nil {
		return false, fmt.Errorf("%w: GetMute: %v", domain.ErrPlatformCall, err)
	}
	return muted, nil
}

// Close releases the session handle. The mute flag is left as-is.
func (s *audioSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume != nil {
		s.volume.Release()
		s.volume = nil
	}
	return nil
}

// Ensure implementations satisfy their interfaces.
var (
	_ domain.AudioBinder  = (*AudioBinderImpl)(nil)
	_ domain.AudioSession = (*audioSession)(nil)
)
