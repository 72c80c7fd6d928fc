package infra

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// Toolhelp fails with ERROR_BAD_LENGTH while the target is loading modules.
const snapshotAttempts = 5

// ModuleLocatorImpl implements domain.ModuleLocator with Toolhelp32 snapshots.
type ModuleLocatorImpl struct{}

// NewModuleLocator creates a module locator.
func NewModuleLocator() *ModuleLocatorImpl {
	return &ModuleLocatorImpl{}
}

// FindModule returns the first module whose name contains name (case-insensitive).
func (l *ModuleLocatorImpl) FindModule(pid int, name string) (domain.ModuleInfo, error) {
	snap, err := moduleSnapshot(pid)
	if err != nil {
		return domain.ModuleInfo{}, fmt.Errorf("module snapshot of %d: %v: %w", pid, err, domain.ErrDiscovery)
	}
	defer windows.CloseHandle(snap)

	want := strings.ToLower(name)
	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	for err = windows.Module32First(snap, &entry); err == nil; err = windows.Module32Next(snap, &entry) {
		modName := windows.UTF16ToString(entry.Module[:])
		if strings.Contains(strings.ToLower(modName), want) {
			return domain.ModuleInfo{
				Name: modName,
				Base: domain.Address(entry.ModBaseAddr),
				Size: int(entry.ModBaseSize),
			}, nil
		}
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return domain.ModuleInfo{}, fmt.Errorf("walk modules of %d: %v: %w", pid, err, domain.ErrDiscovery)
	}
	return domain.ModuleInfo{}, fmt.Errorf("module %s not loaded in %d: %w", name, pid, domain.ErrDiscovery)
}

func moduleSnapshot(pid int) (windows.Handle, error) {
	var err error
	for i := 0; i < snapshotAttempts; i++ {
		var h windows.Handle
		h, err = windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, windows.ERROR_BAD_LENGTH) {
			break
		}
	}
	return 0, err
}

// Ensure ModuleLocatorImpl implements domain.ModuleLocator.
var _ domain.ModuleLocator = (*ModuleLocatorImpl)(nil)
