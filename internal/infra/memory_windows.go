package infra

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

const pageSize = 4096

// MemoryOpenerImpl implements domain.MemoryOpener with ReadProcessMemory.
type MemoryOpenerImpl struct{}

// NewMemoryOpener creates a memory opener.
func NewMemoryOpener() *MemoryOpenerImpl {
	return &MemoryOpenerImpl{}
}

// Open opens pid with read-only rights.
func (o *MemoryOpenerImpl) Open(pid int) (domain.MemoryReader, error) {
	access := uint32(windows.PROCESS_VM_READ | windows.PROCESS_QUERY_LIMITED_INFORMATION)
	h, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("%w: OpenProcess(%d): %v", domain.ErrPlatformCall, pid, err)
	}
	return &processMemory{handle: h, pid: pid}, nil
}

type processMemory struct {
	handle windows.Handle
	pid    int
}

// Read returns exactly n bytes at addr.
func (m *processMemory) Read(addr domain.Address, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	var read uintptr
	err := windows.ReadProcessMemory(m.handle, uintptr(addr), &buf[0], uintptr(n), &read)
	if err != nil {
		return nil, fmt.Errorf("%w: read %d bytes at %s in %d: %v", domain.ErrUnreadable, n, addr, m.pid, err)
	}
	if int(read) != n {
		return nil, fmt.Errorf("%w: short read at %s (%d of %d)", domain.ErrUnreadable, addr, read, n)
	}
	return buf, nil
}

// Snapshot copies the module page by page. Pages that cannot be read stay zeroed.
func (m *processMemory) Snapshot(module domain.ModuleInfo) (domain.ModuleSnapshot, error) {
	if module.Size <= 0 {
		return domain.ModuleSnapshot{}, fmt.Errorf("%w: module %s has no size", domain.ErrNotFound, module.Name)
	}

	buf := make([]byte, module.Size)
	readable := 0
	for off := 0; off < module.Size; off += pageSize {
		chunk := module.Size - off
		if chunk > pageSize {
			chunk = pageSize
		}
		var read uintptr
		err := windows.ReadProcessMemory(m.handle, uintptr(module.Base)+uintptr(off), &buf[off], uintptr(chunk), &read)
		if err != nil && err != windows.ERROR_PARTIAL_COPY {
			continue
		}
		if read > 0 {
			readable++
		}
	}

	if readable == 0 {
		return domain.ModuleSnapshot{}, fmt.Errorf("%w: module %s at %s", domain.ErrUnreadable, module.Name, module.Base)
	}
	return domain.ModuleSnapshot{Base: module.Base, Bytes: buf}, nil
}

// Close releases the process handle.
func (m *processMemory) Close() error {
	return windows.CloseHandle(m.handle)
}

// Ensure implementations satisfy their interfaces.
var (
	_ domain.MemoryOpener = (*MemoryOpenerImpl)(nil)
	_ domain.MemoryReader = (*processMemory)(nil)
)
