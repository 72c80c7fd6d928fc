// Package infra implements infrastructure concerns (processes, files, platform audio).
package infra

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/ad_mute/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes matching the pattern (case-insensitive),
// oldest first. For multi-process apps the oldest is the main process.
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		pid     int
		created int64
	}
	var found []candidate
	patternLower := strings.ToLower(pattern)

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}

		// Case-insensitive match
		if strings.Contains(strings.ToLower(name), patternLower) {
			created, err := p.CreateTime()
			if err != nil {
				continue
			}
			found = append(found, candidate{pid: int(p.Pid), created: created})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].created < found[j].created
	})

	pids := make([]int, len(found))
	for i, c := range found {
		pids[i] = c.pid
	}
	return pids, nil
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

// Launch starts argv fully detached from this process.
func (pm *ProcessManagerImpl) Launch(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty launch command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = detachedProcAttr()

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", argv[0], err)
	}
	// Reap the child in the background; it may outlive us.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
