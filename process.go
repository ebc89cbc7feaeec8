package update

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrProcessesLingering is returned by TerminateProcessesUnder when the
// timeout elapses with at least one matching process still alive.
var ErrProcessesLingering = wrapErr(ProcessesLingering, "processes did not exit before the timeout", nil)

// processesUnder returns the PIDs of running processes whose executable
// path lies within dir, matched case-insensitively on every platform.
func processesUnder(dir string) ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, wrapErr(ProcessesLingering, "failed to enumerate processes", err)
	}
	var matches []int32
	for _, p := range procs {
		exe, err := p.Exe()
		if err != nil || exe == "" {
			continue
		}
		if isSubpath(normalizeForCompare(exe), normalizeForCompare(dir)) {
			matches = append(matches, p.Pid)
		}
	}
	return matches, nil
}

func normalizeForCompare(path string) string {
	return strings.ToLower(path)
}

// TerminateProcessesUnder requests termination of every running process
// whose executable lies within dir, then polls until none remain or the
// timeout elapses. It is used before apply so that an update never
// overwrites files backing a still-running executable.
func TerminateProcessesUnder(ctx context.Context, dir string, timeout time.Duration) error {
	pids, err := processesUnder(dir)
	if err != nil {
		return err
	}
	if len(pids) == 0 {
		return nil
	}
	Logger().Infof("terminating %d process(es) under %s", len(pids), dir)
	for _, pid := range pids {
		p, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		_ = p.Terminate()
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining, err := processesUnder(dir)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			Logger().Infof("all processes under %s have exited", dir)
			return nil
		}
		if time.Now().After(deadline) {
			Logger().Errorf("processes still running under %s after %s: %v", dir, timeout, remaining)
			return ErrProcessesLingering
		}
		select {
		case <-ctx.Done():
			return wrapErr(Cancelled, "cancelled while waiting for processes to exit", ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}
