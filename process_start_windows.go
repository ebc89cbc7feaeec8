//go:build windows

package update

import (
	"os/exec"
	"syscall"
)

// startDetached starts exe with args in a new process group, detached from
// any console the launching process is attached to.
func startDetached(exe string, args []string) error {
	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x08000000, // DETACHED_PROCESS
	}
	return cmd.Start()
}
