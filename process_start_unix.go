//go:build unix

package update

import (
	"os/exec"
	"syscall"
)

// startDetached starts exe with args as a new session leader, so it
// survives the exit of the process that launched it.
func startDetached(exe string, args []string) error {
	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}
