//go:build unix

package utils

import (
	"os/exec"
	"syscall"
)

// DetachProcessGroup starts cmd in its own process group so a terminal
// interrupt reaches only this process, which then stops the child itself.
func DetachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}
