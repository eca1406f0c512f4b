//go:build windows

package utils

import (
	"os/exec"
)

// DetachProcessGroup is a no-op on Windows. Context cancellation stops the child.
func DetachProcessGroup(cmd *exec.Cmd) {}
