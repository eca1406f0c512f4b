package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url with the platform's default handler
func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenURL opens url in the default browser without waiting for it to exit
func OpenURL(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	// reap the launcher process in the background
	go func() { _ = cmd.Wait() }()
	return nil
}
