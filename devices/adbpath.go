package devices

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// AndroidSdkPath returns the Android SDK location from ANDROID_HOME or the
// platform default install locations, or "" if none exists.
func AndroidSdkPath() string {
	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		sdkPath := os.Getenv(env)
		if sdkPath != "" {
			if _, err := os.Stat(sdkPath); err == nil {
				return sdkPath
			}
		}
	}

	// try default Android SDK location on macOS
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		defaultPath := filepath.Join(homeDir, "Library", "Android", "sdk")
		if _, err := os.Stat(defaultPath); err == nil {
			return defaultPath
		}

		// and on linux
		defaultPath = filepath.Join(homeDir, "Android", "Sdk")
		if _, err := os.Stat(defaultPath); err == nil {
			return defaultPath
		}
	}

	// try default Android SDK location on Windows
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			defaultPath := filepath.Join(localAppData, "Android", "Sdk")
			if _, err := os.Stat(defaultPath); err == nil {
				return defaultPath
			}
		}
	}

	return ""
}

// FindADB locates the adb binary, preferring the SDK's platform-tools over PATH.
// It returns "" when adb cannot be found.
func FindADB() string {
	sdkPath := AndroidSdkPath()
	if sdkPath != "" {
		adbPath := filepath.Join(sdkPath, "platform-tools", "adb")
		if runtime.GOOS == "windows" {
			adbPath += ".exe"
		}

		if _, err := os.Stat(adbPath); err == nil {
			return adbPath
		}
	}

	// check if adb is in PATH
	adbPath, err := exec.LookPath("adb")
	if err == nil {
		return adbPath
	}

	return ""
}
