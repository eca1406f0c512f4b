package commands

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/niftylettuce/frappe/config"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/utils"
)

type DoctorInfo struct {
	FrappeVersion    string `json:"frappe_version"`
	OS               string `json:"os"`
	OSVersion        string `json:"os_version"`
	ConfigPath       string `json:"config_path,omitempty"`
	Transport        string `json:"transport"`
	AndroidHome      string `json:"android_home"`
	ADBPath          string `json:"adb_path"`
	ADBVersion       string `json:"adb_version,omitempty"`
	ADBServer        string `json:"adb_server"`
	ADBServerVersion int    `json:"adb_server_version,omitempty"`
	ADBServerError   string `json:"adb_server_error,omitempty"`
	EmulatorPath     string `json:"emulator_path"`
	ServerListen     string `json:"server_listen"`
	ServerListenFree bool   `json:"server_listen_free"`
}

func getEmulatorPath() string {
	sdkPath := devices.AndroidSdkPath()
	if sdkPath != "" {
		emulatorPath := filepath.Join(sdkPath, "emulator", "emulator")
		if runtime.GOOS == "windows" {
			emulatorPath += ".exe"
		}
		if _, err := os.Stat(emulatorPath); err == nil {
			return emulatorPath
		}
	}

	// check if emulator is in PATH
	emulatorPath, err := exec.LookPath("emulator")
	if err == nil {
		return emulatorPath
	}

	return ""
}

func getAdbVersion(adbPath string) string {
	if adbPath == "" {
		return ""
	}

	cmd := exec.Command(adbPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	// parse the output to get just the version line
	lines := strings.Split(string(output), "\n")
	for _, line := range lines {
		if strings.Contains(line, "Android Debug Bridge version") {
			return strings.TrimSpace(line)
		}
	}

	return strings.TrimSpace(string(output))
}

func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.Command("sw_vers", "-productVersion")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "windows":
		cmd := exec.Command("cmd", "/c", "ver")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "linux":
		// try reading /etc/os-release
		data, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		return parseOSRelease(string(data))
	default:
		return ""
	}
}

func parseOSRelease(data string) string {
	lines := strings.Split(data, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
		}
	}
	return ""
}

// DoctorCommand performs system diagnostics and returns information about the
// environment and the adb server the app would talk to
func DoctorCommand(ctx context.Context, version string, cfg *config.Config, configPath string) *CommandResponse {
	if cfg == nil {
		cfg = config.Default()
	}

	adbPath := cfg.ADB.Path
	if adbPath == "" {
		adbPath = devices.FindADB()
	}

	info := DoctorInfo{
		FrappeVersion: version,
		OS:            runtime.GOOS,
		OSVersion:     getOSVersion(),
		ConfigPath:    configPath,
		Transport:     cfg.ADB.Transport,
		AndroidHome:   os.Getenv("ANDROID_HOME"),
		ADBPath:       adbPath,
		ADBServer:     cfg.ADBAddr(),
		EmulatorPath:  getEmulatorPath(),
		ServerListen:  cfg.Server.Listen,
	}

	// false usually means a frappe server is already running
	info.ServerListenFree = utils.IsListenAddrAvailable(cfg.Server.Listen)

	// get adb version if adb is available
	if info.ADBPath != "" {
		info.ADBVersion = getAdbVersion(info.ADBPath)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	serverVersion, err := devices.NewSocketBridge(cfg.ADB.Host, cfg.ADB.Port).ServerVersion(ctx)
	if err != nil {
		info.ADBServerError = err.Error()
	} else {
		info.ADBServerVersion = serverVersion
	}

	return NewSuccessResponse(info)
}
