package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.NoError(t, err)

	assert.Equal(t, TransportSocket, cfg.ADB.Transport)
	assert.Equal(t, "127.0.0.1:5037", cfg.ADBAddr())
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.ShellTimeout)
	assert.Equal(t, DefaultListenAddr, cfg.Server.Listen)
	assert.True(t, cfg.Tray.UpdateCheck)
	assert.Empty(t, cfg.Shortcuts)
}

func TestLoad_ReadsSections(t *testing.T) {
	path := writeConfig(t, `
[adb]
transport = exec
path = /opt/android/platform-tools/adb
port = 5038

[dispatch]
settle_delay = 750ms

[shortcuts]
shake = ctrl+alt+s

[server]
listen = 0.0.0.0:9000
cors = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportExec, cfg.ADB.Transport)
	assert.Equal(t, "/opt/android/platform-tools/adb", cfg.ADB.Path)
	assert.Equal(t, 5038, cfg.ADB.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Dispatch.SettleDelay)
	assert.Equal(t, map[string]string{"shake": "ctrl+alt+s"}, cfg.Shortcuts)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.True(t, cfg.Server.CORS)
}

func TestLoad_EnvironmentPort(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "6037")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.NoError(t, err)
	assert.Equal(t, 6037, cfg.ADB.Port)
}

func TestDefault_IgnoresOutOfRangeEnvironmentPort(t *testing.T) {
	for _, value := range []string{"99999", "0", "-1", "adb"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("ANDROID_ADB_SERVER_PORT", value)

			cfg := Default()
			require.NotNil(t, cfg)
			assert.Equal(t, DefaultADBPort, cfg.ADB.Port)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown transport", "[adb]\ntransport = carrier-pigeon\n"},
		{"port out of range", "[adb]\nport = 70000\n"},
		{"negative settle delay", "[dispatch]\nsettle_delay = -1s\n"},
		{"zero shell timeout", "[dispatch]\nshell_timeout = 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestSave_RoundTripsEffectiveConfig(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "")

	cfg := Default()
	cfg.Dispatch.SettleDelay = 250 * time.Millisecond
	cfg.Shortcuts = map[string]string{"reload": "cmd+alt+r"}

	path := filepath.Join(t.TempDir(), "nested", "config.ini")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, loaded.Dispatch.SettleDelay)
	assert.Equal(t, "cmd+alt+r", loaded.Shortcuts["reload"])
	assert.Equal(t, DefaultADBPort, loaded.ADB.Port)
}
