package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const appName = "frappe"

const (
	TransportSocket = "socket"
	TransportExec   = "exec"
)

const (
	DefaultADBHost      = "127.0.0.1"
	DefaultADBPort      = 5037
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultShellTimeout = 10 * time.Second
	DefaultListenAddr   = "localhost:12100"
	DefaultMaxDevices   = 16
)

// ADB selects how the app reaches the adb server.
type ADB struct {
	Transport string
	Host      string
	Port      int
	Path      string
}

type Dispatch struct {
	SettleDelay  time.Duration
	ShellTimeout time.Duration
}

type Server struct {
	Listen string
	CORS   bool
}

type Tray struct {
	UpdateCheck bool
	MaxDevices  int
}

// Config holds user preferences loaded from config.ini.
type Config struct {
	ADB       ADB
	Dispatch  Dispatch
	Server    Server
	Tray      Tray
	Shortcuts map[string]string

	file *ini.File
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.ini"), nil
}

// Default returns the built-in configuration. It never returns nil.
func Default() *Config {
	if cfg, err := parse(ini.Empty()); err == nil {
		return cfg
	}

	return &Config{
		ADB:       ADB{Transport: TransportSocket, Host: DefaultADBHost, Port: DefaultADBPort},
		Dispatch:  Dispatch{SettleDelay: DefaultSettleDelay, ShellTimeout: DefaultShellTimeout},
		Server:    Server{Listen: DefaultListenAddr},
		Tray:      Tray{UpdateCheck: true, MaxDevices: DefaultMaxDevices},
		Shortcuts: map[string]string{},
		file:      ini.Empty(),
	}
}

// Load reads the config file if present, otherwise returns defaults.
// An empty path means the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return parse(file)
}

func parse(file *ini.File) (*Config, error) {
	adb := file.Section("adb")
	dispatch := file.Section("dispatch")
	server := file.Section("server")
	tray := file.Section("tray")

	cfg := &Config{
		ADB: ADB{
			Transport: strings.ToLower(adb.Key("transport").MustString(TransportSocket)),
			Host:      adb.Key("host").MustString(DefaultADBHost),
			Port:      adb.Key("port").MustInt(defaultADBPort()),
			Path:      adb.Key("path").String(),
		},
		Dispatch: Dispatch{
			SettleDelay:  dispatch.Key("settle_delay").MustDuration(DefaultSettleDelay),
			ShellTimeout: dispatch.Key("shell_timeout").MustDuration(DefaultShellTimeout),
		},
		Server: Server{
			Listen: server.Key("listen").MustString(DefaultListenAddr),
			CORS:   server.Key("cors").MustBool(false),
		},
		Tray: Tray{
			UpdateCheck: tray.Key("update_check").MustBool(true),
			MaxDevices:  tray.Key("max_devices").MustInt(DefaultMaxDevices),
		},
		Shortcuts: file.Section("shortcuts").KeysHash(),
		file:      file,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultADBPort honours the variable the adb client itself reads.
func defaultADBPort() int {
	if v := os.Getenv("ANDROID_ADB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			return port
		}
	}
	return DefaultADBPort
}

// Validate rejects values the rest of the app cannot work with.
func (c *Config) Validate() error {
	switch c.ADB.Transport {
	case TransportSocket, TransportExec:
	default:
		return fmt.Errorf("adb.transport must be %q or %q, got %q", TransportSocket, TransportExec, c.ADB.Transport)
	}

	if c.ADB.Port <= 0 || c.ADB.Port > 65535 {
		return fmt.Errorf("adb.port out of range: %d", c.ADB.Port)
	}

	if c.Dispatch.SettleDelay < 0 {
		return fmt.Errorf("dispatch.settle_delay must not be negative")
	}

	if c.Dispatch.ShellTimeout <= 0 {
		return fmt.Errorf("dispatch.shell_timeout must be positive")
	}

	if c.Tray.MaxDevices <= 0 {
		return fmt.Errorf("tray.max_devices must be positive")
	}

	return nil
}

// ADBAddr is the host:port of the adb server.
func (c *Config) ADBAddr() string {
	return fmt.Sprintf("%s:%d", c.ADB.Host, c.ADB.Port)
}

// Save writes the effective config to path, creating the directory as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file := c.file
	if file == nil {
		file = ini.Empty()
	}

	file.Section("adb").Key("transport").SetValue(c.ADB.Transport)
	file.Section("adb").Key("host").SetValue(c.ADB.Host)
	file.Section("adb").Key("port").SetValue(strconv.Itoa(c.ADB.Port))
	file.Section("adb").Key("path").SetValue(c.ADB.Path)
	file.Section("dispatch").Key("settle_delay").SetValue(c.Dispatch.SettleDelay.String())
	file.Section("dispatch").Key("shell_timeout").SetValue(c.Dispatch.ShellTimeout.String())
	file.Section("server").Key("listen").SetValue(c.Server.Listen)
	file.Section("server").Key("cors").SetValue(strconv.FormatBool(c.Server.CORS))
	file.Section("tray").Key("update_check").SetValue(strconv.FormatBool(c.Tray.UpdateCheck))
	file.Section("tray").Key("max_devices").SetValue(strconv.Itoa(c.Tray.MaxDevices))
	for name, binding := range c.Shortcuts {
		file.Section("shortcuts").Key(name).SetValue(binding)
	}

	return file.SaveTo(path)
}
