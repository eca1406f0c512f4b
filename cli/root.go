package cli

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/commands"
	"github.com/niftylettuce/frappe/config"
	"github.com/niftylettuce/frappe/daemon"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/utils"
)

// version is set at build time with -ldflags "-X github.com/niftylettuce/frappe/cli.version=..."
var version = "dev"

// shutdown collects cleanup for the running command; main runs it on SIGINT/SIGTERM
var shutdown = devices.NewShutdownHook()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "frappe",
	Short: "Send developer menu key events to connected Android devices",
	Long: `Frappe keeps track of the Android devices known to the adb server and sends
React Native developer shortcuts (shake, reload, debug, live reload) to them
from the menu bar, global shortcuts, the command line or a JSON-RPC server.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a daemon child already writes stdout and stderr to the log file
		if logFile == "" || daemon.IsChild() {
			return nil
		}

		f, err := utils.LogToFile(logFile)
		if err != nil {
			return err
		}
		shutdown.Register("log file", f.Close)
		return nil
	},
}

func initConfig() {
	utils.SetVerbose(verbose)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is <user config dir>/frappe/config.ini)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file (also the daemon's output)")
}

// GetVersion returns the build version
func GetVersion() string {
	return version
}

// Execute runs the root command. Cleanup registered by the command is
// added to hook so the caller can run it on interrupt.
func Execute(hook *devices.ShutdownHook) error {
	if hook != nil {
		shutdown = hook
	}
	return rootCmd.Execute()
}

// loadConfig reads the file named by --config, or the default one.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// newController loads the config and builds a controller on top of it.
func newController(sinks ...notify.Notifier) (*commands.Controller, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	ctl, err := commands.NewController(cfg, sinks...)
	if err != nil {
		return nil, err
	}

	shutdown.Register("tracker", func() error {
		ctl.Tracker.Stop()
		return nil
	})
	return ctl, nil
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}

// printResponse prints response and turns an error status into a non-zero exit
func printResponse(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}
