package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/commands"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the developer menu commands",
	Long:  `Lists every command that can be sent, with its key events and global shortcut.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		ctl, err := commands.NewController(cfg)
		if err != nil {
			return err
		}
		return printResponse(ctl.CommandsCommand())
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send a developer menu command",
	Long: `Sends a command such as "reload" to one device, or to every connected device
when --device is not given. Run "frappe commands" for the list.`,
	Example: `  frappe send reload
  frappe send debug --device emulator-5554`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := connect(cmd)
		if err != nil {
			return err
		}

		return printResponse(ctl.SendCommand(commands.SendRequest{
			Command:  args[0],
			DeviceID: deviceId,
		}))
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch -- <operation>...",
	Short: "Send raw shell operations",
	Long: `Runs each operation with "adb shell" in order, waiting the settle delay
between them. Operations that are plain numbers are sent as key events.`,
	Example: `  frappe dispatch --device emulator-5554 -- 82 19 23
  frappe dispatch -- "input keyevent 82"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := connect(cmd)
		if err != nil {
			return err
		}

		return printResponse(ctl.DispatchCommand(commands.DispatchRequest{
			DeviceID:   deviceId,
			Operations: args,
		}))
	},
}

// connect builds a controller and loads the current device list into it.
func connect(cmd *cobra.Command) (*commands.Controller, error) {
	ctl, err := newController()
	if err != nil {
		return nil, err
	}

	if deviceId == "" {
		if err := ctl.Tracker.Reconcile(cmd.Context()); err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
	}
	return ctl, nil
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(dispatchCmd)

	sendCmd.Flags().StringVar(&deviceId, "device", "", "device serial (default: all connected devices)")
	dispatchCmd.Flags().StringVar(&deviceId, "device", "", "device serial (default: all connected devices)")
}
