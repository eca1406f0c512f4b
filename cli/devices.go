package cli

import (
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/commands"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long: `List the Android devices known to the adb server. With --watch the list is
printed again every time a device is connected or disconnected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := newController()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if !watchDevices {
			// a fresh process has an empty registry, so always ask the adb server
			return printResponse(ctl.DevicesCommand(ctx, commands.DevicesRequest{Refresh: true}))
		}

		stopped := make(chan struct{})
		var once sync.Once
		ctl.Tracker.OnStateChange(func(tracking bool) {
			if !tracking {
				once.Do(func() { close(stopped) })
			}
		})
		// printing describes devices over adb, keep it off the registry's goroutine
		changes := make(chan struct{}, 1)
		ctl.Registry.OnChange(func([]string) {
			select {
			case changes <- struct{}{}:
			default:
			}
		})

		if refreshDevices {
			if err := printResponse(ctl.RefreshCommand(ctx)); err != nil {
				return err
			}
		}

		response := ctl.TrackCommand(ctx)
		if response.Status == "error" {
			return printResponse(response)
		}

		for {
			select {
			case <-changes:
				printJson(ctl.DevicesCommand(ctx, commands.DevicesRequest{}))
			case <-stopped:
				return errors.New("device tracking stopped")
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().BoolVar(&refreshDevices, "refresh", false, "print a full listing before watching")
	devicesCmd.Flags().BoolVarP(&watchDevices, "watch", "w", false, "keep running and print the list on every change")
}
