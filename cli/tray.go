package cli

import (
	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/tray"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Run the menu bar app",
	Long: `Shows the menu bar icon with one submenu per command, registers the global
shortcuts and tracks devices until you quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := newController()
		if err != nil {
			return err
		}

		app := tray.NewApp(ctl, GetVersion())
		shutdown.Register("tray", func() error {
			app.Quit()
			return nil
		})

		// blocks on the main goroutine until the user quits
		app.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trayCmd)
}
