package cli

import (
	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/commands"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Long:  `Reports the adb binary, Android SDK and adb server the app would use, for troubleshooting.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		return printResponse(commands.DoctorCommand(cmd.Context(), GetVersion(), cfg, path))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
