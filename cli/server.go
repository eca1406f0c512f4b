package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/niftylettuce/frappe/daemon"
	"github.com/niftylettuce/frappe/server"
	"github.com/niftylettuce/frappe/utils"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the frappe JSON-RPC server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the frappe server",
	Long: `Starts the JSON-RPC server on /rpc and /ws. Websocket clients are notified
when devices change and when a command fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := newController()
		if err != nil {
			return err
		}

		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = ctl.Config.Server.Listen
		}

		// GetBool/GetString cannot fail for defined flags
		enableCORS, _ := cmd.Flags().GetBool("cors")
		enableCORS = enableCORS || ctl.Config.Server.CORS
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		// the daemon parent cannot see the child's bind error, so check first
		if !daemon.IsChild() && !utils.IsListenAddrAvailable(listenAddr) {
			return fmt.Errorf("cannot listen on %s: address unavailable", listenAddr)
		}

		if isDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize(logFile)
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			fmt.Printf("Server daemon spawned, attempting to listen on %s\n", listenAddr)
			return nil
		}

		srv := server.New(ctl, enableCORS)
		shutdown.Register("server", func() error {
			srv.Close()
			return nil
		})

		if _, err := srv.Execute("devices_track", nil); err != nil {
			// clients can retry with devices_track
			utils.Warn("Device tracking not started: %v", err)
		}

		return srv.ListenAndServe(cmd.Context(), listenAddr)
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized frappe server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// GetString cannot fail for defined flags
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			addr = cfg.Server.Listen
		}

		err := daemon.KillServer(addr)
		if err != nil {
			return err
		}

		fmt.Printf("Server shutdown command sent successfully\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	// server start flags
	serverStartCmd.Flags().String("listen", "", "Address to listen on (default from config, e.g. 'localhost:12100' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")

	// server kill flags
	serverKillCmd.Flags().String("listen", "", "Address of server to kill (default from config)")
}
