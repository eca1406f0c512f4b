package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/niftylettuce/frappe/cli"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/utils"
)

func main() {
	// commands register tracker, shortcut and server cleanup here
	hook := devices.NewShutdownHook()

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		if err := hook.Shutdown(); err != nil {
			utils.Error("%v", err)
		}
		os.Exit(0)
	}()

	// the tray needs the main goroutine, so the command runs here
	if err := cli.Execute(hook); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
