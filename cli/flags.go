package cli

var (
	verbose    bool
	configPath string
	logFile    string

	// send and dispatch
	deviceId string

	// for devices command
	refreshDevices bool
	watchDevices   bool
)
