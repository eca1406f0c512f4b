package tray

import (
	_ "embed"
)

// Icon is one of the tray icon states.
type Icon int

const (
	IconIdle Icon = iota
	IconActive
	IconShaken
)

func (i Icon) String() string {
	switch i {
	case IconActive:
		return "active"
	case IconShaken:
		return "shaken"
	default:
		return "idle"
	}
}

var (
	//go:embed icons/idle.png
	idlePNG []byte
	//go:embed icons/active.png
	activePNG []byte
	//go:embed icons/shaken.png
	shakenPNG []byte

	//go:embed icons/idle.ico
	idleICO []byte
	//go:embed icons/active.ico
	activeICO []byte
	//go:embed icons/shaken.ico
	shakenICO []byte
)

// iconBytes returns the image for icon in the format the platform tray expects.
func iconBytes(icon Icon, goos string) []byte {
	if goos == "windows" {
		switch icon {
		case IconActive:
			return activeICO
		case IconShaken:
			return shakenICO
		default:
			return idleICO
		}
	}

	switch icon {
	case IconActive:
		return activePNG
	case IconShaken:
		return shakenPNG
	default:
		return idlePNG
	}
}
