package mapview

import "fmt"

// AutoPanMode controls how a map view follows the device's current location.
type AutoPanMode int

const (
	// AutoPanOff disables automatic panning; the viewpoint stays where the
	// user left it.
	AutoPanOff AutoPanMode = iota

	// AutoPanRecenter keeps the location symbol centered, re-centering the
	// viewpoint as the device moves.
	AutoPanRecenter

	// AutoPanNavigation pins the location symbol near the bottom edge and
	// rotates the map to the direction of travel.
	AutoPanNavigation

	// AutoPanCompassNavigation centers the location symbol and rotates the
	// map to the device compass heading.
	AutoPanCompassNavigation
)

func (m AutoPanMode) String() string {
	switch m {
	case AutoPanOff:
		return "off"
	case AutoPanRecenter:
		return "recenter"
	case AutoPanNavigation:
		return "navigation"
	case AutoPanCompassNavigation:
		return "compassNavigation"
	default:
		return "off"
	}
}

// ParseAutoPanMode converts a configuration string to an AutoPanMode.
func ParseAutoPanMode(s string) (AutoPanMode, error) {
	switch s {
	case "off":
		return AutoPanOff, nil
	case "recenter":
		return AutoPanRecenter, nil
	case "navigation":
		return AutoPanNavigation, nil
	case "compassNavigation":
		return AutoPanCompassNavigation, nil
	default:
		return AutoPanOff, fmt.Errorf("unknown auto-pan mode %q", s)
	}
}
