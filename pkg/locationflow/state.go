// Package locationflow coordinates the device location permission flow: it
// tracks the OS permission status across app lifecycle transitions and, once
// permission is granted, attaches the device location stream to a map display.
//
// The coordinator owns all mutable state and publishes immutable snapshots to
// listeners; the presentation layer renders from snapshots and never mutates
// coordinator state directly.
package locationflow

import "github.com/go-drift/geokit/pkg/platform"

// PermissionState is the coordinator's three-way view of the OS location
// permission. It changes only through QueryPermission and RequestPermission.
type PermissionState int

const (
	// PermissionDenied means the user has not granted access but may be asked
	// again. All unrecognized platform statuses normalize here.
	PermissionDenied PermissionState = iota

	// PermissionGranted means location access is available.
	PermissionGranted

	// PermissionPermanentlyDenied means the OS will not show another prompt;
	// the user must change the permission in system settings.
	PermissionPermanentlyDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionPermanentlyDenied:
		return "permanentlyDenied"
	default:
		return "denied"
	}
}

// NormalizeStatus maps a platform permission status to the coordinator's
// three-way state. Granted and permanently denied map directly; every other
// status (denied, restricted, limited, not determined, unknown) is treated as
// denied, which keeps the request button available.
func NormalizeStatus(status platform.PermissionStatus) PermissionState {
	switch status {
	case platform.PermissionGranted:
		return PermissionGranted
	case platform.PermissionPermanentlyDenied:
		return PermissionPermanentlyDenied
	default:
		return PermissionDenied
	}
}

// ViewState is the UI branch derived from the permission state. The
// presentation layer switches over this value exhaustively.
type ViewState int

const (
	// ViewLoading is shown before the first permission query completes.
	ViewLoading ViewState = iota

	// ViewEnableLocation shows the "Enable location" action; tapping it must
	// call Coordinator.RequestPermission.
	ViewEnableLocation

	// ViewOpenSettings shows the "Open settings" action; tapping it must call
	// Coordinator.OpenSettings.
	ViewOpenSettings

	// ViewMap shows the map with the location display active.
	ViewMap
)

func (v ViewState) String() string {
	switch v {
	case ViewEnableLocation:
		return "enableLocation"
	case ViewOpenSettings:
		return "openSettings"
	case ViewMap:
		return "map"
	default:
		return "loading"
	}
}

// ViewForState derives the UI branch from the permission state. Pure; the
// coordinator calls it when building snapshots and tests call it directly.
func ViewForState(queried bool, p PermissionState) ViewState {
	if !queried {
		return ViewLoading
	}
	switch p {
	case PermissionGranted:
		return ViewMap
	case PermissionPermanentlyDenied:
		return ViewOpenSettings
	default:
		return ViewEnableLocation
	}
}

// Snapshot is an immutable copy of the coordinator's observable state,
// delivered to listeners on every change.
type Snapshot struct {
	// Permission is the current normalized permission state.
	Permission PermissionState

	// View is the UI branch derived from Permission.
	View ViewState

	// Queried is true once the first permission query has completed.
	Queried bool

	// SessionReady is true once the location session attach and start attempt
	// has completed, successfully or not. Never true unless Permission is
	// granted.
	SessionReady bool

	// SessionStatus mirrors the location source status stream for
	// session-health UI. SourceStopped when no session exists.
	SessionStatus platform.SourceStatus

	// LastStartError holds the message of the most recent session start
	// failure, empty if the last start succeeded or no start has run.
	LastStartError string
}
