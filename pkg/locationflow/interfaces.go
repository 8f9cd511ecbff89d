package locationflow

import (
	"context"
	"errors"

	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

// ErrSessionStopped is returned when starting a session that was already stopped.
var ErrSessionStopped = errors.New("locationflow: session stopped")

// ErrCoordinatorClosed is returned when operating on a closed coordinator.
var ErrCoordinatorClosed = errors.New("locationflow: coordinator closed")

// Provider is the OS permission boundary consumed by the coordinator.
// *platform.LocationPermissionService satisfies it; tests supply fakes.
type Provider interface {
	// Status returns the current permission status without prompting.
	Status(ctx context.Context) (platform.PermissionStatus, error)

	// Request shows the OS permission prompt if the status is not terminal
	// and blocks until the user responds or ctx expires.
	Request(ctx context.Context) (platform.PermissionStatus, error)

	// OpenSettings opens the app's page in system settings. The bool reports
	// whether the settings screen was actually opened.
	OpenSettings(ctx context.Context) (bool, error)
}

// LifecycleSource delivers app foreground/background transitions.
// *platform.LifecycleService satisfies it.
type LifecycleSource interface {
	// AddHandler registers a lifecycle handler and returns its remove function.
	AddHandler(handler platform.LifecycleHandler) func()
}

// DataSource is the continuous device position stream consumed by a session.
type DataSource interface {
	// Start begins streaming. A platform denial or unavailable hardware is
	// returned as a *platform.StartError.
	Start(ctx context.Context) error

	// Stop ends streaming. Stopping a stream that never started is a no-op.
	Stop(ctx context.Context) error

	// ListenStatus subscribes to stream status changes and returns an
	// unsubscribe function.
	ListenStatus(handler func(platform.SourceStatus)) (unsubscribe func())
}

// Display is the map surface a session binds the location stream to.
// *mapview.MapController satisfies it.
type Display interface {
	// BindLocationSource attaches the device location stream to the display.
	BindLocationSource(ctx context.Context) error

	// SetAutoPanMode selects how the display follows the device location.
	SetAutoPanMode(mode mapview.AutoPanMode) error
}

// PlatformDataSource adapts the platform location service to the DataSource
// interface with a fixed set of location options.
type PlatformDataSource struct {
	// Service is the location service to drive. Nil means platform.Location.
	Service *platform.LocationService

	// Options configures accuracy and update cadence for Start.
	Options platform.LocationOptions
}

func (d *PlatformDataSource) service() *platform.LocationService {
	if d.Service != nil {
		return d.Service
	}
	return platform.Location
}

// Start begins device location updates with the configured options.
func (d *PlatformDataSource) Start(ctx context.Context) error {
	return d.service().Start(ctx, d.Options)
}

// Stop ends device location updates.
func (d *PlatformDataSource) Stop(ctx context.Context) error {
	return d.service().Stop(ctx)
}

// ListenStatus subscribes to the location source status stream.
func (d *PlatformDataSource) ListenStatus(handler func(platform.SourceStatus)) (unsubscribe func()) {
	return d.service().StatusStream().Listen(handler)
}
