package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LocationUpdate represents a location update from the device.
type LocationUpdate struct {
	// Latitude is the latitude in degrees.
	Latitude float64
	// Longitude is the longitude in degrees.
	Longitude float64
	// Altitude is the altitude in meters.
	Altitude float64
	// Accuracy is the estimated horizontal accuracy in meters.
	Accuracy float64
	// Heading is the direction of travel in degrees.
	Heading float64
	// Speed is the speed in meters per second.
	Speed float64
	// Timestamp is when the reading was taken.
	Timestamp time.Time
	// IsMocked reports whether the reading came from a mock provider (Android).
	IsMocked bool
}

// LocationOptions configures location update behavior.
type LocationOptions struct {
	// HighAccuracy requests the highest available accuracy (may use more power).
	HighAccuracy bool
	// DistanceFilter is the minimum distance in meters between updates.
	DistanceFilter float64
	// IntervalMs is the desired update interval in milliseconds.
	IntervalMs int64
	// FastestIntervalMs is the fastest acceptable update interval in milliseconds (Android).
	FastestIntervalMs int64
}

// SourceStatus represents the state of the device location stream.
type SourceStatus string

const (
	// SourceStopped indicates the stream is not running.
	SourceStopped SourceStatus = "stopped"

	// SourceStarting indicates a start has been requested but no fix delivered yet.
	SourceStarting SourceStatus = "starting"

	// SourceStarted indicates the stream is delivering position updates.
	SourceStarted SourceStatus = "started"

	// SourceFailedToStart indicates the last start attempt failed.
	SourceFailedToStart SourceStatus = "failed_to_start"
)

// StartError reports a failed attempt to start the device location stream
// (location services disabled, platform-level denial, hardware unavailable).
// The message is suitable for user-facing display.
type StartError struct {
	Message string
}

func (e *StartError) Error() string {
	return "location start failed: " + e.Message
}

// AsStartError returns the *StartError wrapped in err, if any.
func AsStartError(err error) (*StartError, bool) {
	var se *StartError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// LocationService provides the continuous device location stream.
// Context parameters are currently unused and reserved for future cancellation support.
type LocationService struct {
	channel *MethodChannel
	updates *Stream[LocationUpdate]
	status  *Stream[SourceStatus]
}

// Location is the singleton location service.
var Location = newLocationService()

func newLocationService() *LocationService {
	return &LocationService{
		channel: NewMethodChannel("geokit/location"),
		updates: NewStream("geokit/location/updates",
			NewEventChannel("geokit/location/updates"), parseLocationUpdate),
		status: NewStream("geokit/location/status",
			NewEventChannel("geokit/location/status"), parseSourceStatus),
	}
}

// Start begins continuous location updates. A platform denial or unavailable
// hardware is returned as a *StartError carrying the native message.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (l *LocationService) Start(ctx context.Context, opts LocationOptions) error {
	_, err := l.channel.Invoke("start", map[string]any{
		"highAccuracy":      opts.HighAccuracy,
		"distanceFilter":    opts.DistanceFilter,
		"intervalMs":        opts.IntervalMs,
		"fastestIntervalMs": opts.FastestIntervalMs,
	})
	if err != nil {
		var chErr *ChannelError
		if errors.As(err, &chErr) {
			return &StartError{Message: chErr.Message}
		}
		return err
	}
	return nil
}

// Stop stops location updates. Stopping an already-stopped stream is a no-op
// on the native side.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (l *LocationService) Stop(ctx context.Context) error {
	_, err := l.channel.Invoke("stop", nil)
	return err
}

// Updates returns a stream of location updates.
func (l *LocationService) Updates() *Stream[LocationUpdate] {
	return l.updates
}

// StatusStream returns a stream of location source status changes.
func (l *LocationService) StatusStream() *Stream[SourceStatus] {
	return l.status
}

// IsEnabled checks if location services are enabled on the device.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (l *LocationService) IsEnabled(ctx context.Context) (bool, error) {
	result, err := l.channel.Invoke("isEnabled", nil)
	if err != nil {
		return false, err
	}
	if m := parseMap(result); m != nil {
		return parseBool(m["enabled"]), nil
	}
	return false, nil
}

// LastKnown returns the last known location without triggering a new request.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (l *LocationService) LastKnown(ctx context.Context) (*LocationUpdate, error) {
	result, err := l.channel.Invoke("getLastKnown", nil)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	update, err := parseLocationUpdate(result)
	if err != nil {
		return nil, nil
	}
	return &update, nil
}

func parseLocationUpdate(data any) (LocationUpdate, error) {
	m := parseMap(data)
	if m == nil {
		return LocationUpdate{}, fmt.Errorf("expected map, got %T", data)
	}
	lat, _ := toFloat64(m["latitude"])
	lon, _ := toFloat64(m["longitude"])
	alt, _ := toFloat64(m["altitude"])
	acc, _ := toFloat64(m["accuracy"])
	hdg, _ := toFloat64(m["heading"])
	spd, _ := toFloat64(m["speed"])
	return LocationUpdate{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Accuracy:  acc,
		Heading:   hdg,
		Speed:     spd,
		Timestamp: parseTime(m["timestamp"]),
		IsMocked:  parseBool(m["isMocked"]),
	}, nil
}

func parseSourceStatus(data any) (SourceStatus, error) {
	m := parseMap(data)
	if m == nil {
		return SourceStopped, fmt.Errorf("expected map, got %T", data)
	}
	status := parseString(m["status"])
	switch SourceStatus(status) {
	case SourceStopped, SourceStarting, SourceStarted, SourceFailedToStart:
		return SourceStatus(status), nil
	default:
		return SourceStopped, fmt.Errorf("unknown source status %q", status)
	}
}
