package platform

import (
	"context"
	"sync"
	"time"

	"github.com/go-drift/geokit/pkg/errors"
)

// PermissionStatus represents the status of the location permission as
// reported by the native platform.
type PermissionStatus string

// Permission status constants.
const (
	// PermissionGranted indicates full access has been granted.
	PermissionGranted PermissionStatus = "granted"

	// PermissionDenied indicates the user denied the permission. The app may request again.
	PermissionDenied PermissionStatus = "denied"

	// PermissionPermanentlyDenied indicates the user denied with "don't ask again" (Android)
	// or denied twice (iOS). The app cannot request again; direct user to Settings.
	PermissionPermanentlyDenied PermissionStatus = "permanently_denied"

	// PermissionRestricted indicates a system policy prevents granting (parental controls,
	// MDM, enterprise policy). The user cannot change this; no dialog will be shown.
	PermissionRestricted PermissionStatus = "restricted"

	// PermissionLimited indicates partial access (iOS only, approximate location).
	PermissionLimited PermissionStatus = "limited"

	// PermissionNotDetermined indicates the user has not yet been asked. Calling Request
	// will show the system permission dialog.
	PermissionNotDetermined PermissionStatus = "not_determined"

	// PermissionStatusUnknown indicates the status could not be determined.
	PermissionStatusUnknown PermissionStatus = "unknown"
)

// DefaultRequestTimeout is the default timeout for permission requests.
const DefaultRequestTimeout = 30 * time.Second

// isTerminalStatus returns true if the status is a terminal state that won't
// change from showing a permission dialog.
func isTerminalStatus(status PermissionStatus) bool {
	switch status {
	case PermissionGranted, PermissionPermanentlyDenied, PermissionRestricted,
		PermissionLimited:
		return true
	default:
		return false
	}
}

// LocationPermissionService provides methods for checking and requesting the
// device location permission. Use the LocationPermission singleton.
type LocationPermissionService struct {
	channel *MethodChannel
	changes *EventChannel

	// Mutex to serialize permission requests (only one dialog can be shown at a time)
	requestMu sync.Mutex
}

// LocationPermission is the singleton location permission service.
var LocationPermission = &LocationPermissionService{
	channel: NewMethodChannel("geokit/permissions"),
	changes: NewEventChannel("geokit/permissions/changes"),
}

const permissionName = "location"

// Status returns the current status of the location permission.
// This is a non-prompting query; no dialog is shown.
// The ctx parameter is accepted for API consistency but not used for cancellation.
func (p *LocationPermissionService) Status(ctx context.Context) (PermissionStatus, error) {
	result, err := p.channel.Invoke("check", map[string]any{
		"permission": permissionName,
	})
	if err != nil {
		return PermissionStatusUnknown, err
	}
	return parsePermissionStatus(result), nil
}

// Request prompts the user for the location permission and blocks until they
// respond, the context is canceled, or the context deadline is exceeded. If the
// permission is already in a terminal state, Request returns immediately
// without showing a dialog.
//
// When ctx carries no deadline, DefaultRequestTimeout applies.
func (p *LocationPermissionService) Request(ctx context.Context) (PermissionStatus, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	p.requestMu.Lock()
	defer p.requestMu.Unlock()

	// Return immediately if already in terminal state
	currentStatus, err := p.Status(ctx)
	if err != nil {
		return PermissionStatusUnknown, err
	}
	if isTerminalStatus(currentStatus) {
		return currentStatus, nil
	}

	// Subscribe BEFORE triggering native request to avoid race condition
	resultChan := make(chan PermissionStatus, 1)
	sub := p.changes.Listen(EventHandler{
		OnEvent: func(data any) {
			change, ok := parsePermissionChange(data)
			if ok && change.Permission == permissionName {
				select {
				case resultChan <- change.Status:
				default:
				}
			}
		},
		OnError: func(err error) {
			errors.Report(&errors.GeoError{
				Op:      "permissions.request",
				Kind:    errors.KindPlatform,
				Channel: "geokit/permissions/changes",
				Err:     err,
			})
		},
	})
	defer sub.Cancel()

	// Trigger native request
	_, err = p.channel.Invoke("request", map[string]any{"permission": permissionName})
	if err != nil {
		return PermissionStatusUnknown, err
	}

	// Wait for result or timeout
	select {
	case result := <-resultChan:
		return result, nil
	case <-ctx.Done():
		// Re-check status in case we missed the event
		if finalStatus, err := p.Status(ctx); err == nil && isTerminalStatus(finalStatus) {
			return finalStatus, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return PermissionStatusUnknown, ErrTimeout
		}
		return PermissionStatusUnknown, ErrCanceled
	}
}

// OpenSettings opens the system settings page for this app, where users can
// manage permissions manually. Use this when the permission is permanently
// denied and the app cannot request it again. The returned bool reports
// whether the settings screen was actually opened.
//
// On iOS, opens the Settings app to the app's settings page.
// On Android, opens the App Info screen in system settings.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (p *LocationPermissionService) OpenSettings(ctx context.Context) (bool, error) {
	result, err := p.channel.Invoke("openSettings", nil)
	if err != nil {
		return false, err
	}
	if m := parseMap(result); m != nil {
		return parseBool(m["opened"]), nil
	}
	return false, nil
}

// IsGranted returns true if the location permission is currently granted.
// Best-effort convenience: returns false on any error.
func (p *LocationPermissionService) IsGranted(ctx context.Context) bool {
	status, err := p.Status(ctx)
	if err != nil {
		return false
	}
	return status == PermissionGranted
}

// Listen subscribes to location permission status changes.
// Returns an unsubscribe function. Multiple listeners receive all events.
func (p *LocationPermissionService) Listen(handler func(PermissionStatus)) (unsubscribe func()) {
	sub := p.changes.Listen(EventHandler{
		OnEvent: func(data any) {
			change, ok := parsePermissionChange(data)
			if !ok {
				errors.Report(&errors.GeoError{
					Op:      "permissions.parseChange",
					Kind:    errors.KindParsing,
					Channel: "geokit/permissions/changes",
					Err: &errors.ParseError{
						Channel:  "geokit/permissions/changes",
						DataType: "permissionChange",
						Got:      data,
					},
				})
				return
			}
			if change.Permission == permissionName {
				handler(change.Status)
			}
		},
		OnError: func(err error) {
			errors.Report(&errors.GeoError{
				Op:      "permissions.streamError",
				Kind:    errors.KindPlatform,
				Channel: "geokit/permissions/changes",
				Err:     err,
			})
		},
	})
	return sub.Cancel
}

// permissionChange represents a permission status change event (internal use).
type permissionChange struct {
	Permission string
	Status     PermissionStatus
}

func parsePermissionStatus(result any) PermissionStatus {
	if m := parseMap(result); m != nil {
		if status := parseString(m["status"]); status != "" {
			return PermissionStatus(status)
		}
	}
	return PermissionStatusUnknown
}

func parsePermissionChange(data any) (permissionChange, bool) {
	m := parseMap(data)
	if m == nil {
		return permissionChange{}, false
	}
	return permissionChange{
		Permission: parseString(m["permission"]),
		Status:     PermissionStatus(parseString(m["status"])),
	}, true
}
