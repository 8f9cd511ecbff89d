// Package mapview provides a controller for a native map display surface.
// The map itself is rendered by the native mapping SDK; this package only
// drives location binding and auto-pan behavior over a platform channel.
package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/go-drift/geokit/pkg/platform"
)

// MapController drives the native map view: binding the device location
// stream to the location display and selecting the auto-pan mode.
//
// All methods are safe for concurrent use. Dispose is idempotent; after
// disposal all methods return ErrDisposed.
type MapController struct {
	mu       sync.Mutex
	channel  *platform.MethodChannel
	mode     AutoPanMode
	bound    bool
	disposed bool
}

// ErrDisposed is returned when calling methods on a disposed controller.
var ErrDisposed = errors.New("mapview: controller disposed")

// NewMapController creates a controller for the native map view.
func NewMapController() *MapController {
	return &MapController{
		channel: platform.NewMethodChannel("geokit/mapview"),
		mode:    AutoPanOff,
	}
}

// SetAutoPanMode selects how the map follows the device location.
func (c *MapController) SetAutoPanMode(mode AutoPanMode) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	ch := c.channel
	c.mode = mode
	c.mu.Unlock()

	_, err := ch.Invoke("setAutoPanMode", map[string]any{"mode": mode.String()})
	return err
}

// AutoPanMode returns the last mode set on this controller.
func (c *MapController) AutoPanMode() AutoPanMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// BindLocationSource attaches the device location stream to the map's
// location display so the location symbol tracks position updates.
// The ctx parameter is currently unused and reserved for future cancellation support.
func (c *MapController) BindLocationSource(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	ch := c.channel
	c.mu.Unlock()

	_, err := ch.Invoke("bindLocationSource", map[string]any{
		"channel": "geokit/location/updates",
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.bound = true
	c.mu.Unlock()
	return nil
}

// UnbindLocationSource detaches the device location stream from the map.
// Unbinding a map that was never bound is a no-op.
func (c *MapController) UnbindLocationSource() error {
	c.mu.Lock()
	if c.disposed || !c.bound {
		c.mu.Unlock()
		return nil
	}
	ch := c.channel
	c.bound = false
	c.mu.Unlock()

	_, err := ch.Invoke("unbindLocationSource", nil)
	return err
}

// IsBound reports whether the location stream is attached to the map.
func (c *MapController) IsBound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}

// Dispose releases the controller. It unbinds the location source if still
// bound. Dispose is idempotent; calling it more than once is safe.
func (c *MapController) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	wasBound := c.bound
	ch := c.channel
	c.bound = false
	c.disposed = true
	c.mu.Unlock()

	if wasBound {
		// Best effort; the native side also unbinds when the view goes away.
		_, _ = ch.Invoke("unbindLocationSource", nil)
	}
}
