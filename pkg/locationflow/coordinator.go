package locationflow

import (
	"context"
	"fmt"
	"sync"

	geoerrors "github.com/go-drift/geokit/pkg/errors"
	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

// Config configures a Coordinator. Provider and Lifecycle are required;
// Display and Source are optional (without them the coordinator tracks
// permission state but starts no session).
type Config struct {
	// Provider is the OS permission boundary.
	Provider Provider

	// Lifecycle delivers foreground/background transitions.
	Lifecycle LifecycleSource

	// Display is the map surface the session binds to.
	Display Display

	// Source is the device position stream the session starts.
	Source DataSource

	// AutoPanMode is applied to the display when the session attaches.
	AutoPanMode mapview.AutoPanMode

	// OnStartError receives the user-facing message of a session start
	// failure, exactly once per failed start. Hook a dialog here.
	OnStartError func(message string)

	// RunAsync, when set, runs the blocking session attach+start through it
	// (e.g. func(f func()) { go f() }). Nil runs it inline.
	RunAsync func(func())
}

// Coordinator owns the permission state machine. It queries the permission on
// Start, re-queries on resume while not granted or after a settings trip, and
// manages the location session across grants and revocations.
//
// Re-query-on-resume policy: a resume triggers a non-prompting query when the
// permission is not granted, or when the user was sent to system settings
// since the last resume (the settings flag is consumed by that check).
// Resuming while granted with no settings trip performs no OS call.
type Coordinator struct {
	mu              sync.Mutex
	cfg             Config
	permission      PermissionState
	queried         bool
	settingsOpened  bool
	session         *Session
	removeLifecycle func()
	listeners       []*flowListener
	lastStartError  string
	started         bool
	closed          bool
	gen             uint64
}

type flowListener struct {
	fn func(Snapshot)
}

// New creates a coordinator. It touches no platform state until Start.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("locationflow: Config.Provider is required")
	}
	if cfg.Lifecycle == nil {
		return nil, fmt.Errorf("locationflow: Config.Lifecycle is required")
	}
	return &Coordinator{cfg: cfg}, nil
}

// Start registers the lifecycle handler and performs the initial
// non-prompting permission query. Calling Start more than once is a no-op.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCoordinatorClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	remove := c.cfg.Lifecycle.AddHandler(c.handleLifecycle)

	c.mu.Lock()
	if c.closed {
		// Closed while registering; undo on this exit path too.
		c.mu.Unlock()
		remove()
		return ErrCoordinatorClosed
	}
	c.removeLifecycle = remove
	c.mu.Unlock()

	c.QueryPermission(ctx)
	return nil
}

// QueryPermission performs a non-prompting OS permission query and applies
// the result. Provider errors are reported and degrade to denied.
func (c *Coordinator) QueryPermission(ctx context.Context) PermissionState {
	status, err := c.cfg.Provider.Status(ctx)
	if err != nil {
		geoerrors.Report(&geoerrors.GeoError{
			Op:   "locationflow.queryPermission",
			Kind: geoerrors.KindPlatform,
			Err:  err,
		})
		status = platform.PermissionStatusUnknown
	}
	return c.applyPermission(ctx, NormalizeStatus(status))
}

// RequestPermission shows the OS permission prompt and applies the result.
// Call only from a user-initiated action; the coordinator never requests on
// its own.
func (c *Coordinator) RequestPermission(ctx context.Context) PermissionState {
	status, err := c.cfg.Provider.Request(ctx)
	if err != nil {
		geoerrors.Report(&geoerrors.GeoError{
			Op:   "locationflow.requestPermission",
			Kind: geoerrors.KindPlatform,
			Err:  err,
		})
		status = platform.PermissionStatusUnknown
	}
	return c.applyPermission(ctx, NormalizeStatus(status))
}

// OpenSettings sends the user to the app's system settings page and arms the
// re-query-on-resume flag, but only when the settings screen actually opened.
// Returns whether it opened.
func (c *Coordinator) OpenSettings(ctx context.Context) bool {
	opened, err := c.cfg.Provider.OpenSettings(ctx)
	if err != nil {
		geoerrors.Report(&geoerrors.GeoError{
			Op:   "locationflow.openSettings",
			Kind: geoerrors.KindPlatform,
			Err:  err,
		})
		return false
	}
	if opened {
		c.mu.Lock()
		if !c.closed {
			c.settingsOpened = true
		}
		c.mu.Unlock()
	}
	return opened
}

// applyPermission records the new permission state, tears down or starts the
// session as needed, and notifies listeners.
func (c *Coordinator) applyPermission(ctx context.Context, next PermissionState) PermissionState {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return next
	}
	c.permission = next
	c.queried = true

	var toStop *Session
	startNeeded := false
	if next == PermissionGranted {
		if c.session == nil && c.cfg.Display != nil && c.cfg.Source != nil {
			startNeeded = true
		}
	} else if c.session != nil {
		// Revocation detected on re-query: the session must not outlive the
		// grant, and SessionReady must drop with it.
		toStop = c.session
		c.session = nil
		c.lastStartError = ""
		c.gen++
	}
	c.mu.Unlock()

	if toStop != nil {
		toStop.Stop()
	}
	if startNeeded {
		c.startSession(ctx)
	}
	c.notify()
	return next
}

// startSession creates and starts a session for the current grant. The
// completion is discarded if the coordinator closed or the permission changed
// while the start was in flight.
func (c *Coordinator) startSession(ctx context.Context) {
	sess := NewSession(c.cfg.Display, c.cfg.Source, c.cfg.AutoPanMode)
	sess.OnStatusChange(func(platform.SourceStatus) {
		c.notify()
	})

	c.mu.Lock()
	if c.closed || c.session != nil || c.permission != PermissionGranted {
		c.mu.Unlock()
		return
	}
	c.session = sess
	c.lastStartError = ""
	gen := c.gen
	c.mu.Unlock()

	run := func() {
		err := sess.AttachAndStart(ctx)

		c.mu.Lock()
		if c.closed || c.gen != gen || c.session != sess {
			// Torn down while the start was in flight; ignore the result.
			c.mu.Unlock()
			sess.Stop()
			return
		}
		var msg string
		if se, ok := platform.AsStartError(err); ok {
			msg = se.Message
			c.lastStartError = msg
		}
		onErr := c.cfg.OnStartError
		c.mu.Unlock()

		if msg != "" {
			if onErr != nil {
				onErr(msg)
			}
		} else if err != nil {
			geoerrors.Report(&geoerrors.GeoError{
				Op:   "locationflow.startSession",
				Kind: geoerrors.KindSession,
				Err:  err,
			})
		}
		c.notify()
	}

	if c.cfg.RunAsync != nil {
		c.cfg.RunAsync(run)
	} else {
		run()
	}
}

// handleLifecycle implements the resume re-query policy.
func (c *Coordinator) handleLifecycle(state platform.LifecycleState) {
	if state != platform.LifecycleStateResumed {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	tripped := c.settingsOpened
	c.settingsOpened = false
	needQuery := tripped || c.permission != PermissionGranted
	c.mu.Unlock()

	if needQuery {
		c.QueryPermission(context.Background())
	}
}

// Snapshot returns a copy of the current observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Permission:     c.permission,
		View:           ViewForState(c.queried, c.permission),
		Queried:        c.queried,
		SessionStatus:  platform.SourceStopped,
		LastStartError: c.lastStartError,
	}
	if c.session != nil {
		snap.SessionReady = c.session.Ready()
		snap.SessionStatus = c.session.Status()
	}
	return snap
}

// AddListener registers a snapshot listener and returns its remove function.
// Listeners receive a snapshot on every observable change; they must treat it
// as read-only.
func (c *Coordinator) AddListener(fn func(Snapshot)) func() {
	entry := &flowListener{fn: fn}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	c.listeners = append(c.listeners, entry)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		for i, e := range c.listeners {
			if e == entry {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}
}

// notify delivers the current snapshot to all listeners.
func (c *Coordinator) notify() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	listeners := make([]*flowListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(snap)
	}
}

// Close deregisters the lifecycle handler, stops any active session, and
// drops all listeners. Close is idempotent. An in-flight session start
// completing after Close is ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	remove := c.removeLifecycle
	c.removeLifecycle = nil
	sess := c.session
	c.session = nil
	c.listeners = nil
	c.mu.Unlock()

	if remove != nil {
		remove()
	}
	if sess != nil {
		sess.Stop()
	}
}
