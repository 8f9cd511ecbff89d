package locationflow

import (
	"context"
	"sync"

	geoerrors "github.com/go-drift/geokit/pkg/errors"
	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

// Session binds a location data source to a map display and manages the
// stream's lifetime. A session is single-use: once stopped it cannot be
// restarted; the coordinator creates a fresh session per permission grant.
type Session struct {
	mu          sync.Mutex
	display     Display
	source      DataSource
	mode        mapview.AutoPanMode
	onStatus    func(platform.SourceStatus)
	status      platform.SourceStatus
	ready       bool
	attached    bool
	stopped     bool
	unsubStatus func()
}

// NewSession creates a session for the given display and source. The session
// does nothing until AttachAndStart is called.
func NewSession(display Display, source DataSource, mode mapview.AutoPanMode) *Session {
	return &Session{
		display: display,
		source:  source,
		mode:    mode,
		status:  platform.SourceStopped,
	}
}

// OnStatusChange sets the callback invoked on every source status change.
// Set it before AttachAndStart; callbacks stop after Stop.
func (s *Session) OnStatusChange(fn func(platform.SourceStatus)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// AttachAndStart binds the location stream to the display, applies the
// auto-pan mode, and starts the source. A source start failure is returned as
// a *platform.StartError; the session still reaches the ready state so the UI
// is never stuck behind a spinner that cannot resolve.
//
// AttachAndStart is one-shot: subsequent calls return nil without re-starting.
func (s *Session) AttachAndStart(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionStopped
	}
	if s.attached {
		s.mu.Unlock()
		return nil
	}
	s.attached = true
	display := s.display
	source := s.source
	mode := s.mode
	s.mu.Unlock()

	// Observe source health before starting so no transition is missed.
	unsub := source.ListenStatus(func(st platform.SourceStatus) {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.status = st
		cb := s.onStatus
		s.mu.Unlock()
		if cb != nil {
			cb(st)
		}
	})
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		unsub()
		return ErrSessionStopped
	}
	s.unsubStatus = unsub
	s.mu.Unlock()

	if err := display.BindLocationSource(ctx); err != nil {
		s.markReady()
		return err
	}
	if err := display.SetAutoPanMode(mode); err != nil {
		s.markReady()
		return err
	}

	err := source.Start(ctx)
	s.markReady()
	return err
}

// markReady flips the ready flag unless the session was stopped while the
// start was in flight, in which case the completion is discarded.
func (s *Session) markReady() {
	s.mu.Lock()
	if !s.stopped {
		s.ready = true
	}
	s.mu.Unlock()
}

// Ready reports whether the attach and start attempt has completed,
// successfully or not.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Status returns the last observed source status.
func (s *Session) Status() platform.SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stop stops the source and cancels the status subscription. It is
// idempotent and safe to call even if AttachAndStart never ran or never
// completed; after Stop no status callback mutates session state.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unsub := s.unsubStatus
	s.unsubStatus = nil
	s.onStatus = nil
	wasAttached := s.attached
	source := s.source
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if wasAttached {
		if err := source.Stop(context.Background()); err != nil {
			geoerrors.Report(&geoerrors.GeoError{
				Op:   "locationflow.sessionStop",
				Kind: geoerrors.KindSession,
				Err:  err,
			})
		}
	}
}
