package platform

import (
	"sync"

	"github.com/go-drift/geokit/pkg/errors"
)

// LifecycleService provides app lifecycle state management.
var Lifecycle = &LifecycleService{
	channel: NewMethodChannel("geokit/lifecycle"),
	events:  NewEventChannel("geokit/lifecycle/events"),
	state:   LifecycleStateResumed,
}

// LifecycleService manages app lifecycle events.
type LifecycleService struct {
	channel  *MethodChannel
	events   *EventChannel
	state    LifecycleState
	handlers []*lifecycleHandlerEntry
	mu       sync.RWMutex
}

// LifecycleState represents the current app lifecycle state.
type LifecycleState string

const (
	// LifecycleStateResumed indicates the app is visible and responding to user input.
	LifecycleStateResumed LifecycleState = "resumed"

	// LifecycleStateInactive indicates the app is transitioning (e.g., receiving a phone call).
	// On iOS, this occurs during app switcher or when a system dialog is shown.
	LifecycleStateInactive LifecycleState = "inactive"

	// LifecycleStatePaused indicates the app is not visible but still running.
	LifecycleStatePaused LifecycleState = "paused"

	// LifecycleStateDetached indicates the app is still hosted but detached from any view.
	LifecycleStateDetached LifecycleState = "detached"

	// LifecycleStateHidden indicates all views of the app are hidden but the
	// app has not yet been paused (desktop minimize, iOS transition to paused).
	LifecycleStateHidden LifecycleState = "hidden"
)

// LifecycleHandler is called when lifecycle state changes.
type LifecycleHandler func(state LifecycleState)

type lifecycleHandlerEntry struct {
	fn LifecycleHandler
}

func init() {
	registerBuiltinInit(initLifecycleListeners)
	initLifecycleListeners()
}

// initLifecycleListeners wires the native event stream and method handler to
// the lifecycle singleton. Replayed by ResetForTest.
func initLifecycleListeners() {
	Lifecycle.events.Listen(EventHandler{
		OnEvent: func(data any) {
			m := parseMap(data)
			if m == nil {
				errors.Report(&errors.GeoError{
					Op:      "lifecycle.parseEvent",
					Kind:    errors.KindParsing,
					Channel: "geokit/lifecycle/events",
					Err: &errors.ParseError{
						Channel:  "geokit/lifecycle/events",
						DataType: "LifecycleState",
						Got:      data,
					},
				})
				return
			}
			state, ok := m["state"].(string)
			if !ok {
				errors.Report(&errors.GeoError{
					Op:      "lifecycle.parseEvent",
					Kind:    errors.KindParsing,
					Channel: "geokit/lifecycle/events",
					Err: &errors.ParseError{
						Channel:  "geokit/lifecycle/events",
						DataType: "LifecycleState",
						Got:      data,
					},
				})
				return
			}
			Lifecycle.updateState(LifecycleState(state))
		},
		OnError: func(err error) {
			errors.Report(&errors.GeoError{
				Op:      "lifecycle.streamError",
				Kind:    errors.KindPlatform,
				Channel: "geokit/lifecycle/events",
				Err:     err,
			})
		},
	})

	// Handle method calls from native (e.g., synchronous state pushes)
	Lifecycle.channel.SetHandler(func(method string, args any) (any, error) {
		switch method {
		case "didChangeState":
			if m := parseMap(args); m != nil {
				if state, ok := m["state"].(string); ok {
					Lifecycle.updateState(LifecycleState(state))
				}
			}
			return nil, nil
		default:
			return nil, ErrMethodNotFound
		}
	})
}

// State returns the current lifecycle state.
func (l *LifecycleService) State() LifecycleState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// AddHandler registers a handler to be called on lifecycle changes.
// Returns a function that can be called to remove the handler. The remove
// function is idempotent.
func (l *LifecycleService) AddHandler(handler LifecycleHandler) func() {
	entry := &lifecycleHandlerEntry{fn: handler}
	l.mu.Lock()
	l.handlers = append(l.handlers, entry)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		for i, e := range l.handlers {
			if e == entry {
				l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
				break
			}
		}
		l.mu.Unlock()
	}
}

// IsResumed returns true if the app is in the resumed state.
func (l *LifecycleService) IsResumed() bool {
	return l.State() == LifecycleStateResumed
}

// IsPaused returns true if the app is paused.
func (l *LifecycleService) IsPaused() bool {
	return l.State() == LifecycleStatePaused
}

// updateState updates the lifecycle state and notifies handlers.
func (l *LifecycleService) updateState(newState LifecycleState) {
	l.mu.Lock()
	if l.state == newState {
		l.mu.Unlock()
		return
	}
	l.state = newState
	handlers := make([]*lifecycleHandlerEntry, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, entry := range handlers {
		entry.fn(newState)
	}
}
