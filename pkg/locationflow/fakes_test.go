package locationflow

import (
	"context"
	"sync"

	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

// fakeProvider scripts permission responses and counts OS calls.
type fakeProvider struct {
	mu            sync.Mutex
	status        platform.PermissionStatus
	statusErr     error
	requestStatus platform.PermissionStatus
	requestErr    error
	settingsOpens bool
	settingsErr   error
	statusCalls   int
	requestCalls  int
	settingsCalls int
}

func (p *fakeProvider) Status(ctx context.Context) (platform.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalls++
	return p.status, p.statusErr
}

func (p *fakeProvider) Request(ctx context.Context) (platform.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCalls++
	if p.requestErr != nil {
		return platform.PermissionStatusUnknown, p.requestErr
	}
	p.status = p.requestStatus
	return p.requestStatus, nil
}

func (p *fakeProvider) OpenSettings(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settingsCalls++
	return p.settingsOpens, p.settingsErr
}

func (p *fakeProvider) setStatus(status platform.PermissionStatus) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

func (p *fakeProvider) calls() (status, request, settings int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusCalls, p.requestCalls, p.settingsCalls
}

// fakeLifecycle lets tests drive resume transitions directly.
type fakeLifecycle struct {
	mu       sync.Mutex
	handlers []platform.LifecycleHandler
}

func (l *fakeLifecycle) AddHandler(handler platform.LifecycleHandler) func() {
	l.mu.Lock()
	l.handlers = append(l.handlers, handler)
	idx := len(l.handlers) - 1
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.handlers[idx] = nil
		l.mu.Unlock()
	}
}

func (l *fakeLifecycle) resume() {
	l.mu.Lock()
	handlers := make([]platform.LifecycleHandler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(platform.LifecycleStateResumed)
		}
	}
}

func (l *fakeLifecycle) activeHandlers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, h := range l.handlers {
		if h != nil {
			n++
		}
	}
	return n
}

// fakeDisplay records bind and auto-pan calls.
type fakeDisplay struct {
	mu        sync.Mutex
	bindErr   error
	modeErr   error
	bindCalls int
	modes     []mapview.AutoPanMode
}

func (d *fakeDisplay) BindLocationSource(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindCalls++
	return d.bindErr
}

func (d *fakeDisplay) SetAutoPanMode(mode mapview.AutoPanMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modes = append(d.modes, mode)
	return d.modeErr
}

// fakeSource scripts the data source and can emit status transitions.
type fakeSource struct {
	mu         sync.Mutex
	startErr   error
	stopErr    error
	startCalls int
	stopCalls  int
	handlers   []func(platform.SourceStatus)
}

func (s *fakeSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls++
	return s.startErr
}

func (s *fakeSource) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	return s.stopErr
}

func (s *fakeSource) ListenStatus(handler func(platform.SourceStatus)) func() {
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	idx := len(s.handlers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.handlers[idx] = nil
		s.mu.Unlock()
	}
}

func (s *fakeSource) emit(status platform.SourceStatus) {
	s.mu.Lock()
	handlers := make([]func(platform.SourceStatus), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(status)
		}
	}
}

func (s *fakeSource) counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCalls, s.stopCalls
}
