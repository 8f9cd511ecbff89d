package locationflow

import (
	"context"
	"errors"
	"testing"

	"github.com/go-drift/geokit/pkg/mapview"
	"github.com/go-drift/geokit/pkg/platform"
)

func TestSessionAttachAndStart(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanNavigation)

	if sess.Ready() {
		t.Error("session ready before AttachAndStart")
	}
	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("AttachAndStart: %v", err)
	}
	if !sess.Ready() {
		t.Error("session not ready after successful start")
	}
	if display.bindCalls != 1 {
		t.Errorf("bindCalls = %d, want 1", display.bindCalls)
	}
	if len(display.modes) != 1 || display.modes[0] != mapview.AutoPanNavigation {
		t.Errorf("modes = %v, want [navigation]", display.modes)
	}
	starts, _ := source.counts()
	if starts != 1 {
		t.Errorf("startCalls = %d, want 1", starts)
	}
}

func TestSessionAttachAndStartIsOneShot(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("first AttachAndStart: %v", err)
	}
	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("second AttachAndStart: %v", err)
	}
	starts, _ := source.counts()
	if starts != 1 {
		t.Errorf("startCalls = %d, want 1", starts)
	}
	if display.bindCalls != 1 {
		t.Errorf("bindCalls = %d, want 1", display.bindCalls)
	}
}

func TestSessionReadyDespiteStartError(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{startErr: &platform.StartError{Message: "Location services disabled"}}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	err := sess.AttachAndStart(context.Background())
	se, ok := platform.AsStartError(err)
	if !ok {
		t.Fatalf("expected *platform.StartError, got %v", err)
	}
	if se.Message != "Location services disabled" {
		t.Errorf("message = %q", se.Message)
	}
	if !sess.Ready() {
		t.Error("session must reach ready even when the source fails to start")
	}
}

func TestSessionReadyDespiteBindError(t *testing.T) {
	display := &fakeDisplay{bindErr: errors.New("surface gone")}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	if err := sess.AttachAndStart(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
	if !sess.Ready() {
		t.Error("session must reach ready even when binding fails")
	}
	starts, _ := source.counts()
	if starts != 0 {
		t.Errorf("source started despite bind failure, startCalls = %d", starts)
	}
}

func TestSessionStatusCallbacks(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	var seen []platform.SourceStatus
	sess.OnStatusChange(func(st platform.SourceStatus) {
		seen = append(seen, st)
	})

	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("AttachAndStart: %v", err)
	}
	source.emit(platform.SourceStarting)
	source.emit(platform.SourceStarted)

	if len(seen) != 2 || seen[0] != platform.SourceStarting || seen[1] != platform.SourceStarted {
		t.Errorf("seen = %v, want [starting started]", seen)
	}
	if sess.Status() != platform.SourceStarted {
		t.Errorf("Status() = %v, want started", sess.Status())
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("AttachAndStart: %v", err)
	}
	sess.Stop()
	sess.Stop()
	sess.Stop()

	_, stops := source.counts()
	if stops != 1 {
		t.Errorf("stopCalls = %d, want 1", stops)
	}
}

func TestSessionStopBeforeAttachSkipsSource(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	sess.Stop()

	_, stops := source.counts()
	if stops != 0 {
		t.Errorf("stopCalls = %d, want 0 when never attached", stops)
	}
	if err := sess.AttachAndStart(context.Background()); !errors.Is(err, ErrSessionStopped) {
		t.Errorf("AttachAndStart after Stop = %v, want ErrSessionStopped", err)
	}
	starts, _ := source.counts()
	if starts != 0 {
		t.Errorf("startCalls = %d, want 0", starts)
	}
}

func TestSessionNoCallbacksAfterStop(t *testing.T) {
	display := &fakeDisplay{}
	source := &fakeSource{}
	sess := NewSession(display, source, mapview.AutoPanRecenter)

	calls := 0
	sess.OnStatusChange(func(platform.SourceStatus) { calls++ })

	if err := sess.AttachAndStart(context.Background()); err != nil {
		t.Fatalf("AttachAndStart: %v", err)
	}
	source.emit(platform.SourceStarted)
	sess.Stop()
	source.emit(platform.SourceStopped)

	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if sess.Status() != platform.SourceStarted {
		t.Errorf("Status() mutated after Stop: %v", sess.Status())
	}
}
