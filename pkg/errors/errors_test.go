package errors

import (
	"strings"
	"testing"
	"time"
)

func TestGeoErrorString(t *testing.T) {
	err := &GeoError{
		Op:   "test.operation",
		Kind: KindPlatform,
		Err:  &ParseError{Channel: "test", DataType: "TestData", Got: "invalid"},
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
}

func TestGeoErrorWithChannel(t *testing.T) {
	err := &GeoError{
		Op:      "test.operation",
		Kind:    KindParsing,
		Channel: "geokit/test/channel",
		Err:     &ParseError{Channel: "geokit/test/channel", DataType: "TestData", Got: nil},
	}
	got := err.Error()
	want := "channel=geokit/test/channel"
	if !strings.Contains(got, want) {
		t.Errorf("error string %q should contain %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindPlatform, "platform"},
		{KindParsing, "parsing"},
		{KindInit, "init"},
		{KindSession, "session"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestPanicErrorStringWithOp(t *testing.T) {
	err := &PanicError{
		Op:        "locationflow.notify",
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic in locationflow.notify: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

type testHandler struct {
	onError func(*GeoError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *GeoError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func TestReport(t *testing.T) {
	var captured *GeoError
	SetHandler(&testHandler{onError: func(err *GeoError) { captured = err }})
	defer SetHandler(nil)

	Report(&GeoError{
		Op:   "test.op",
		Kind: KindInit,
		Err:  &ParseError{Channel: "test", DataType: "Test", Got: nil},
	})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportNil(t *testing.T) {
	called := false
	SetHandler(&testHandler{onError: func(*GeoError) { called = true }})
	defer SetHandler(nil)

	Report(nil)
	if called {
		t.Error("nil error should not reach the handler")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(nil)

	func() {
		defer Recover("test.panicking")
		panic("boom")
	}()

	if captured == nil {
		t.Fatal("expected panic to be captured")
	}
	if captured.Op != "test.panicking" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.panicking")
	}
	if captured.Value != "boom" {
		t.Errorf("Value = %v, want %q", captured.Value, "boom")
	}
	if captured.StackTrace == "" {
		t.Error("expected a stack trace")
	}
}

func TestSetHandlerNilRestoresDefault(t *testing.T) {
	SetHandler(&testHandler{})
	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("expected LogHandler after SetHandler(nil), got %T", DefaultHandler)
	}
}
