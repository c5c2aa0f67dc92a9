package flutter

import (
	"errors"
	"testing"
)

func TestMethodChannel_Success(t *testing.T) {
	messenger := NewBinaryMessenger()
	platform := NewMethodChannel(messenger, "test/method")
	app := NewMethodChannel(messenger, "test/method")

	platform.SetMethodCallHandler(func(call *MethodCall, result Result) {
		if call.Method != "echo" {
			result.NotImplemented()
			return
		}
		result.Success(call.Arguments)
	})

	value, err := app.InvokeMethod("echo", "hello")
	if err != nil {
		t.Fatalf("InvokeMethod failed: %v", err)
	}
	if value != "hello" {
		t.Errorf("Expected echo, got %v", value)
	}

	t.Logf("✅ Method call round trip works")
}

func TestMethodChannel_NotImplemented(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewMethodChannel(messenger, "test/method")
	channel.SetMethodCallHandler(func(call *MethodCall, result Result) {
		result.NotImplemented()
	})

	if _, err := channel.InvokeMethod("missing", nil); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented, got %v", err)
	}
}

func TestMethodChannel_ErrorAndSingleAnswer(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewMethodChannel(messenger, "test/method")
	channel.SetMethodCallHandler(func(call *MethodCall, result Result) {
		result.Error("UNAVAILABLE", "nope", nil)
		// Later answers are ignored
		result.Success("late")
	})

	_, err := channel.InvokeMethod("anything", nil)
	var pe *PlatformError
	if !errors.As(err, &pe) || pe.Code != "UNAVAILABLE" {
		t.Fatalf("Expected UNAVAILABLE PlatformError, got %v", err)
	}
}

func TestMethodChannel_NoHandler(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewMethodChannel(messenger, "test/method")

	if _, err := channel.InvokeMethod("getCells", nil); !errors.Is(err, ErrNoHandler) {
		t.Errorf("Expected ErrNoHandler, got %v", err)
	}

	channel.SetMethodCallHandler(func(call *MethodCall, result Result) {
		result.Success(nil)
	})
	channel.SetMethodCallHandler(nil)
	if _, err := channel.InvokeMethod("getCells", nil); !errors.Is(err, ErrNoHandler) {
		t.Errorf("Expected ErrNoHandler after unregistering, got %v", err)
	}
}

func TestMethodChannel_MalformedCall(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewMethodChannel(messenger, "test/method")
	called := false
	channel.SetMethodCallHandler(func(call *MethodCall, result Result) {
		called = true
		result.Success(nil)
	})

	reply, err := messenger.Send("test/method", []byte{0xff, 0xff})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if called {
		t.Error("Handler should not see undecodable calls")
	}

	_, err = StandardMethodCodec{}.DecodeEnvelope(reply)
	var pe *PlatformError
	if !errors.As(err, &pe) || pe.Code != "error" {
		t.Errorf("Expected error envelope, got %v", err)
	}
}
