package flutter

import (
	"errors"
	"testing"
)

// testStreamHandler is a StreamHandler with func fields
type testStreamHandler struct {
	onListen func(arguments interface{}, events EventSink)
	onCancel func(arguments interface{})
	sink     EventSink
	listens  int
	cancels  int
}

func (h *testStreamHandler) OnListen(arguments interface{}, events EventSink) {
	h.listens++
	h.sink = events
	if h.onListen != nil {
		h.onListen(arguments, events)
	}
}

func (h *testStreamHandler) OnCancel(arguments interface{}) {
	h.cancels++
	if h.onCancel != nil {
		h.onCancel(arguments)
	}
}

func TestEventChannel_ListenEmitCancel(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")
	handler := &testStreamHandler{}
	channel.SetStreamHandler(handler)

	var events []interface{}
	sub, err := channel.ReceiveBroadcastStream(nil, EventHandler{
		OnEvent: func(event interface{}) { events = append(events, event) },
	})
	if err != nil {
		t.Fatalf("ReceiveBroadcastStream failed: %v", err)
	}
	if handler.listens != 1 || handler.sink == nil {
		t.Fatalf("OnListen not called with a sink")
	}

	handler.sink.Success("one")
	handler.sink.Success([]map[string]interface{}{{"type": "GSM"}})
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0] != "one" {
		t.Errorf("Unexpected first event: %v", events[0])
	}

	if err := sub.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if handler.cancels != 1 {
		t.Errorf("Expected OnCancel once, got %d", handler.cancels)
	}

	handler.sink.Success("after cancel")
	if len(events) != 2 {
		t.Errorf("Event delivered after cancel")
	}

	// Second Cancel returns the first result without another round trip
	if err := sub.Cancel(); err != nil {
		t.Errorf("Second Cancel returned %v", err)
	}
	if handler.cancels != 1 {
		t.Errorf("Second Cancel reached the platform")
	}

	t.Logf("✅ Event stream lifecycle works")
}

func TestEventChannel_EventsDuringListen(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")
	channel.SetStreamHandler(&testStreamHandler{
		onListen: func(arguments interface{}, events EventSink) {
			events.Success("initial")
		},
	})

	var events []interface{}
	if _, err := channel.ReceiveBroadcastStream(nil, EventHandler{
		OnEvent: func(event interface{}) { events = append(events, event) },
	}); err != nil {
		t.Fatalf("ReceiveBroadcastStream failed: %v", err)
	}

	if len(events) != 1 || events[0] != "initial" {
		t.Errorf("Event emitted inside OnListen was lost: %v", events)
	}
}

func TestEventChannel_ErrorAndEndOfStream(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")
	handler := &testStreamHandler{}
	channel.SetStreamHandler(handler)

	var gotErr error
	done := 0
	events := 0
	_, err := channel.ReceiveBroadcastStream(nil, EventHandler{
		OnEvent: func(event interface{}) { events++ },
		OnError: func(err error) { gotErr = err },
		OnDone:  func() { done++ },
	})
	if err != nil {
		t.Fatalf("ReceiveBroadcastStream failed: %v", err)
	}

	handler.sink.Error("BROKEN", "radio off", nil)
	var pe *PlatformError
	if !errors.As(gotErr, &pe) || pe.Code != "BROKEN" {
		t.Errorf("Expected BROKEN error event, got %v", gotErr)
	}

	handler.sink.EndOfStream()
	handler.sink.Success("dropped")
	if done != 1 {
		t.Errorf("Expected OnDone once, got %d", done)
	}
	if events != 0 {
		t.Errorf("Event delivered after EndOfStream")
	}
}

func TestEventChannel_SecondListenReplacesSink(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")
	handler := &testStreamHandler{}
	channel.SetStreamHandler(handler)

	first := 0
	if _, err := channel.ReceiveBroadcastStream(nil, EventHandler{
		OnEvent: func(event interface{}) { first++ },
	}); err != nil {
		t.Fatalf("first listen failed: %v", err)
	}
	firstSink := handler.sink

	second := 0
	if _, err := channel.ReceiveBroadcastStream(nil, EventHandler{
		OnEvent: func(event interface{}) { second++ },
	}); err != nil {
		t.Fatalf("second listen failed: %v", err)
	}

	if handler.cancels != 0 {
		t.Errorf("Replacing a listener should not call OnCancel")
	}

	firstSink.Success("stale")
	handler.sink.Success("fresh")
	if first != 0 || second != 1 {
		t.Errorf("Expected only the new sink to deliver, got first=%d second=%d", first, second)
	}
}

func TestEventChannel_CancelWithoutListen(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")
	channel.SetStreamHandler(&testStreamHandler{})

	err := channel.invoke(methodCancel, nil)
	var pe *PlatformError
	if !errors.As(err, &pe) {
		t.Errorf("Expected PlatformError cancelling an idle stream, got %v", err)
	}
}

func TestEventChannel_ListenWithoutHandler(t *testing.T) {
	messenger := NewBinaryMessenger()
	channel := NewEventChannel(messenger, "test/events")

	if _, err := channel.ReceiveBroadcastStream(nil, EventHandler{}); !errors.Is(err, ErrNoHandler) {
		t.Errorf("Expected ErrNoHandler, got %v", err)
	}
	if messenger.Deliver("test/events", []byte{1}) {
		t.Error("Listener should be removed after a failed listen")
	}
}
