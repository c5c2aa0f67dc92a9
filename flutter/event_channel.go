package flutter

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/user/ciber-radar/logger"
)

// Event channel control methods sent by the app side
const (
	methodListen = "listen"
	methodCancel = "cancel"
)

// EventSink matches EventChannel.EventSink
type EventSink interface {
	Success(event interface{})
	Error(code, message string, details interface{})
	EndOfStream()
}

// StreamHandler matches EventChannel.StreamHandler
type StreamHandler interface {
	OnListen(arguments interface{}, events EventSink)
	OnCancel(arguments interface{})
}

// EventHandler is the app-side receiver for a broadcast stream
type EventHandler struct {
	OnEvent func(event interface{})
	OnError func(err error)
	OnDone  func()
}

// EventChannel is a named platform-to-app event stream
type EventChannel struct {
	messenger *BinaryMessenger
	name      string
	codec     StandardMethodCodec

	mu         sync.Mutex
	activeSink *eventSink
}

// NewEventChannel matches: EventChannel(binaryMessenger, name)
func NewEventChannel(messenger *BinaryMessenger, name string) *EventChannel {
	return &EventChannel{
		messenger: messenger,
		name:      name,
	}
}

// Name returns the channel name
func (c *EventChannel) Name() string {
	return c.name
}

// SetStreamHandler matches: eventChannel.setStreamHandler(handler)
// A second listen replaces the active sink without calling OnCancel; the
// replaced sink stops delivering.
func (c *EventChannel) SetStreamHandler(handler StreamHandler) {
	if handler == nil {
		c.messenger.SetMessageHandler(c.name, nil)
		return
	}

	c.messenger.SetMessageHandler(c.name, func(message []byte, reply BinaryReply) {
		call, err := c.codec.DecodeMethodCall(message)
		if err != nil {
			c.replyError(reply, err.Error())
			return
		}

		switch call.Method {
		case methodListen:
			c.onListen(handler, call.Arguments, reply)
		case methodCancel:
			c.onCancel(handler, call.Arguments, reply)
		default:
			reply(nil)
		}
	})
}

func (c *EventChannel) onListen(handler StreamHandler, arguments interface{}, reply BinaryReply) {
	sink := &eventSink{channel: c, id: uuid.New().String()}

	c.mu.Lock()
	previous := c.activeSink
	c.activeSink = sink
	c.mu.Unlock()

	if previous != nil {
		logger.Debug(c.name, "Stream listener %s replaced by %s", previous.id[:8], sink.id[:8])
	}
	logger.Trace(c.name, "👂 listen [%s]", sink.id[:8])

	handler.OnListen(arguments, sink)

	envelope, _ := c.codec.EncodeSuccessEnvelope(nil)
	reply(envelope)
}

func (c *EventChannel) onCancel(handler StreamHandler, arguments interface{}, reply BinaryReply) {
	c.mu.Lock()
	sink := c.activeSink
	c.activeSink = nil
	c.mu.Unlock()

	if sink == nil {
		c.replyError(reply, "No active stream to cancel")
		return
	}

	logger.Trace(c.name, "🛑 cancel [%s]", sink.id[:8])
	handler.OnCancel(arguments)

	envelope, _ := c.codec.EncodeSuccessEnvelope(nil)
	reply(envelope)
}

func (c *EventChannel) replyError(reply BinaryReply, message string) {
	envelope, _ := c.codec.EncodeErrorEnvelope("error", message, nil)
	reply(envelope)
}

func (c *EventChannel) isActive(sink *eventSink) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSink == sink
}

// ReceiveBroadcastStream is the app-side subscribe. The handler is attached
// before the listen request goes out, so events emitted while the platform
// handles the request are not lost.
func (c *EventChannel) ReceiveBroadcastStream(arguments interface{}, handler EventHandler) (*EventSubscription, error) {
	sub := &EventSubscription{
		ID:      uuid.New().String(),
		channel: c,
	}

	c.messenger.SetListener(c.name, func(message []byte) {
		if len(message) == 0 {
			if handler.OnDone != nil {
				handler.OnDone()
			}
			return
		}

		event, err := c.codec.DecodeEnvelope(message)
		if err != nil {
			if handler.OnError != nil {
				handler.OnError(err)
			}
			return
		}
		if handler.OnEvent != nil {
			handler.OnEvent(event)
		}
	})

	if err := c.invoke(methodListen, arguments); err != nil {
		c.messenger.SetListener(c.name, nil)
		return nil, fmt.Errorf("listen on %s: %w", c.name, err)
	}
	return sub, nil
}

func (c *EventChannel) invoke(method string, arguments interface{}) error {
	message, err := c.codec.EncodeMethodCall(&MethodCall{Method: method, Arguments: arguments})
	if err != nil {
		return err
	}
	reply, err := c.messenger.Send(c.name, message)
	if err != nil {
		return err
	}
	_, err = c.codec.DecodeEnvelope(reply)
	return err
}

// EventSubscription is an app-side handle on a broadcast stream
type EventSubscription struct {
	ID      string
	channel *EventChannel
	once    sync.Once
	err     error
}

// Cancel detaches the app listener and asks the platform to stop the
// stream. Calling it again returns the first result.
func (s *EventSubscription) Cancel() error {
	s.once.Do(func() {
		s.channel.messenger.SetListener(s.channel.name, nil)
		if err := s.channel.invoke(methodCancel, nil); err != nil {
			s.err = fmt.Errorf("cancel on %s: %w", s.channel.name, err)
		}
	})
	return s.err
}

type eventSink struct {
	channel *EventChannel
	id      string

	mu    sync.Mutex
	ended bool
}

func (s *eventSink) deliver(envelope []byte) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()

	if ended || !s.channel.isActive(s) {
		logger.Trace(s.channel.name, "Dropped event from inactive sink [%s]", s.id[:8])
		return
	}
	s.channel.messenger.Deliver(s.channel.name, envelope)
}

func (s *eventSink) Success(event interface{}) {
	envelope, err := s.channel.codec.EncodeSuccessEnvelope(event)
	if err != nil {
		logger.Error(s.channel.name, "Failed to encode event: %v", err)
		return
	}
	s.deliver(envelope)
}

func (s *eventSink) Error(code, message string, details interface{}) {
	envelope, err := s.channel.codec.EncodeErrorEnvelope(code, message, details)
	if err != nil {
		logger.Error(s.channel.name, "Failed to encode error event: %v", err)
		return
	}
	s.deliver(envelope)
}

func (s *eventSink) EndOfStream() {
	s.deliver(nil)

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}
