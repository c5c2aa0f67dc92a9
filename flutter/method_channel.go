package flutter

import (
	"sync"

	"github.com/user/ciber-radar/logger"
)

// Result matches MethodChannel.Result: exactly one of the three should be
// called per call. Later answers are ignored.
type Result interface {
	Success(result interface{})
	Error(code, message string, details interface{})
	NotImplemented()
}

// MethodCallHandler matches MethodChannel.MethodCallHandler
type MethodCallHandler func(call *MethodCall, result Result)

// MethodChannel is a named request/response channel
type MethodChannel struct {
	messenger *BinaryMessenger
	name      string
	codec     StandardMethodCodec
}

// NewMethodChannel matches: MethodChannel(binaryMessenger, name)
func NewMethodChannel(messenger *BinaryMessenger, name string) *MethodChannel {
	return &MethodChannel{
		messenger: messenger,
		name:      name,
	}
}

// Name returns the channel name
func (c *MethodChannel) Name() string {
	return c.name
}

// SetMethodCallHandler matches: methodChannel.setMethodCallHandler(handler)
// A nil handler unregisters the channel.
func (c *MethodChannel) SetMethodCallHandler(handler MethodCallHandler) {
	if handler == nil {
		c.messenger.SetMessageHandler(c.name, nil)
		return
	}

	c.messenger.SetMessageHandler(c.name, func(message []byte, reply BinaryReply) {
		call, err := c.codec.DecodeMethodCall(message)
		if err != nil {
			logger.Error(c.name, "Failed to decode method call: %v", err)
			result := &methodResult{channel: c.name, codec: c.codec, reply: reply}
			result.Error("error", err.Error(), nil)
			return
		}

		handler(call, &methodResult{channel: c.name, codec: c.codec, reply: reply})
	})
}

// InvokeMethod is the app-side call: it sends method with arguments and
// decodes the reply into a value, a *PlatformError, or ErrNotImplemented.
func (c *MethodChannel) InvokeMethod(method string, arguments interface{}) (interface{}, error) {
	message, err := c.codec.EncodeMethodCall(&MethodCall{Method: method, Arguments: arguments})
	if err != nil {
		return nil, err
	}

	reply, err := c.messenger.Send(c.name, message)
	if err != nil {
		return nil, err
	}
	return c.codec.DecodeEnvelope(reply)
}

type methodResult struct {
	channel string
	codec   StandardMethodCodec
	reply   BinaryReply
	once    sync.Once
}

func (r *methodResult) Success(result interface{}) {
	r.once.Do(func() {
		envelope, err := r.codec.EncodeSuccessEnvelope(result)
		if err != nil {
			logger.Error(r.channel, "Failed to encode result: %v", err)
			envelope, _ = r.codec.EncodeErrorEnvelope("error", err.Error(), nil)
		}
		r.reply(envelope)
	})
}

func (r *methodResult) Error(code, message string, details interface{}) {
	r.once.Do(func() {
		envelope, err := r.codec.EncodeErrorEnvelope(code, message, details)
		if err != nil {
			logger.Error(r.channel, "Failed to encode error details: %v", err)
			envelope, _ = r.codec.EncodeErrorEnvelope(code, message, nil)
		}
		r.reply(envelope)
	})
}

func (r *methodResult) NotImplemented() {
	r.once.Do(func() {
		r.reply(nil)
	})
}
