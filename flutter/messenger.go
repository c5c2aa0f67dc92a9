package flutter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/user/ciber-radar/logger"
)

// ErrNoHandler is returned by Send when nothing is registered on the channel
var ErrNoHandler = errors.New("no handler registered for channel")

// BinaryReply answers a message; a nil reply means "not implemented"
type BinaryReply func(reply []byte)

// BinaryMessageHandler handles app-to-platform messages on one channel
type BinaryMessageHandler func(message []byte, reply BinaryReply)

// BinaryMessageListener receives platform-to-app messages on one channel
type BinaryMessageListener func(message []byte)

// BinaryMessenger routes messages between the app layer and platform code by
// channel name. App code calls Send and the platform's handler replies;
// platform code calls Deliver and the app's listener receives.
type BinaryMessenger struct {
	mu        sync.RWMutex
	handlers  map[string]BinaryMessageHandler
	listeners map[string]BinaryMessageListener
}

// NewBinaryMessenger creates an empty messenger
func NewBinaryMessenger() *BinaryMessenger {
	return &BinaryMessenger{
		handlers:  make(map[string]BinaryMessageHandler),
		listeners: make(map[string]BinaryMessageListener),
	}
}

// SetMessageHandler matches: binaryMessenger.setMessageHandler(channel, handler)
// A nil handler unregisters the channel.
func (m *BinaryMessenger) SetMessageHandler(channel string, handler BinaryMessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handler == nil {
		delete(m.handlers, channel)
		return
	}
	m.handlers[channel] = handler
}

// SetListener registers the app-side receiver for platform messages.
// A nil listener unregisters the channel.
func (m *BinaryMessenger) SetListener(channel string, listener BinaryMessageListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if listener == nil {
		delete(m.listeners, channel)
		return
	}
	m.listeners[channel] = listener
}

// Send delivers message to the platform handler for channel and returns its
// reply. Handlers must reply before returning; only the first reply counts.
func (m *BinaryMessenger) Send(channel string, message []byte) ([]byte, error) {
	m.mu.RLock()
	handler := m.handlers[channel]
	m.mu.RUnlock()

	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, channel)
	}

	msgID := uuid.New().String()
	logger.Trace("Messenger", "➡️  %s [%s] %d bytes", channel, msgID[:8], len(message))

	var (
		replyMu sync.Mutex
		replied bool
		out     []byte
	)
	handler(message, func(reply []byte) {
		replyMu.Lock()
		defer replyMu.Unlock()
		if replied {
			logger.Warn("Messenger", "⚠️  %s [%s] replied more than once", channel, msgID[:8])
			return
		}
		replied = true
		out = reply
	})

	replyMu.Lock()
	defer replyMu.Unlock()
	logger.Trace("Messenger", "⬅️  %s [%s] %d bytes", channel, msgID[:8], len(out))
	return out, nil
}

// Deliver pushes a platform-originated message to the app listener.
// Returns false when no listener is attached.
func (m *BinaryMessenger) Deliver(channel string, message []byte) bool {
	m.mu.RLock()
	listener := m.listeners[channel]
	m.mu.RUnlock()

	if listener == nil {
		logger.Trace("Messenger", "📭 %s: no listener, dropped %d bytes", channel, len(message))
		return false
	}

	listener(message)
	return true
}
