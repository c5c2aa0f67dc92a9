package kotlin

import (
	"fmt"
	"sync"

	"github.com/user/ciber-radar/logger"
)

// PhoneStateListener event masks
// Matches: PhoneStateListener.LISTEN_NONE / LISTEN_SIGNAL_STRENGTHS
const (
	LISTEN_NONE             = 0
	LISTEN_SIGNAL_STRENGTHS = 0x00000100
)

// PhoneStateListener matches the callback half of Android's PhoneStateListener
type PhoneStateListener interface {
	OnSignalStrengthsChanged(signalStrength *SignalStrength)
}

// SignalStrength matches Android's SignalStrength snapshot.
// Level is the 0-4 bar count shown in the status bar.
type SignalStrength struct {
	Level int
}

// SecurityException is returned when a call needs a runtime permission
// the app does not hold
type SecurityException struct {
	Permission string
}

func (e *SecurityException) Error() string {
	return fmt.Sprintf("SecurityException: caller does not hold %s", e.Permission)
}

// TelephonyManager matches Android's TelephonyManager for the cell info
// and signal strength APIs. The setters are the simulator's modem side.
type TelephonyManager struct {
	ctx *Context

	mu             sync.Mutex
	cellInfo       []CellInfo
	operatorName   string
	failure        error
	crash          string
	signalStrength *SignalStrength
	listeners      map[PhoneStateListener]int
}

func newTelephonyManager(ctx *Context) *TelephonyManager {
	return &TelephonyManager{
		ctx:       ctx,
		listeners: make(map[PhoneStateListener]int),
	}
}

func (t *TelephonyManager) tag() string {
	return fmt.Sprintf("API%d Telephony", t.ctx.SdkInt())
}

// GetAllCellInfo matches: telephonyManager.getAllCellInfo()
// Requires ACCESS_FINE_LOCATION. A nil slice means the modem has not
// reported yet; an empty slice means no cells are visible.
func (t *TelephonyManager) GetAllCellInfo() ([]CellInfo, error) {
	if t.ctx.CheckSelfPermission(ACCESS_FINE_LOCATION) != PERMISSION_GRANTED {
		return nil, &SecurityException{Permission: ACCESS_FINE_LOCATION}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.crash != "" {
		panic(fmt.Sprintf("IllegalStateException: %s", t.crash))
	}
	if t.failure != nil {
		return nil, t.failure
	}
	if t.cellInfo == nil {
		return nil, nil
	}

	cells := make([]CellInfo, len(t.cellInfo))
	copy(cells, t.cellInfo)
	return cells, nil
}

// GetNetworkOperatorName matches: telephonyManager.getNetworkOperatorName()
// Returns "" when not registered to a network.
func (t *TelephonyManager) GetNetworkOperatorName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.operatorName
}

// Listen matches: telephonyManager.listen(listener, events)
// LISTEN_NONE unregisters the listener; unknown listeners are ignored.
// Registering for signal strengths delivers the last known value right away.
func (t *TelephonyManager) Listen(listener PhoneStateListener, events int) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	if events == LISTEN_NONE {
		if _, ok := t.listeners[listener]; ok {
			delete(t.listeners, listener)
			logger.Trace(t.tag(), "🔕 Listener removed (%d remaining)", len(t.listeners))
		}
		t.mu.Unlock()
		return
	}

	t.listeners[listener] = events
	current := t.signalStrength
	t.mu.Unlock()

	logger.Trace(t.tag(), "🔔 Listener registered (events=0x%x)", events)

	if events&LISTEN_SIGNAL_STRENGTHS != 0 && current != nil {
		listener.OnSignalStrengthsChanged(current)
	}
}

// ListenerCount returns how many listeners are registered
func (t *TelephonyManager) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// SetAllCellInfo replaces the modem's view of visible cells.
// Pass nil to make GetAllCellInfo report no data.
func (t *TelephonyManager) SetAllCellInfo(cells []CellInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cells == nil {
		t.cellInfo = nil
		return
	}
	t.cellInfo = make([]CellInfo, len(cells))
	copy(t.cellInfo, cells)
}

// SetNetworkOperatorName sets the registered network's display name
func (t *TelephonyManager) SetNetworkOperatorName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operatorName = name
}

// SetFailure makes GetAllCellInfo return err until cleared with nil
func (t *TelephonyManager) SetFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failure = err
}

// SetCrash makes GetAllCellInfo panic with an IllegalStateException-style
// message until cleared with ""
func (t *TelephonyManager) SetCrash(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.crash = reason
}

// UpdateSignalStrength records a new signal strength and notifies every
// listener registered for LISTEN_SIGNAL_STRENGTHS. Callbacks run on the
// calling goroutine, which plays the role of the telephony thread.
func (t *TelephonyManager) UpdateSignalStrength(signalStrength *SignalStrength) {
	if signalStrength == nil {
		signalStrength = &SignalStrength{}
	}

	t.mu.Lock()
	t.signalStrength = signalStrength
	var targets []PhoneStateListener
	for listener, events := range t.listeners {
		if events&LISTEN_SIGNAL_STRENGTHS != 0 {
			targets = append(targets, listener)
		}
	}
	t.mu.Unlock()

	logger.Trace(t.tag(), "📶 Signal strength changed (level=%d, %d listeners)", signalStrength.Level, len(targets))

	for _, listener := range targets {
		listener.OnSignalStrengthsChanged(signalStrength)
	}
}
