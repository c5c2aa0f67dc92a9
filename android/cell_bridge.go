package android

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/user/ciber-radar/flutter"
	"github.com/user/ciber-radar/kotlin"
	"github.com/user/ciber-radar/logger"
)

// Channel names shared with the app layer
const (
	MethodChannelName = "com.ciberradar/cell"
	EventChannelName  = "com.ciberradar/cell_updates"
)

const methodGetCells = "getCells"

// Error reply for getCells when no cell data can be read
const (
	ErrorCodeUnavailable    = "UNAVAILABLE"
	ErrorMessageUnavailable = "Cell info unavailable"
)

// ErrCellInfoUnavailable is the single absence signal of FetchCells.
// Permission denial and platform faults both map to it.
var ErrCellInfoUnavailable = errors.New("cell info unavailable")

// nrDescriptionMarker identifies vendor CellInfo subclasses wrapping NR data
const nrDescriptionMarker = "CellInfoNr"

type failureKind int

const (
	failurePermissionDenied failureKind = iota
	failurePlatformUnavailable
)

func (k failureKind) String() string {
	if k == failurePermissionDenied {
		return "permission denied"
	}
	return "platform unavailable"
}

// CellBridge exposes telephony cell info to the app layer over a method
// channel (on demand) and an event channel (pushed on signal changes).
// It is the PhoneStateListener it registers with the TelephonyManager.
type CellBridge struct {
	ctx *kotlin.Context
	tag string

	// At most one sink; a second OnListen overwrites it
	mu        sync.RWMutex
	eventSink flutter.EventSink
}

// NewCellBridge creates a bridge bound to an application context
func NewCellBridge(ctx *kotlin.Context) *CellBridge {
	return &CellBridge{
		ctx: ctx,
		tag: fmt.Sprintf("API%d CellBridge", ctx.SdkInt()),
	}
}

// ConfigureChannels installs the getCells handler and the update stream
// handler on messenger
func (b *CellBridge) ConfigureChannels(messenger *flutter.BinaryMessenger) {
	flutter.NewMethodChannel(messenger, MethodChannelName).SetMethodCallHandler(b.onMethodCall)
	flutter.NewEventChannel(messenger, EventChannelName).SetStreamHandler(b)

	logger.Info(b.tag, "📡 Channels configured (%s, %s)", MethodChannelName, EventChannelName)
}

func (b *CellBridge) onMethodCall(call *flutter.MethodCall, result flutter.Result) {
	if call.Method != methodGetCells {
		result.NotImplemented()
		return
	}

	records, err := b.FetchCells()
	if err != nil {
		result.Error(ErrorCodeUnavailable, ErrorMessageUnavailable, nil)
		return
	}
	result.Success(CellRecordsToPayload(records))
}

func (b *CellBridge) telephony() *kotlin.TelephonyManager {
	tm, _ := b.ctx.GetSystemService(kotlin.TELEPHONY_SERVICE).(*kotlin.TelephonyManager)
	return tm
}

// FetchCells reads the visible cells and the operator name and returns
// one record per LTE, GSM, WCDMA or NR cell, in platform order. Cells of
// any other kind are dropped. A platform that reports no list, denies the
// location permission, or fails in any other way yields
// ErrCellInfoUnavailable.
func (b *CellBridge) FetchCells() (records []CellRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logFailure(failurePlatformUnavailable, r)
			records, err = nil, ErrCellInfoUnavailable
		}
	}()

	tm := b.telephony()
	if tm == nil {
		b.logFailure(failurePlatformUnavailable, "no telephony service")
		return nil, ErrCellInfoUnavailable
	}

	cells, err := tm.GetAllCellInfo()
	if err != nil {
		var secErr *kotlin.SecurityException
		if errors.As(err, &secErr) {
			b.logFailure(failurePermissionDenied, err)
		} else {
			b.logFailure(failurePlatformUnavailable, err)
		}
		return nil, ErrCellInfoUnavailable
	}
	if cells == nil {
		b.logFailure(failurePlatformUnavailable, "getAllCellInfo returned null")
		return nil, ErrCellInfoUnavailable
	}

	operator := tm.GetNetworkOperatorName()
	if operator == "" {
		operator = UnknownOperator
	}

	records = make([]CellRecord, 0, len(cells))
	for _, info := range cells {
		if info == nil {
			continue
		}

		radio := b.classify(info)
		if radio == RadioUnknown {
			logger.Trace(b.tag, "Skipping unrecognized cell: %s", info)
			continue
		}

		record := translators[radio](info)
		record.IsRegistered = info.IsRegistered()
		record.Timestamp = info.GetTimeStamp()
		record.Operator = operator
		records = append(records, record)
	}

	logger.DebugJSON(b.tag, fmt.Sprintf("Fetched %d of %d cells", len(records), len(cells)), CellRecordsToPayload(records))
	return records, nil
}

// classify maps a platform CellInfo onto a RadioType. NR needs API 29; on
// newer platforms vendor subclasses are recognized by their description.
func (b *CellBridge) classify(info kotlin.CellInfo) RadioType {
	nrSupported := b.ctx.SdkInt() >= kotlin.VERSION_CODES_Q

	switch info.(type) {
	case *kotlin.CellInfoLte:
		return RadioLTE
	case *kotlin.CellInfoGsm:
		return RadioGSM
	case *kotlin.CellInfoWcdma:
		return RadioWCDMA
	case *kotlin.CellInfoNr:
		if nrSupported {
			return RadioNR
		}
		return RadioUnknown
	}

	if nrSupported && strings.Contains(info.String(), nrDescriptionMarker) {
		return RadioNR
	}
	return RadioUnknown
}

func (b *CellBridge) logFailure(kind failureKind, cause interface{}) {
	logger.Debug(b.tag, "Cell info unavailable (%s): %v", kind, cause)
}

// StartMonitoring registers for signal strength changes. Calling it twice
// without StopMonitoring in between is the caller's mistake to avoid.
func (b *CellBridge) StartMonitoring() {
	tm := b.telephony()
	if tm == nil {
		return
	}
	tm.Listen(b, kotlin.LISTEN_SIGNAL_STRENGTHS)
	logger.Info(b.tag, "📶 Monitoring signal strength")
}

// StopMonitoring unregisters from signal strength changes; safe when not started
func (b *CellBridge) StopMonitoring() {
	tm := b.telephony()
	if tm == nil {
		return
	}
	tm.Listen(b, kotlin.LISTEN_NONE)
	logger.Info(b.tag, "🔕 Stopped monitoring signal strength")
}

// OnSignalStrengthsChanged implements kotlin.PhoneStateListener. It pushes
// a fresh batch to the attached sink; when no cells can be read or nothing
// is attached the update is dropped.
func (b *CellBridge) OnSignalStrengthsChanged(signalStrength *kotlin.SignalStrength) {
	records, err := b.FetchCells()
	if err != nil {
		return
	}

	sink := b.sink()
	if sink == nil {
		return
	}
	sink.Success(CellRecordsToPayload(records))
}

// OnListen implements flutter.StreamHandler
func (b *CellBridge) OnListen(arguments interface{}, events flutter.EventSink) {
	b.mu.Lock()
	replaced := b.eventSink != nil
	b.eventSink = events
	b.mu.Unlock()

	if replaced {
		logger.Debug(b.tag, "Update subscriber replaced")
	}
	b.StartMonitoring()
}

// OnCancel implements flutter.StreamHandler
func (b *CellBridge) OnCancel(arguments interface{}) {
	b.StopMonitoring()

	b.mu.Lock()
	b.eventSink = nil
	b.mu.Unlock()
}

// HasSubscriber reports whether an update sink is attached
func (b *CellBridge) HasSubscriber() bool {
	return b.sink() != nil
}

func (b *CellBridge) sink() flutter.EventSink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.eventSink
}
