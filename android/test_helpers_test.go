package android

import (
	"sync"
	"testing"

	"github.com/user/ciber-radar/flutter"
	"github.com/user/ciber-radar/kotlin"
)

// testDevice wires a bridge to a simulated phone and a messenger
type testDevice struct {
	ctx       *kotlin.Context
	tm        *kotlin.TelephonyManager
	bridge    *CellBridge
	messenger *flutter.BinaryMessenger
	method    *flutter.MethodChannel
	events    *flutter.EventChannel
}

func newTestDevice(t *testing.T, sdkInt int) *testDevice {
	t.Helper()

	ctx := kotlin.NewContext(sdkInt)
	ctx.GrantPermission(kotlin.ACCESS_FINE_LOCATION)

	messenger := flutter.NewBinaryMessenger()
	bridge := NewCellBridge(ctx)
	bridge.ConfigureChannels(messenger)

	return &testDevice{
		ctx:       ctx,
		tm:        ctx.GetTelephonyManager(),
		bridge:    bridge,
		messenger: messenger,
		method:    flutter.NewMethodChannel(messenger, MethodChannelName),
		events:    flutter.NewEventChannel(messenger, EventChannelName),
	}
}

// getCells calls getCells over the method channel and parses the reply
func (d *testDevice) getCells(t *testing.T) ([]CellRecord, error) {
	t.Helper()

	value, err := d.method.InvokeMethod("getCells", nil)
	if err != nil {
		return nil, err
	}
	records, perr := ParseCellRecords(value)
	if perr != nil {
		t.Fatalf("Failed to parse getCells reply: %v", perr)
	}
	return records, nil
}

func lteCell(ci, tac, dbm, asu int, registered bool, ts int64) *kotlin.CellInfoLte {
	return &kotlin.CellInfoLte{
		CellInfoBase:       kotlin.CellInfoBase{Registered: registered, TimeStamp: ts},
		CellIdentity:       kotlin.CellIdentityLte{Ci: ci, Tac: tac},
		CellSignalStrength: kotlin.CellSignalStrength{Dbm: dbm, AsuLevel: asu},
	}
}

func gsmCell(cid, lac, dbm, asu int, ts int64) *kotlin.CellInfoGsm {
	return &kotlin.CellInfoGsm{
		CellInfoBase:       kotlin.CellInfoBase{TimeStamp: ts},
		CellIdentity:       kotlin.CellIdentityGsm{Cid: cid, Lac: lac},
		CellSignalStrength: kotlin.CellSignalStrength{Dbm: dbm, AsuLevel: asu},
	}
}

func wcdmaCell(cid, lac, dbm, asu int, ts int64) *kotlin.CellInfoWcdma {
	return &kotlin.CellInfoWcdma{
		CellInfoBase:       kotlin.CellInfoBase{TimeStamp: ts},
		CellIdentity:       kotlin.CellIdentityWcdma{Cid: cid, Lac: lac},
		CellSignalStrength: kotlin.CellSignalStrength{Dbm: dbm, AsuLevel: asu},
	}
}

// vendorCellInfo is an OEM CellInfo subclass the bridge only knows by description
type vendorCellInfo struct {
	kotlin.CellInfoBase
	description string
}

func (v *vendorCellInfo) String() string {
	return v.description
}

// testEventSink records what the bridge pushes
type testEventSink struct {
	mu     sync.Mutex
	events []interface{}
}

func (s *testEventSink) Success(event interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *testEventSink) Error(code, message string, details interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, &flutter.PlatformError{Code: code, Message: message, Details: details})
}

func (s *testEventSink) EndOfStream() {}

func (s *testEventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
