package kotlin

import (
	"errors"
	"strings"
	"testing"
)

// testPhoneStateListener records signal strength callbacks
type testPhoneStateListener struct {
	onSignalStrengthsChanged func(signalStrength *SignalStrength)
	calls                    int
}

func (l *testPhoneStateListener) OnSignalStrengthsChanged(signalStrength *SignalStrength) {
	l.calls++
	if l.onSignalStrengthsChanged != nil {
		l.onSignalStrengthsChanged(signalStrength)
	}
}

func newGrantedContext() *Context {
	ctx := NewContext(VERSION_CODES_Q)
	ctx.GrantPermission(ACCESS_FINE_LOCATION)
	return ctx
}

// TestGetAllCellInfo_RequiresLocationPermission verifies the SecurityException path
func TestGetAllCellInfo_RequiresLocationPermission(t *testing.T) {
	ctx := NewContext(VERSION_CODES_Q)
	tm := ctx.GetTelephonyManager()
	tm.SetAllCellInfo([]CellInfo{&CellInfoLte{}})

	cells, err := tm.GetAllCellInfo()
	if cells != nil {
		t.Errorf("Expected no cells without permission, got %d", len(cells))
	}

	var secErr *SecurityException
	if !errors.As(err, &secErr) {
		t.Fatalf("Expected SecurityException, got %v", err)
	}
	if secErr.Permission != ACCESS_FINE_LOCATION {
		t.Errorf("Wrong permission in exception: %s", secErr.Permission)
	}

	ctx.GrantPermission(ACCESS_FINE_LOCATION)
	cells, err = tm.GetAllCellInfo()
	if err != nil || len(cells) != 1 {
		t.Fatalf("Expected 1 cell after grant, got %d (err=%v)", len(cells), err)
	}

	t.Logf("✅ getAllCellInfo enforces ACCESS_FINE_LOCATION")
}

// TestGetAllCellInfo_NilVersusEmpty verifies absent and empty lists stay distinct
func TestGetAllCellInfo_NilVersusEmpty(t *testing.T) {
	tm := newGrantedContext().GetTelephonyManager()

	cells, err := tm.GetAllCellInfo()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cells != nil {
		t.Errorf("Expected nil list before the modem reports, got %v", cells)
	}

	tm.SetAllCellInfo([]CellInfo{})
	cells, err = tm.GetAllCellInfo()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cells == nil || len(cells) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", cells)
	}
}

// TestGetAllCellInfo_ReturnsCopy verifies callers cannot mutate modem state
func TestGetAllCellInfo_ReturnsCopy(t *testing.T) {
	tm := newGrantedContext().GetTelephonyManager()
	tm.SetAllCellInfo([]CellInfo{&CellInfoGsm{}, &CellInfoWcdma{}})

	cells, _ := tm.GetAllCellInfo()
	cells[0] = nil

	again, _ := tm.GetAllCellInfo()
	if again[0] == nil {
		t.Error("Mutating the returned slice changed the modem state")
	}
}

// TestGetAllCellInfo_InjectedFailures verifies error and crash injection
func TestGetAllCellInfo_InjectedFailures(t *testing.T) {
	tm := newGrantedContext().GetTelephonyManager()
	tm.SetAllCellInfo([]CellInfo{})

	boom := errors.New("modem offline")
	tm.SetFailure(boom)
	if _, err := tm.GetAllCellInfo(); !errors.Is(err, boom) {
		t.Errorf("Expected injected failure, got %v", err)
	}
	tm.SetFailure(nil)

	tm.SetCrash("radio HAL died")
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected GetAllCellInfo to panic")
			}
			if !strings.Contains(r.(string), "IllegalStateException") {
				t.Errorf("Unexpected panic value: %v", r)
			}
		}()
		tm.GetAllCellInfo()
	}()
	tm.SetCrash("")

	if _, err := tm.GetAllCellInfo(); err != nil {
		t.Errorf("Expected recovery after clearing faults, got %v", err)
	}
}

// TestListen_RegisterAndUnregister verifies LISTEN_SIGNAL_STRENGTHS / LISTEN_NONE
func TestListen_RegisterAndUnregister(t *testing.T) {
	tm := newGrantedContext().GetTelephonyManager()
	listener := &testPhoneStateListener{}

	// Unregistering something never registered is a no-op
	tm.Listen(listener, LISTEN_NONE)
	if tm.ListenerCount() != 0 {
		t.Fatalf("Expected 0 listeners, got %d", tm.ListenerCount())
	}

	tm.Listen(listener, LISTEN_SIGNAL_STRENGTHS)
	if listener.calls != 0 {
		t.Errorf("No signal known yet, expected no immediate callback")
	}

	var lastLevel int
	listener.onSignalStrengthsChanged = func(ss *SignalStrength) {
		lastLevel = ss.Level
	}
	tm.UpdateSignalStrength(&SignalStrength{Level: 3})
	if listener.calls != 1 || lastLevel != 3 {
		t.Errorf("Expected 1 callback at level 3, got %d calls level %d", listener.calls, lastLevel)
	}

	tm.Listen(listener, LISTEN_NONE)
	tm.UpdateSignalStrength(&SignalStrength{Level: 1})
	if listener.calls != 1 {
		t.Errorf("Callback delivered after LISTEN_NONE")
	}

	t.Logf("✅ Listener registration follows LISTEN_* masks")
}

// TestListen_ImmediateDeliveryOfKnownSignal matches the platform behavior of
// replaying the current signal strength on registration
func TestListen_ImmediateDeliveryOfKnownSignal(t *testing.T) {
	tm := newGrantedContext().GetTelephonyManager()
	tm.UpdateSignalStrength(&SignalStrength{Level: 2})

	listener := &testPhoneStateListener{}
	tm.Listen(listener, LISTEN_SIGNAL_STRENGTHS)

	if listener.calls != 1 {
		t.Errorf("Expected immediate callback with known signal, got %d", listener.calls)
	}
}

// TestCellInfo_Descriptions verifies toString-style descriptions carry the class name
func TestCellInfo_Descriptions(t *testing.T) {
	cells := map[string]CellInfo{
		"CellInfoLte":   &CellInfoLte{CellIdentity: CellIdentityLte{Ci: 100, Tac: 20}},
		"CellInfoGsm":   &CellInfoGsm{},
		"CellInfoWcdma": &CellInfoWcdma{},
		"CellInfoNr":    &CellInfoNr{CellIdentity: CellIdentityNr{Nci: 68719476735}},
		"CellInfoCdma":  &CellInfoCdma{},
	}

	for prefix, cell := range cells {
		if !strings.HasPrefix(cell.String(), prefix+":{") {
			t.Errorf("Description %q does not start with %s", cell.String(), prefix)
		}
	}

	lte := &CellInfoLte{CellInfoBase: CellInfoBase{Registered: true, TimeStamp: 5000}}
	if !lte.IsRegistered() || lte.GetTimeStamp() != 5000 {
		t.Errorf("Base fields not promoted: %s", lte)
	}
}

// TestContext_GetSystemService verifies the telephony service lookup
func TestContext_GetSystemService(t *testing.T) {
	ctx := NewContext(VERSION_CODES_P)

	tm, ok := ctx.GetSystemService(TELEPHONY_SERVICE).(*TelephonyManager)
	if !ok || tm != ctx.GetTelephonyManager() {
		t.Fatal("TELEPHONY_SERVICE did not return the context's TelephonyManager")
	}
	if ctx.GetSystemService("bluetooth") != nil {
		t.Error("Unknown services should return nil")
	}
	if ctx.SdkInt() != VERSION_CODES_P {
		t.Errorf("Wrong SDK level: %d", ctx.SdkInt())
	}

	ctx.GrantPermission(ACCESS_FINE_LOCATION)
	ctx.RevokePermission(ACCESS_FINE_LOCATION)
	if ctx.CheckSelfPermission(ACCESS_FINE_LOCATION) != PERMISSION_DENIED {
		t.Error("Revoked permission still granted")
	}
}
