package tests

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/user/ciber-radar/android"
	"github.com/user/ciber-radar/flutter"
	"github.com/user/ciber-radar/kotlin"
	"github.com/user/ciber-radar/logger"
)

// ScenarioRunner executes a scenario against a real CellBridge, talking to
// it only through the message channels the app layer uses
type ScenarioRunner struct {
	scenario *Scenario
	RunID    string

	// Realtime waits out the offsets between timeline events
	Realtime bool

	ctx       *kotlin.Context
	tm        *kotlin.TelephonyManager
	bridge    *android.CellBridge
	messenger *flutter.BinaryMessenger
	method    *flutter.MethodChannel
	events    *flutter.EventChannel

	subscription *flutter.EventSubscription
	currentStep  int

	calls            []CallResult
	emitted          []EmittedBatch
	eventLog         []EventLogEntry
	assertionResults []AssertionResult
	startTime        time.Time
	elapsed          time.Duration
}

// CallResult is the app-side outcome of one getCells call
type CallResult struct {
	Step    int
	Records []android.CellRecord
	Err     error
}

// Unavailable reports whether the call failed with the UNAVAILABLE code
func (c CallResult) Unavailable() bool {
	var pe *flutter.PlatformError
	return errors.As(c.Err, &pe) && pe.Code == android.ErrorCodeUnavailable
}

// EmittedBatch is one batch received on the update stream
type EmittedBatch struct {
	Step    int
	Records []android.CellRecord
}

// EventLogEntry records something that happened during the run
type EventLogEntry struct {
	Step      int
	At        time.Duration
	EventType string
	Message   string
}

// AssertionResult records the outcome of an assertion
type AssertionResult struct {
	Assertion *Assertion
	Passed    bool
	Message   string
}

// NewScenarioRunner creates a new scenario runner
func NewScenarioRunner(scenario *Scenario) *ScenarioRunner {
	return &ScenarioRunner{
		scenario: scenario,
		RunID:    uuid.New().String(),
	}
}

// Scenario returns the scenario being run
func (r *ScenarioRunner) Scenario() *Scenario {
	return r.scenario
}

// Setup validates the scenario and builds the phone, bridge and channels
func (r *ScenarioRunner) Setup() error {
	if errs := r.scenario.Validate(); len(errs) > 0 {
		return fmt.Errorf("scenario validation failed: %v", errs)
	}

	device := r.scenario.Device
	r.ctx = kotlin.NewContext(device.SdkInt)
	if device.LocationPermission {
		r.ctx.GrantPermission(kotlin.ACCESS_FINE_LOCATION)
	}

	r.tm = r.ctx.GetTelephonyManager()
	r.tm.SetNetworkOperatorName(device.Operator)
	if !device.NoCellInfo {
		cells, err := buildCellInfos(device.Cells)
		if err != nil {
			return fmt.Errorf("device: %w", err)
		}
		r.tm.SetAllCellInfo(cells)
	}

	r.messenger = flutter.NewBinaryMessenger()
	r.bridge = android.NewCellBridge(r.ctx)
	r.bridge.ConfigureChannels(r.messenger)

	r.method = flutter.NewMethodChannel(r.messenger, android.MethodChannelName)
	r.events = flutter.NewEventChannel(r.messenger, android.EventChannelName)

	logger.Debug("Scenario", "[%s] %s set up on API %d", r.RunID[:8], r.scenario.Name, device.SdkInt)
	return nil
}

// Run executes the timeline in order of offset
func (r *ScenarioRunner) Run() error {
	if r.bridge == nil {
		return fmt.Errorf("runner not set up")
	}

	r.startTime = time.Now()
	defer func() { r.elapsed = time.Since(r.startTime) }()

	sort.SliceStable(r.scenario.Timeline, func(i, j int) bool {
		return r.scenario.Timeline[i].At < r.scenario.Timeline[j].At
	})

	var last time.Duration
	for i := range r.scenario.Timeline {
		event := &r.scenario.Timeline[i]
		at := time.Duration(event.At)
		if r.Realtime && at > last {
			time.Sleep(at - last)
		}
		last = at

		r.currentStep = i
		r.logEvent(event.Action, event.Comment)
		if err := r.executeEvent(event); err != nil {
			r.logEvent("error", fmt.Sprintf("Failed to execute %s: %v", event.Action, err))
			return fmt.Errorf("timeline[%d] %s: %w", i, event.Action, err)
		}
	}

	if r.subscription != nil {
		if err := r.subscription.Cancel(); err != nil {
			r.logEvent("error", fmt.Sprintf("Failed to cancel stream at end: %v", err))
		}
		r.subscription = nil
	}
	return nil
}

func (r *ScenarioRunner) executeEvent(event *TimelineEvent) error {
	switch event.Action {
	case ActionGetCells:
		return r.handleGetCells()
	case ActionSubscribe:
		return r.handleSubscribe()
	case ActionUnsubscribe:
		return r.handleUnsubscribe()
	case ActionSignalChange:
		r.tm.UpdateSignalStrength(&kotlin.SignalStrength{Level: event.Level})
	case ActionSetCells:
		cells, err := buildCellInfos(event.Cells)
		if err != nil {
			return err
		}
		r.tm.SetAllCellInfo(cells)
	case ActionClearCells:
		r.tm.SetAllCellInfo(nil)
	case ActionSetOperator:
		r.tm.SetNetworkOperatorName(event.Operator)
	case ActionRevokePermission:
		r.ctx.RevokePermission(kotlin.ACCESS_FINE_LOCATION)
	case ActionGrantPermission:
		r.ctx.GrantPermission(kotlin.ACCESS_FINE_LOCATION)
	case ActionInjectFailure:
		reason := event.Reason
		if reason == "" {
			reason = "RemoteException"
		}
		r.tm.SetFailure(errors.New(reason))
	case ActionClearFailure:
		r.tm.SetFailure(nil)
	case ActionCrash:
		reason := event.Reason
		if reason == "" {
			reason = "radio HAL died"
		}
		r.tm.SetCrash(reason)
	case ActionClearCrash:
		r.tm.SetCrash("")
	default:
		return fmt.Errorf("unknown action: %s", event.Action)
	}
	return nil
}

func (r *ScenarioRunner) handleGetCells() error {
	value, err := r.method.InvokeMethod("getCells", nil)
	result := CallResult{Step: r.currentStep, Err: err}
	if err == nil {
		records, perr := android.ParseCellRecords(value)
		if perr != nil {
			return perr
		}
		result.Records = records
		r.logEvent("reply", fmt.Sprintf("%d cells", len(records)))
	} else {
		r.logEvent("reply", err.Error())
	}

	r.calls = append(r.calls, result)
	return nil
}

func (r *ScenarioRunner) handleSubscribe() error {
	sub, err := r.events.ReceiveBroadcastStream(nil, flutter.EventHandler{
		OnEvent: func(event interface{}) {
			records, err := android.ParseCellRecords(event)
			if err != nil {
				r.logEvent("error", fmt.Sprintf("Undecodable batch: %v", err))
				return
			}
			r.emitted = append(r.emitted, EmittedBatch{Step: r.currentStep, Records: records})
			r.logEvent("event", fmt.Sprintf("%d cells", len(records)))
		},
		OnError: func(err error) {
			r.logEvent("error", fmt.Sprintf("Stream error: %v", err))
		},
	})
	if err != nil {
		return err
	}
	r.subscription = sub
	return nil
}

func (r *ScenarioRunner) handleUnsubscribe() error {
	if r.subscription == nil {
		return fmt.Errorf("not subscribed")
	}
	err := r.subscription.Cancel()
	r.subscription = nil
	return err
}

// Calls returns the getCells results in call order
func (r *ScenarioRunner) Calls() []CallResult {
	return r.calls
}

// Emitted returns the batches received on the update stream
func (r *ScenarioRunner) Emitted() []EmittedBatch {
	return r.emitted
}

// EventLog returns everything logged during the run
func (r *ScenarioRunner) EventLog() []EventLogEntry {
	return r.eventLog
}

// Elapsed returns the wall time of the last Run
func (r *ScenarioRunner) Elapsed() time.Duration {
	return r.elapsed
}

// CheckAssertions evaluates every assertion against the recorded run
func (r *ScenarioRunner) CheckAssertions() []AssertionResult {
	results := []AssertionResult{}
	for i := range r.scenario.Assertions {
		results = append(results, r.checkAssertion(&r.scenario.Assertions[i]))
	}
	r.assertionResults = results
	return results
}

// AssertionResults returns the results of the last CheckAssertions
func (r *ScenarioRunner) AssertionResults() []AssertionResult {
	return r.assertionResults
}

// Passed reports whether every checked assertion passed
func (r *ScenarioRunner) Passed() bool {
	for _, result := range r.assertionResults {
		if !result.Passed {
			return false
		}
	}
	return true
}

func (r *ScenarioRunner) checkAssertion(assertion *Assertion) AssertionResult {
	switch assertion.Type {
	case AssertionCallSucceeds:
		return r.checkCallSucceeds(assertion)
	case AssertionCallUnavailable:
		return r.checkCallUnavailable(assertion)
	case AssertionEventCount:
		return r.checkEventCount(assertion)
	case AssertionEventSize:
		return r.checkEventSize(assertion)
	case AssertionRecordField:
		return r.checkRecordField(assertion)
	default:
		return fail(assertion, "Unknown assertion type %q", assertion.Type)
	}
}

func pass(assertion *Assertion, format string, args ...interface{}) AssertionResult {
	return AssertionResult{Assertion: assertion, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(assertion *Assertion, format string, args ...interface{}) AssertionResult {
	return AssertionResult{Assertion: assertion, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func (r *ScenarioRunner) call(assertion *Assertion) (*CallResult, *AssertionResult) {
	if assertion.Call < 1 || assertion.Call > len(r.calls) {
		res := fail(assertion, "Call %d not made (%d calls)", assertion.Call, len(r.calls))
		return nil, &res
	}
	return &r.calls[assertion.Call-1], nil
}

func (r *ScenarioRunner) checkCallSucceeds(assertion *Assertion) AssertionResult {
	call, res := r.call(assertion)
	if res != nil {
		return *res
	}
	if call.Err != nil {
		return fail(assertion, "Call %d failed: %v", assertion.Call, call.Err)
	}
	if assertion.Count != nil && len(call.Records) != *assertion.Count {
		return fail(assertion, "Call %d returned %d cells, expected %d", assertion.Call, len(call.Records), *assertion.Count)
	}
	return pass(assertion, "Call %d returned %d cells", assertion.Call, len(call.Records))
}

func (r *ScenarioRunner) checkCallUnavailable(assertion *Assertion) AssertionResult {
	call, res := r.call(assertion)
	if res != nil {
		return *res
	}
	if call.Unavailable() {
		return pass(assertion, "Call %d was UNAVAILABLE", assertion.Call)
	}
	if call.Err != nil {
		return fail(assertion, "Call %d failed with %v, expected UNAVAILABLE", assertion.Call, call.Err)
	}
	return fail(assertion, "Call %d succeeded with %d cells, expected UNAVAILABLE", assertion.Call, len(call.Records))
}

func (r *ScenarioRunner) checkEventCount(assertion *Assertion) AssertionResult {
	if len(r.emitted) != *assertion.Count {
		return fail(assertion, "Received %d batches, expected %d", len(r.emitted), *assertion.Count)
	}
	return pass(assertion, "Received %d batches", len(r.emitted))
}

func (r *ScenarioRunner) checkEventSize(assertion *Assertion) AssertionResult {
	if assertion.Event > len(r.emitted) {
		return fail(assertion, "Batch %d not received (%d batches)", assertion.Event, len(r.emitted))
	}
	size := len(r.emitted[assertion.Event-1].Records)
	if size != *assertion.Count {
		return fail(assertion, "Batch %d has %d cells, expected %d", assertion.Event, size, *assertion.Count)
	}
	return pass(assertion, "Batch %d has %d cells", assertion.Event, size)
}

func (r *ScenarioRunner) checkRecordField(assertion *Assertion) AssertionResult {
	var records []android.CellRecord
	var source string

	if assertion.Call > 0 {
		call, res := r.call(assertion)
		if res != nil {
			return *res
		}
		if call.Err != nil {
			return fail(assertion, "Call %d failed: %v", assertion.Call, call.Err)
		}
		records = call.Records
		source = fmt.Sprintf("call %d", assertion.Call)
	} else {
		if assertion.Event > len(r.emitted) {
			return fail(assertion, "Batch %d not received (%d batches)", assertion.Event, len(r.emitted))
		}
		records = r.emitted[assertion.Event-1].Records
		source = fmt.Sprintf("batch %d", assertion.Event)
	}

	if assertion.Record < 0 || assertion.Record >= len(records) {
		return fail(assertion, "%s has no record %d", source, assertion.Record)
	}

	got := recordField(records[assertion.Record], assertion.Field)
	if got != assertion.Value {
		return fail(assertion, "%s record %d %s = %s, expected %s", source, assertion.Record, assertion.Field, got, assertion.Value)
	}
	return pass(assertion, "%s record %d %s = %s", source, assertion.Record, assertion.Field, got)
}

// recordField renders one payload field the way scenario files spell it
func recordField(record android.CellRecord, field string) string {
	value, ok := record.ToMap()[field]
	if !ok {
		return "<absent>"
	}
	return fmt.Sprint(value)
}

func (r *ScenarioRunner) logEvent(eventType, message string) {
	var at time.Duration
	if r.currentStep < len(r.scenario.Timeline) {
		at = time.Duration(r.scenario.Timeline[r.currentStep].At)
	}
	r.eventLog = append(r.eventLog, EventLogEntry{
		Step:      r.currentStep,
		At:        at,
		EventType: eventType,
		Message:   message,
	})
}

// PrintReport writes the run's event log and assertion results to w
func (r *ScenarioRunner) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n=== Scenario Report ===")
	fmt.Fprintf(w, "Name: %s\n", r.scenario.Name)
	fmt.Fprintf(w, "Description: %s\n", r.scenario.Description)
	fmt.Fprintf(w, "Duration: %v\n", r.scenario.Duration())

	fmt.Fprintln(w, "\n--- Event Log ---")
	for _, entry := range r.eventLog {
		fmt.Fprintf(w, "[%v] #%d %s: %s\n", entry.At, entry.Step, entry.EventType, entry.Message)
	}

	fmt.Fprintln(w, "\n--- Assertion Results ---")
	passed := 0
	for _, result := range r.assertionResults {
		status := "❌ FAIL"
		if result.Passed {
			status = "✅ PASS"
			passed++
		}
		fmt.Fprintf(w, "%s - %s: %s\n", status, result.Assertion.Type, result.Message)
	}

	fmt.Fprintf(w, "\nTotal: %d/%d assertions passed\n", passed, len(r.assertionResults))
}
