package tests

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/user/ciber-radar/kotlin"
	"gopkg.in/yaml.v3"
)

// Scenario drives one simulated phone through a timeline of telephony
// changes and app-side calls, then checks what the app layer observed
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Device      DeviceConfig    `yaml:"device"`
	Timeline    []TimelineEvent `yaml:"timeline"`
	Assertions  []Assertion     `yaml:"assertions"`
}

// DeviceConfig is the phone's state before the timeline starts
type DeviceConfig struct {
	SdkInt             int          `yaml:"sdk_int"`
	Operator           string       `yaml:"operator,omitempty"`
	LocationPermission bool         `yaml:"location_permission"`
	Cells              []CellConfig `yaml:"cells,omitempty"`

	// NoCellInfo makes getAllCellInfo return null until cells are set
	NoCellInfo bool `yaml:"no_cell_info,omitempty"`
}

// CellConfig describes one cell as the modem reports it
type CellConfig struct {
	Type       string `yaml:"type"` // lte, gsm, wcdma, nr, cdma, vendor
	Cid        int64  `yaml:"cid,omitempty"`
	Lac        int    `yaml:"lac,omitempty"`
	Dbm        int    `yaml:"dbm,omitempty"`
	Asu        int    `yaml:"asu,omitempty"`
	Registered bool   `yaml:"registered,omitempty"`
	Timestamp  int64  `yaml:"timestamp,omitempty"`

	// Description is the toString() of a vendor cell
	Description string `yaml:"description,omitempty"`
}

// TimelineEvent is one action at an offset from the scenario start
type TimelineEvent struct {
	At       TimeDuration `yaml:"at,omitempty"`
	Action   string       `yaml:"action"`
	Level    int          `yaml:"level,omitempty"`
	Operator string       `yaml:"operator,omitempty"`
	Cells    []CellConfig `yaml:"cells,omitempty"`
	Reason   string       `yaml:"reason,omitempty"`
	Comment  string       `yaml:"comment,omitempty"`
}

// Action types
const (
	ActionGetCells         = "get_cells"
	ActionSubscribe        = "subscribe"
	ActionUnsubscribe      = "unsubscribe"
	ActionSignalChange     = "signal_change"
	ActionSetCells         = "set_cells"
	ActionClearCells       = "clear_cells" // getAllCellInfo returns null
	ActionSetOperator      = "set_operator"
	ActionRevokePermission = "revoke_permission"
	ActionGrantPermission  = "grant_permission"
	ActionInjectFailure    = "inject_failure"
	ActionClearFailure     = "clear_failure"
	ActionCrash            = "crash"
	ActionClearCrash       = "clear_crash"
)

var validActions = map[string]struct{}{
	ActionGetCells:         {},
	ActionSubscribe:        {},
	ActionUnsubscribe:      {},
	ActionSignalChange:     {},
	ActionSetCells:         {},
	ActionClearCells:       {},
	ActionSetOperator:      {},
	ActionRevokePermission: {},
	ActionGrantPermission:  {},
	ActionInjectFailure:    {},
	ActionClearFailure:     {},
	ActionCrash:            {},
	ActionClearCrash:       {},
}

// Assertion is an expected outcome. Call and Event are 1-based indexes
// into the getCells replies and the emitted batches; Record is 0-based.
type Assertion struct {
	Type    string `yaml:"type"`
	Call    int    `yaml:"call,omitempty"`
	Event   int    `yaml:"event,omitempty"`
	Count   *int   `yaml:"count,omitempty"`
	Record  int    `yaml:"record,omitempty"`
	Field   string `yaml:"field,omitempty"`
	Value   string `yaml:"value,omitempty"`
	Comment string `yaml:"comment,omitempty"`
}

// Assertion types
const (
	AssertionCallSucceeds    = "call_succeeds"
	AssertionCallUnavailable = "call_unavailable"
	AssertionEventCount      = "event_count"
	AssertionEventSize       = "event_size"
	AssertionRecordField     = "record_field"
)

// TimeDuration is a time.Duration written as "250ms" in YAML
type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("tests.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown keys
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &scenario, nil
}

// Save writes the scenario as YAML
func (s *Scenario) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Duration returns the offset of the last timeline event
func (s *Scenario) Duration() time.Duration {
	var last TimeDuration
	for _, event := range s.Timeline {
		if event.At > last {
			last = event.At
		}
	}
	return time.Duration(last)
}

// Validate checks the scenario for mistakes the runner would trip over
func (s *Scenario) Validate() []string {
	var errors []string

	if s.Device.SdkInt <= 0 {
		errors = append(errors, "device.sdk_int must be set")
	}
	for i, cell := range s.Device.Cells {
		if _, err := cell.ToCellInfo(); err != nil {
			errors = append(errors, fmt.Sprintf("device.cells[%d]: %v", i, err))
		}
	}

	for i, event := range s.Timeline {
		if _, ok := validActions[event.Action]; !ok {
			errors = append(errors, fmt.Sprintf("timeline[%d]: unknown action %q", i, event.Action))
		}
		if event.Action == ActionSignalChange && (event.Level < 0 || event.Level > 4) {
			errors = append(errors, fmt.Sprintf("timeline[%d]: signal level %d outside 0-4", i, event.Level))
		}
		for j, cell := range event.Cells {
			if _, err := cell.ToCellInfo(); err != nil {
				errors = append(errors, fmt.Sprintf("timeline[%d].cells[%d]: %v", i, j, err))
			}
		}
	}

	for i, assertion := range s.Assertions {
		switch assertion.Type {
		case AssertionCallSucceeds, AssertionCallUnavailable:
			if assertion.Call <= 0 {
				errors = append(errors, fmt.Sprintf("assertions[%d]: %s needs call >= 1", i, assertion.Type))
			}
		case AssertionEventCount:
			if assertion.Count == nil {
				errors = append(errors, fmt.Sprintf("assertions[%d]: event_count needs count", i))
			}
		case AssertionEventSize:
			if assertion.Event <= 0 || assertion.Count == nil {
				errors = append(errors, fmt.Sprintf("assertions[%d]: event_size needs event >= 1 and count", i))
			}
		case AssertionRecordField:
			if (assertion.Call <= 0) == (assertion.Event <= 0) {
				errors = append(errors, fmt.Sprintf("assertions[%d]: record_field needs exactly one of call or event", i))
			}
			if assertion.Field == "" {
				errors = append(errors, fmt.Sprintf("assertions[%d]: record_field needs field", i))
			}
		default:
			errors = append(errors, fmt.Sprintf("assertions[%d]: unknown type %q", i, assertion.Type))
		}
	}

	return errors
}

// describedCellInfo is a vendor CellInfo known only by its description
type describedCellInfo struct {
	kotlin.CellInfoBase
	description string
}

func (c *describedCellInfo) String() string {
	return c.description
}

// ToCellInfo builds the platform object for this cell
func (c CellConfig) ToCellInfo() (kotlin.CellInfo, error) {
	base := kotlin.CellInfoBase{Registered: c.Registered, TimeStamp: c.Timestamp}
	signal := kotlin.CellSignalStrength{Dbm: c.Dbm, AsuLevel: c.Asu}

	switch strings.ToLower(c.Type) {
	case "lte":
		return &kotlin.CellInfoLte{
			CellInfoBase:       base,
			CellIdentity:       kotlin.CellIdentityLte{Ci: int(c.Cid), Tac: c.Lac},
			CellSignalStrength: signal,
		}, nil
	case "gsm":
		return &kotlin.CellInfoGsm{
			CellInfoBase:       base,
			CellIdentity:       kotlin.CellIdentityGsm{Cid: int(c.Cid), Lac: c.Lac},
			CellSignalStrength: signal,
		}, nil
	case "wcdma":
		return &kotlin.CellInfoWcdma{
			CellInfoBase:       base,
			CellIdentity:       kotlin.CellIdentityWcdma{Cid: int(c.Cid), Lac: c.Lac},
			CellSignalStrength: signal,
		}, nil
	case "nr":
		return &kotlin.CellInfoNr{
			CellInfoBase:       base,
			CellIdentity:       kotlin.CellIdentityNr{Nci: c.Cid, Tac: c.Lac},
			CellSignalStrength: kotlin.CellSignalStrengthNr{SsRsrp: c.Dbm},
		}, nil
	case "cdma":
		return &kotlin.CellInfoCdma{
			CellInfoBase:       base,
			CellIdentity:       kotlin.CellIdentityCdma{BasestationId: int(c.Cid), NetworkId: c.Lac},
			CellSignalStrength: signal,
		}, nil
	case "vendor":
		if c.Description == "" {
			return nil, fmt.Errorf("vendor cell needs a description")
		}
		return &describedCellInfo{CellInfoBase: base, description: c.Description}, nil
	default:
		return nil, fmt.Errorf("unknown cell type %q", c.Type)
	}
}

func buildCellInfos(cells []CellConfig) ([]kotlin.CellInfo, error) {
	infos := make([]kotlin.CellInfo, 0, len(cells))
	for i, cell := range cells {
		info, err := cell.ToCellInfo()
		if err != nil {
			return nil, fmt.Errorf("cells[%d]: %w", i, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
