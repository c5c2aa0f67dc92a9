package android

import (
	"fmt"
	"math"

	"github.com/user/ciber-radar/kotlin"
)

// RadioType is the closed set of radio kinds a CellRecord can carry
type RadioType string

const (
	RadioLTE     RadioType = "LTE"
	RadioGSM     RadioType = "GSM"
	RadioWCDMA   RadioType = "WCDMA"
	RadioNR      RadioType = "NR"
	RadioUnknown RadioType = "UNKNOWN"
)

// Placeholder NR signal values; CellSignalStrengthNr is not translated
const (
	nrPlaceholderDbm = -65
	nrPlaceholderAsu = 70
)

// UnknownOperator is reported when the platform has no operator name
const UnknownOperator = "Unknown"

// Payload keys
const (
	keyType         = "type"
	keyCid          = "cid"
	keyLac          = "lac"
	keyDbm          = "dbm"
	keyAsu          = "asu"
	keyIsRegistered = "isRegistered"
	keyTimestamp    = "timestamp"
	keyOperator     = "operator"
)

// CellRecord is one visible cell flattened for the app layer
type CellRecord struct {
	Type         RadioType
	Cid          int64
	Lac          int
	Dbm          int
	Asu          int
	IsRegistered bool
	Timestamp    int64
	Operator     string

	// HasIdentity is false for NR cells detected only by description,
	// which carry no cid/lac
	HasIdentity bool
}

// ToMap flattens the record into the channel payload shape
func (r CellRecord) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		keyType:         string(r.Type),
		keyDbm:          r.Dbm,
		keyAsu:          r.Asu,
		keyIsRegistered: r.IsRegistered,
		keyTimestamp:    r.Timestamp,
		keyOperator:     r.Operator,
	}
	if r.HasIdentity {
		m[keyCid] = r.Cid
		m[keyLac] = r.Lac
	}
	return m
}

// CellRecordsToPayload converts a batch for a channel reply or event
func CellRecordsToPayload(records []CellRecord) []map[string]interface{} {
	payload := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		payload = append(payload, r.ToMap())
	}
	return payload
}

// ParseCellRecords decodes a channel payload (as returned by
// flutter.MethodChannel.InvokeMethod or an event) back into records
func ParseCellRecords(v interface{}) ([]CellRecord, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("cell payload: expected list, got %T", v)
	}

	records := make([]CellRecord, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("cell payload[%d]: expected map, got %T", i, item)
		}
		record, err := parseCellRecord(m)
		if err != nil {
			return nil, fmt.Errorf("cell payload[%d]: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseCellRecord(m map[string]interface{}) (CellRecord, error) {
	var r CellRecord

	typ, ok := m[keyType].(string)
	if !ok {
		return r, fmt.Errorf("missing %s", keyType)
	}
	r.Type = RadioType(typ)
	r.Operator, _ = m[keyOperator].(string)
	r.IsRegistered, _ = m[keyIsRegistered].(bool)

	var err error
	if r.Dbm, err = intField(m, keyDbm); err != nil {
		return r, err
	}
	if r.Asu, err = intField(m, keyAsu); err != nil {
		return r, err
	}
	if r.Timestamp, err = int64Field(m, keyTimestamp); err != nil {
		return r, err
	}

	if _, ok := m[keyCid]; ok {
		r.HasIdentity = true
		if r.Cid, err = int64Field(m, keyCid); err != nil {
			return r, err
		}
		if r.Lac, err = intField(m, keyLac); err != nil {
			return r, err
		}
	}
	return r, nil
}

func int64Field(m map[string]interface{}, key string) (int64, error) {
	switch n := m[key].(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case nil:
		return 0, fmt.Errorf("missing %s", key)
	default:
		return 0, fmt.Errorf("%s: unexpected %T", key, n)
	}
}

func intField(m map[string]interface{}, key string) (int, error) {
	n, err := int64Field(m, key)
	return int(n), err
}

// translator builds a record for one radio kind
type translator func(info kotlin.CellInfo) CellRecord

func translateLte(info kotlin.CellInfo) CellRecord {
	lte := info.(*kotlin.CellInfoLte)
	identity := lte.GetCellIdentity()
	signal := lte.GetCellSignalStrength()
	return CellRecord{
		Type:        RadioLTE,
		Cid:         int64(identity.GetCi()),
		Lac:         identity.GetTac(),
		Dbm:         signal.GetDbm(),
		Asu:         signal.GetAsuLevel(),
		HasIdentity: true,
	}
}

func translateGsm(info kotlin.CellInfo) CellRecord {
	gsm := info.(*kotlin.CellInfoGsm)
	identity := gsm.GetCellIdentity()
	signal := gsm.GetCellSignalStrength()
	return CellRecord{
		Type:        RadioGSM,
		Cid:         int64(identity.GetCid()),
		Lac:         identity.GetLac(),
		Dbm:         signal.GetDbm(),
		Asu:         signal.GetAsuLevel(),
		HasIdentity: true,
	}
}

func translateWcdma(info kotlin.CellInfo) CellRecord {
	wcdma := info.(*kotlin.CellInfoWcdma)
	identity := wcdma.GetCellIdentity()
	signal := wcdma.GetCellSignalStrength()
	return CellRecord{
		Type:        RadioWCDMA,
		Cid:         int64(identity.GetCid()),
		Lac:         identity.GetLac(),
		Dbm:         signal.GetDbm(),
		Asu:         signal.GetAsuLevel(),
		HasIdentity: true,
	}
}

func translateNr(info kotlin.CellInfo) CellRecord {
	record := CellRecord{
		Type: RadioNR,
		Dbm:  nrPlaceholderDbm,
		Asu:  nrPlaceholderAsu,
	}
	if nr, ok := info.(*kotlin.CellInfoNr); ok {
		identity := nr.GetCellIdentity()
		record.Cid = identity.GetNci()
		record.Lac = identity.GetTac()
		record.HasIdentity = true
	}
	return record
}

func translateUnknown(info kotlin.CellInfo) CellRecord {
	return CellRecord{Type: RadioUnknown}
}

var translators = map[RadioType]translator{
	RadioLTE:     translateLte,
	RadioGSM:     translateGsm,
	RadioWCDMA:   translateWcdma,
	RadioNR:      translateNr,
	RadioUnknown: translateUnknown,
}
