package android

import (
	"strings"
	"testing"
)

func TestCellRecord_ToMap(t *testing.T) {
	lte := CellRecord{
		Type:         RadioLTE,
		Cid:          100,
		Lac:          20,
		Dbm:          -80,
		Asu:          12,
		IsRegistered: true,
		Timestamp:    5000,
		Operator:     "TestCo",
		HasIdentity:  true,
	}

	m := lte.ToMap()
	if len(m) != 8 {
		t.Errorf("Expected 8 keys, got %d: %v", len(m), m)
	}
	if m["type"] != "LTE" || m["cid"] != int64(100) || m["lac"] != 20 || m["operator"] != "TestCo" {
		t.Errorf("Unexpected map: %v", m)
	}

	nr := CellRecord{Type: RadioNR, Dbm: -65, Asu: 70, Operator: UnknownOperator}
	m = nr.ToMap()
	if _, ok := m["cid"]; ok {
		t.Errorf("Record without identity should omit cid: %v", m)
	}
	if _, ok := m["lac"]; ok {
		t.Errorf("Record without identity should omit lac: %v", m)
	}
}

func TestCellRecordsToPayload_EmptyIsNotNil(t *testing.T) {
	payload := CellRecordsToPayload(nil)
	if payload == nil || len(payload) != 0 {
		t.Errorf("Expected empty non-nil payload, got %#v", payload)
	}
}

func TestParseCellRecords_Errors(t *testing.T) {
	cases := map[string]interface{}{
		"expected list":   map[string]interface{}{},
		"expected map":    []interface{}{"LTE"},
		"missing type":    []interface{}{map[string]interface{}{"dbm": float64(-80)}},
		"missing dbm":     []interface{}{map[string]interface{}{"type": "GSM", "asu": float64(1), "timestamp": float64(1)}},
		"not an integer":  []interface{}{map[string]interface{}{"type": "GSM", "dbm": -80.5, "asu": float64(1), "timestamp": float64(1)}},
		"unexpected bool": []interface{}{map[string]interface{}{"type": "GSM", "dbm": true, "asu": float64(1), "timestamp": float64(1)}},
	}

	for want, payload := range cases {
		_, err := ParseCellRecords(payload)
		if err == nil {
			t.Errorf("%s: expected an error", want)
			continue
		}
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%s: unexpected error %q", want, err)
		}
	}
}

func TestParseCellRecords_RoundTrip(t *testing.T) {
	records := []CellRecord{
		{Type: RadioWCDMA, Cid: 65000, Lac: 88, Dbm: -101, Asu: 6, Timestamp: 12, Operator: "Claro", HasIdentity: true},
		{Type: RadioNR, Dbm: -65, Asu: 70, IsRegistered: true, Timestamp: 13, Operator: "Claro"},
	}

	payload := make([]interface{}, 0, len(records))
	for _, m := range CellRecordsToPayload(records) {
		payload = append(payload, m)
	}

	parsed, err := ParseCellRecords(payload)
	if err != nil {
		t.Fatalf("ParseCellRecords failed: %v", err)
	}
	for i := range records {
		if parsed[i] != records[i] {
			t.Errorf("parsed[%d] = %+v, want %+v", i, parsed[i], records[i])
		}
	}
}
