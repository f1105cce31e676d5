package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEventRecordJSONFieldNames(t *testing.T) {
	original := EventRecord{
		TxHash:      "0xdef456",
		BlockNumber: 12,
		LogIndex:    3,
		Emitter:     "0x1111111111111111111111111111111111111111",
		Name:        "Settled",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
		Timestamp:   1700000000,
		Origin:      "0x2222222222222222222222222222222222222222",
		Label:       "buy_shares",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal map failed: %v", err)
	}
	for _, key := range []string{"tx_hash", "block_number", "log_index", "emitter", "name", "topics", "data", "timestamp", "origin", "label"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q in %s", key, b)
		}
	}

	var decoded EventRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("decoded mismatch: %+v != %+v", original, decoded)
	}
}
