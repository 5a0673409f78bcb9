package usecase

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestTelemetryPayloadMarshalsNaNAsNull(t *testing.T) {
	p := TelemetryPayload{
		RoverID:   "goat-01",
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Forward:   1,
		PowerMW:   5120,
		DieTempC:  math.NaN(), // failed register read
	}

	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal with NaN sentinel: %v", err)
	}

	s := string(body)
	if !strings.Contains(s, `"die_temp_c":null`) {
		t.Errorf("NaN field not mapped to null: %s", s)
	}
	if !strings.Contains(s, `"power_mw":5120`) {
		t.Errorf("finite field mangled: %s", s)
	}
	if !strings.Contains(s, `"rover_id":"goat-01"`) {
		t.Errorf("rover id missing: %s", s)
	}
}
