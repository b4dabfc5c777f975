package services

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	qs := &QueueService{
		backoffBase: 30 * time.Second,
		backoffCap:  900 * time.Second,
	}

	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{retryCount: 1, want: 30 * time.Second},
		{retryCount: 2, want: 60 * time.Second},
		{retryCount: 3, want: 120 * time.Second},
		{retryCount: 6, want: 900 * time.Second}, // capped
		{retryCount: 20, want: 900 * time.Second},
	}

	for _, test := range tests {
		got := qs.backoffDelay(test.retryCount)
		if got != test.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", test.retryCount, got, test.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		value interface{}
		want  float64
		ok    bool
	}{
		{value: 4.5, want: 4.5, ok: true},
		{value: 7, want: 7, ok: true},
		{value: int64(9), want: 9, ok: true},
		{value: json.Number("3.25"), want: 3.25, ok: true},
		{value: "1000", ok: false},
		{value: nil, ok: false},
		{value: []interface{}{1}, ok: false},
	}

	for _, test := range tests {
		got, ok := toFloat(test.value)
		if ok != test.ok {
			t.Errorf("toFloat(%v) ok = %v, want %v", test.value, ok, test.ok)
			continue
		}
		if ok && got != test.want {
			t.Errorf("toFloat(%v) = %v, want %v", test.value, got, test.want)
		}
	}
}

func TestParseStaffingInput(t *testing.T) {
	params := map[string]interface{}{
		"offered_calls":        1000.0,
		"avg_handle_time":      240.0,
		"interval_seconds":     1800.0,
		"target_service_level": 80.0,
		"target_answer_time":   20.0,
		"shrinkage":            15.0,
		"skill_demand": map[string]interface{}{
			"sales": 12.0,
		},
	}

	in, err := parseStaffingInput(params)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if in.OfferedCalls != 1000 || in.AvgHandleTime != 240 {
		t.Errorf("Parsed wrong core values: %+v", in)
	}
	if in.Shrinkage != 15 {
		t.Errorf("Parsed shrinkage = %v, want 15", in.Shrinkage)
	}
	if in.SkillDemand["sales"] != 12 {
		t.Errorf("Parsed skill demand = %v, want sales:12", in.SkillDemand)
	}

	delete(params, "avg_handle_time")
	if _, err := parseStaffingInput(params); err == nil {
		t.Error("Expected error for missing required field, got nil")
	}
}
