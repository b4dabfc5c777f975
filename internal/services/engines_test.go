package services

import (
	"math"
	"testing"
)

func validInput() StaffingInput {
	return StaffingInput{
		OfferedCalls:       1000,
		AvgHandleTime:      240,
		IntervalSeconds:    1800,
		TargetServiceLevel: 80,
		TargetAnswerTime:   20,
	}
}

func TestReferenceEngineDeterministic(t *testing.T) {
	engine := NewReferenceEngine()
	in := validInput()

	first, err := engine.Calculate(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := engine.Calculate(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first.AgentsRequired != second.AgentsRequired {
		t.Errorf("Reference engine not deterministic: %v vs %v", first.AgentsRequired, second.AgentsRequired)
	}
	if first.ServiceLevel < in.TargetServiceLevel {
		t.Errorf("Sized pool misses target service level: %v < %v", first.ServiceLevel, in.TargetServiceLevel)
	}
	if !first.Converged {
		t.Error("Expected converged output")
	}
}

func TestEngineInputValidation(t *testing.T) {
	engine := NewReferenceEngine()

	tests := []struct {
		name   string
		mutate func(*StaffingInput)
	}{
		{"negative offered calls", func(in *StaffingInput) { in.OfferedCalls = -1 }},
		{"zero handle time", func(in *StaffingInput) { in.AvgHandleTime = 0 }},
		{"zero interval", func(in *StaffingInput) { in.IntervalSeconds = 0 }},
		{"service level over 100", func(in *StaffingInput) { in.TargetServiceLevel = 150 }},
		{"negative answer time", func(in *StaffingInput) { in.TargetAnswerTime = -5 }},
	}

	for _, test := range tests {
		in := validInput()
		test.mutate(&in)
		if _, err := engine.Calculate(in); err == nil {
			t.Errorf("Expected error for %s, got nil", test.name)
		}
	}
}

func TestCandidateBlendsHistory(t *testing.T) {
	in := validInput()

	withHistory := NewCandidateEngine("support", func(target string) (float64, bool) {
		return 300, true
	})
	noHistory := NewCandidateEngine("support", func(target string) (float64, bool) {
		return 0, false
	})

	histOut, err := withHistory.Calculate(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	plainOut, err := noHistory.Calculate(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 0.7*240 + 0.3*300 = 258
	if math.Abs(histOut.AvgHandleTime-258) > 0.001 {
		t.Errorf("Expected blended handle time 258, got %v", histOut.AvgHandleTime)
	}
	if plainOut.AvgHandleTime != 240 {
		t.Errorf("Expected unblended handle time 240, got %v", plainOut.AvgHandleTime)
	}
	if histOut.AgentsRequired <= plainOut.AgentsRequired {
		t.Errorf("Longer effective handle time should need more agents: %v vs %v",
			histOut.AgentsRequired, plainOut.AgentsRequired)
	}
}

func TestShrinkageInflatesRequirement(t *testing.T) {
	engine := NewReferenceEngine()

	base := validInput()
	baseOut, err := engine.Calculate(base)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	shrunk := validInput()
	shrunk.Shrinkage = 20
	shrunkOut, err := engine.Calculate(shrunk)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := math.Ceil(baseOut.AgentsRequired / 0.8)
	if shrunkOut.AgentsRequired != want {
		t.Errorf("Expected %v agents after 20%% shrinkage, got %v", want, shrunkOut.AgentsRequired)
	}
}

func TestZeroVolumeOutput(t *testing.T) {
	engine := NewReferenceEngine()
	in := validInput()
	in.OfferedCalls = 0

	out, err := engine.Calculate(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.AgentsRequired != 0 {
		t.Errorf("Expected 0 agents for zero volume, got %v", out.AgentsRequired)
	}
	if out.ServiceLevel != 100 {
		t.Errorf("Expected 100%% service level for zero volume, got %v", out.ServiceLevel)
	}
}
