package services

import (
	"math"
	"testing"

	"github.com/staffval/backend/internal/models"
)

func TestPctDiffZeroHandling(t *testing.T) {
	tests := []struct {
		reference float64
		candidate float64
		want      float64
	}{
		{reference: 0, candidate: 0, want: 0},
		{reference: 0, candidate: 5, want: 100},
		{reference: 100, candidate: 90, want: 10},
		{reference: 100, candidate: 110, want: 10},
		{reference: 25, candidate: 26, want: 4},
		{reference: -50, candidate: -40, want: 20},
	}

	for _, test := range tests {
		got := pctDiff(test.reference, test.candidate)
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("pctDiff(%v, %v) = %v, want %v", test.reference, test.candidate, got, test.want)
		}
	}
}

func TestAgentSizingScenario(t *testing.T) {
	// offered_calls=1000, reference 25 agents, candidate 26.
	diff := signedDiff(25, 26)
	pct := pctDiff(25, 26)

	if diff != 1 {
		t.Errorf("agents_diff = %v, want 1", diff)
	}
	if pct != 4.0 {
		t.Errorf("agents_diff_pct = %v, want 4.0", pct)
	}
	if pct > 5.0 {
		t.Error("Expected agreement within 5% tolerance")
	}
}

func TestServiceLevelScenario(t *testing.T) {
	got := signedDiff(85.5, 84.2)
	if math.Abs(got-(-1.3)) > 1e-9 {
		t.Errorf("service_level_diff = %v, want -1.3", got)
	}
}

func TestRecommendation(t *testing.T) {
	tests := []struct {
		agree     bool
		agentsPct float64
		want      string
	}{
		{agree: true, agentsPct: 4, want: "trusted"},
		{agree: false, agentsPct: 8, want: "review parameters"},
		{agree: false, agentsPct: 10, want: "review parameters"},
		{agree: false, agentsPct: 15, want: "manual review required"},
	}

	for _, test := range tests {
		got := recommendation(test.agree, test.agentsPct)
		if got != test.want {
			t.Errorf("recommendation(%v, %v) = %q, want %q", test.agree, test.agentsPct, got, test.want)
		}
	}
}

func TestCompareSkillCoverage(t *testing.T) {
	ref := models.JSONB{"sales": 100.0, "support": 80.0, "retention": 60.0}
	cand := models.JSONB{"sales": 100.0, "support": 60.0, "onboarding": 50.0}

	diffs := compareSkillCoverage(ref, cand)

	if got := diffs["sales"]; got != 0 {
		t.Errorf("Expected no gap for sales, got %v", got)
	}
	if got := diffs["support"]; got != 25 {
		t.Errorf("Expected 25%% gap for support, got %v", got)
	}
	// Skills present on only one side are a full gap.
	if got := diffs["retention"]; got != 100 {
		t.Errorf("Expected 100%% gap for reference-only skill, got %v", got)
	}
	if got := diffs["onboarding"]; got != 100 {
		t.Errorf("Expected 100%% gap for candidate-only skill, got %v", got)
	}

	if got := compareSkillCoverage(nil, nil); got != nil {
		t.Errorf("Expected nil diffs for empty coverage, got %v", got)
	}
}
