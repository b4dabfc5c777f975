package logger

import (
	"testing"
)

func TestWithJobCarriesCallerComponent(t *testing.T) {
	tests := []struct {
		component string
	}{
		{component: "queue_service"},
		{component: "executor"},
	}

	for _, test := range tests {
		entry := WithJob(7, "validation", test.component)
		if got := entry.Data["component"]; got != test.component {
			t.Errorf("WithJob component = %v, want %q", got, test.component)
		}
		if got := entry.Data["job_id"]; got != uint(7) {
			t.Errorf("WithJob job_id = %v, want 7", got)
		}
		if got := entry.Data["job_type"]; got != "validation" {
			t.Errorf("WithJob job_type = %v, want validation", got)
		}
	}
}

func TestWithTrackerFields(t *testing.T) {
	entry := WithTracker("support", "agents_required")
	if got := entry.Data["component"]; got != "accuracy_tracker" {
		t.Errorf("WithTracker component = %v, want accuracy_tracker", got)
	}
	if got := entry.Data["business_unit"]; got != "support" {
		t.Errorf("WithTracker business_unit = %v, want support", got)
	}
}
