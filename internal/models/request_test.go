package models

import "testing"

func TestRequest_IsOpen(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{RequestNew, true},
		{RequestUnderReview, true},
		{RequestApproved, true},
		{RequestConverted, false},
		{RequestRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := &Request{Status: tt.status}
			if got := r.IsOpen(); got != tt.want {
				t.Errorf("IsOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent} {
		if !IsValidPriority(p) {
			t.Errorf("IsValidPriority(%q) = false", p)
		}
	}
	if IsValidPriority("critical") {
		t.Error("IsValidPriority(critical) = true")
	}
}
