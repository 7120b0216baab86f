package apirisk

import (
	"testing"

	"github.com/triage-ai/querygate/internal/safety"
)

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   safety.RiskLevel
	}{
		// Project deletion is the only extreme operation.
		{"DELETE", "/v1/projects/abcdef123456", safety.RiskExtreme},

		{"DELETE", "/v1/projects/abcdef123456/branches/main", safety.RiskHigh},
		{"DELETE", "/v1/projects/abcdef123456/secrets", safety.RiskHigh},
		{"DELETE", "/v1/projects/abcdef123456/functions/my-func", safety.RiskHigh},
		{"POST", "/v1/projects/abcdef123456/pause", safety.RiskHigh},
		{"POST", "/v1/projects/abcdef123456/restore", safety.RiskHigh},
		{"POST", "/v1/projects/abcdef123456/upgrade", safety.RiskHigh},

		{"POST", "/v1/projects", safety.RiskMedium},
		{"POST", "/v1/projects/abcdef123456/secrets", safety.RiskMedium},
		{"POST", "/v1/projects/abcdef123456/upgrade/status", safety.RiskMedium},

		// Unlisted paths default to medium, reads included.
		{"GET", "/v1/projects/abcdef123456/health", safety.RiskMedium},
		{"GET", "/v1/projects", safety.RiskMedium},
		{"DELETE", "/v1/unknown/thing", safety.RiskMedium},
	}
	c := NewClassifier()
	for _, tt := range tests {
		if got := c.ClassifyRequest(tt.method, tt.path); got != tt.want {
			t.Errorf("%s %s = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestClassifyRequest_MethodCaseInsensitive(t *testing.T) {
	c := NewClassifier()
	if got := c.ClassifyRequest("delete", "/v1/projects/abcdef123456"); got != safety.RiskExtreme {
		t.Errorf("lowercased method = %s, want EXTREME", got)
	}
}

func TestClassifyRequest_PlaceholderSingleSegment(t *testing.T) {
	c := NewClassifier()
	// {ref} must not swallow additional path segments.
	if got := c.ClassifyRequest("DELETE", "/v1/projects/abc/def"); got == safety.RiskExtreme {
		t.Error("placeholder matched across segments")
	}
}

func TestClassifyRequest_Anchored(t *testing.T) {
	c := NewClassifier()
	if got := c.ClassifyRequest("DELETE", "/prefix/v1/projects/abcdef123456"); got == safety.RiskExtreme {
		t.Error("template matched a non-anchored path")
	}
}

func TestOperationsByRisk(t *testing.T) {
	extreme := OperationsByRisk(safety.RiskExtreme)
	if len(extreme["DELETE"]) != 1 || extreme["DELETE"][0] != "/v1/projects/{ref}" {
		t.Errorf("extreme table = %v", extreme)
	}

	high := OperationsByRisk(safety.RiskHigh)
	if len(high["DELETE"]) == 0 || len(high["POST"]) == 0 {
		t.Error("high table missing methods")
	}

	if OperationsByRisk(safety.RiskLow) != nil {
		t.Error("no table exists for low risk")
	}

	// Mutating the copy must not leak into the table.
	extreme["DELETE"][0] = "tampered"
	again := OperationsByRisk(safety.RiskExtreme)
	if again["DELETE"][0] != "/v1/projects/{ref}" {
		t.Error("OperationsByRisk returned a shared slice")
	}
}
