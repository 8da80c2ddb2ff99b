package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewMirrorReport(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("http://x.com/", "files/")

	if report.BaseURL != "http://x.com/" || report.Destination != "files/" {
		t.Errorf("got %q %q", report.BaseURL, report.Destination)
	}
	if report.Status != RunStatusRunning {
		t.Errorf("Status = %v, want running", report.Status)
	}
	if time.Since(report.StartedAt) > time.Second {
		t.Error("StartedAt is too old")
	}
	if report.Inventory == nil || report.Files == nil || report.PerformedSteps == nil {
		t.Error("expected slices to be initialized")
	}
}

func TestMirrorReportFinish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want RunStatus
	}{
		{"success", nil, RunStatusSuccess},
		{"failure", errors.New("boom"), RunStatusFailed},
		{"cancelled", fmt.Errorf("walk: %w", context.Canceled), RunStatusCancelled},
		{"request timeout", fmt.Errorf("fetch listing: %w", context.DeadlineExceeded), RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := NewMirrorReport("http://x.com/", "files/")
			report.Finish(tt.err)

			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if report.FinishedAt.IsZero() {
				t.Error("FinishedAt not set")
			}
			if tt.err != nil && report.ErrorMessage != tt.err.Error() {
				t.Errorf("ErrorMessage = %q", report.ErrorMessage)
			}
		})
	}
}

func TestMirrorReportTotals(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("http://x.com/", "files/")
	report.Inventory = []string{"a", "Data/b"}
	report.AddFile(FileResult{RelativePath: "a", Bytes: 10})
	report.AddFile(FileResult{RelativePath: "Data/b", Bytes: 32})
	report.Finish(nil)

	if got := report.TotalBytes(); got != 42 {
		t.Errorf("TotalBytes() = %d, want 42", got)
	}
	if !report.Complete() {
		t.Error("Complete() = false, want true")
	}
	if report.Duration() < 0 {
		t.Error("Duration() is negative")
	}
}

func TestRunStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []RunStatus{RunStatusRunning, RunStatusSuccess, RunStatusFailed, RunStatusCancelled} {
		parsed, err := ParseRunStatus(s.String())
		if err != nil {
			t.Fatalf("ParseRunStatus(%q) error = %v", s, err)
		}
		if parsed != s {
			t.Errorf("ParseRunStatus(%q) = %v", s.String(), parsed)
		}
	}

	if _, err := ParseRunStatus("bogus"); err == nil {
		t.Error("ParseRunStatus(bogus) should fail")
	}
	if RunStatus(99).String() != "unknown" {
		t.Errorf("RunStatus(99).String() = %q", RunStatus(99).String())
	}
}

func TestMirrorReportJSON(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("http://x.com/", "files/")
	report.Finish(errors.New("remote: GET http://x.com/: 401 Unauthorized"))

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"status":"failed"`) {
		t.Errorf("status not encoded as text: %s", out)
	}
	if !strings.Contains(out, `"error":"remote: GET`) {
		t.Errorf("error message missing: %s", out)
	}
}
