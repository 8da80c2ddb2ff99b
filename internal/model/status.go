package model

import "fmt"

// RunStatus records how a mirror run ended.
type RunStatus int

const (
	// RunStatusRunning means the run has not finished yet.
	RunStatusRunning RunStatus = iota

	// RunStatusSuccess means every discovered file was written.
	RunStatusSuccess

	// RunStatusFailed means an error aborted the run.
	RunStatusFailed

	// RunStatusCancelled means the run was interrupted by a signal or deadline.
	RunStatusCancelled
)

// String returns the lower-case name stored in reports and the database.
func (s RunStatus) String() string {
	switch s {
	case RunStatusRunning:
		return "running"
	case RunStatusSuccess:
		return "success"
	case RunStatusFailed:
		return "failed"
	case RunStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseRunStatus is the inverse of RunStatus.String.
func ParseRunStatus(s string) (RunStatus, error) {
	switch s {
	case "running":
		return RunStatusRunning, nil
	case "success":
		return RunStatusSuccess, nil
	case "failed":
		return RunStatusFailed, nil
	case "cancelled":
		return RunStatusCancelled, nil
	default:
		return RunStatusFailed, fmt.Errorf("model: unknown run status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RunStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseRunStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
