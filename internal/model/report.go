package model

import (
	"context"
	"errors"
	"time"
)

// FileResult is the outcome of mirroring one file.
type FileResult struct {
	// RelativePath is the file's path below the root URL, e.g. "Data/doc.txt".
	RelativePath string `json:"relative_path"`

	// URL is the fully qualified remote URL.
	URL string `json:"url"`

	// LocalPath is where the file was written, relative to the working directory.
	LocalPath string `json:"local_path"`

	// Bytes is the number of bytes written.
	Bytes int64 `json:"bytes"`

	// Duration is the transfer time.
	Duration time.Duration `json:"duration_ns"`

	// Checksum is the hex BLAKE2b-256 digest of the file content.
	Checksum string `json:"blake2b,omitempty"`
}

// MirrorReport is the record of a single mirror run.
type MirrorReport struct {
	// ID is the run history identifier. Zero until the run is saved.
	ID int64 `json:"id,omitempty"`

	// BaseURL is the normalized root listing URL, always ending with "/".
	BaseURL string `json:"base_url"`

	// Destination is the local destination root.
	Destination string `json:"destination"`

	// DryRun is true when only the inventory was built.
	DryRun bool `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Status is how the run ended.
	Status RunStatus `json:"status"`

	// Inventory holds every discovered RelativePath in discovery order.
	Inventory []string `json:"inventory"`

	// ListingsFetched is the number of listing pages retrieved.
	ListingsFetched int `json:"listings_fetched"`

	// Files holds one entry per file written, in download order.
	Files []FileResult `json:"files"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the error that aborted the run. It is not serialized;
	// ErrorMessage carries its text.
	Error error `json:"-"`

	// ErrorMessage is Error.Error(), kept for reports and history.
	ErrorMessage string `json:"error,omitempty"`
}

// NewMirrorReport creates a running report for baseURL.
func NewMirrorReport(baseURL, destination string) *MirrorReport {
	return &MirrorReport{
		BaseURL:        baseURL,
		Destination:    destination,
		StartedAt:      time.Now(),
		Status:         RunStatusRunning,
		Inventory:      make([]string, 0),
		Files:          make([]FileResult, 0),
		PerformedSteps: make([]string, 0),
	}
}

// AddFile records a completed download.
func (r *MirrorReport) AddFile(result FileResult) {
	r.Files = append(r.Files, result)
}

// TotalBytes sums the bytes of all written files.
func (r *MirrorReport) TotalBytes() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Bytes
	}
	return total
}

// Duration is the run's wall time, measured up to now while running.
func (r *MirrorReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish stamps the end time and derives Status from err. Only an explicit
// cancellation counts as cancelled; a request timeout is a failure.
func (r *MirrorReport) Finish(err error) {
	r.FinishedAt = time.Now()
	switch {
	case err == nil:
		r.Status = RunStatusSuccess
	case errors.Is(err, context.Canceled):
		r.Status = RunStatusCancelled
	default:
		r.Status = RunStatusFailed
	}
	if err != nil {
		r.Error = err
		r.ErrorMessage = err.Error()
	}
}

// Complete reports whether every inventoried file was written.
func (r *MirrorReport) Complete() bool {
	return r.Status == RunStatusSuccess && len(r.Files) == len(r.Inventory)
}
