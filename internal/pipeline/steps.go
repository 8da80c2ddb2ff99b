package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/dirmirror/internal/crawler"
	"github.com/nao1215/dirmirror/internal/mirror"
	"github.com/nao1215/dirmirror/internal/model"
)

// Walker builds the file inventory below a root URL.
// *crawler.Walker satisfies it.
type Walker interface {
	Walk(ctx context.Context, rootURL string) ([]string, error)
}

// Downloader writes one remote file below the destination root.
// *mirror.Downloader satisfies it.
type Downloader interface {
	Download(ctx context.Context, fileURL, relDir string) (*mirror.Result, error)
}

// Progress receives per-item download progress.
type Progress interface {
	// Start is called once with the number of items to download.
	Start(total int)

	// Advance is called after each item is written.
	Advance(relPath string, bytes int64)

	// Finish is called when the download loop ends, successfully or not.
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)             {}
func (noopProgress) Advance(string, int64) {}
func (noopProgress) Finish()               {}

// WalkStep fills report.Inventory by walking report.BaseURL.
type WalkStep struct {
	walker Walker
	logger *slog.Logger
}

// NewWalkStep creates a WalkStep.
func NewWalkStep(walker Walker, logger *slog.Logger) *WalkStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalkStep{walker: walker, logger: logger}
}

// Name returns the step name.
func (s *WalkStep) Name() string {
	return "walk"
}

// Do executes the walk.
func (s *WalkStep) Do(ctx context.Context, report *model.MirrorReport) error {
	inventory, err := s.walker.Walk(ctx, report.BaseURL)
	if err != nil {
		return fmt.Errorf("walk %s: %w", report.BaseURL, err)
	}
	report.Inventory = inventory

	if w, ok := s.walker.(interface{ Stats() crawler.WalkStats }); ok {
		report.ListingsFetched = w.Stats().ListingsFetched
	}

	s.logger.Info("inventory built",
		"base_url", report.BaseURL,
		"files", len(inventory),
		"listings", report.ListingsFetched,
	)
	return nil
}

// DownloadStep downloads every inventoried file in discovery order.
type DownloadStep struct {
	downloader Downloader
	progress   Progress
	logger     *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithProgress sets the progress sink.
func WithProgress(p Progress) DownloadStepOption {
	return func(s *DownloadStep) {
		if p != nil {
			s.progress = p
		}
	}
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDownloadStep creates a DownloadStep.
func NewDownloadStep(downloader Downloader, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		downloader: downloader,
		progress:   noopProgress{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do downloads the inventory sequentially. The first failure aborts the loop
// and is returned; files written before it stay in the report.
func (s *DownloadStep) Do(ctx context.Context, report *model.MirrorReport) error {
	s.progress.Start(len(report.Inventory))
	defer s.progress.Finish()

	for _, rel := range report.Inventory {
		if err := ctx.Err(); err != nil {
			return err
		}

		fileURL := report.BaseURL + rel
		relDir := mirror.SplitPathAndFilename(report.BaseURL, rel)

		res, err := s.downloader.Download(ctx, fileURL, relDir)
		if err != nil {
			return fmt.Errorf("download %s: %w", rel, err)
		}

		report.AddFile(model.FileResult{
			RelativePath: rel,
			URL:          fileURL,
			LocalPath:    filepath.Join(report.Destination, filepath.FromSlash(res.Path)),
			Bytes:        res.Bytes,
			Duration:     res.Duration,
			Checksum:     res.Checksum,
		})
		s.progress.Advance(rel, res.Bytes)
	}
	return nil
}
