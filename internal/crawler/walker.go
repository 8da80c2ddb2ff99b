package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
)

// ListingFetcher retrieves the raw body of a directory-listing page.
// *remote.Client satisfies it.
type ListingFetcher interface {
	FetchListing(ctx context.Context, url string) ([]byte, error)
}

// Walker performs the breadth-first traversal of a remote folder tree.
//
// A Walker is not safe for concurrent use. Walks are strictly sequential:
// one listing request is in flight at a time.
type Walker struct {
	// fetcher retrieves listing pages through the authenticated session.
	fetcher ListingFetcher

	// delay is the pause between two consecutive listing requests.
	delay time.Duration

	// ignorePatterns are glob patterns matched against RelativePaths.
	// A matching file is not recorded and a matching folder is not expanded.
	ignorePatterns []string

	// onListing, when set, is called after each listing is classified.
	onListing func(folder string, files, folders int)

	logger *slog.Logger

	stats WalkStats
}

// WalkStats summarizes the last walk.
type WalkStats struct {
	// ListingsFetched is the number of listing pages retrieved, root included.
	ListingsFetched int

	// FilesFound is the number of RelativePaths returned.
	FilesFound int

	// FoldersExpanded is the number of sub-folders listed.
	FoldersExpanded int

	// Ignored is the number of entries skipped by ignore patterns.
	Ignored int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithDelay sets the pause between consecutive listing requests.
func WithDelay(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.delay = d
	}
}

// WithIgnorePatterns sets glob patterns for entries to skip.
// Patterns are matched against RelativePaths such as "Data/sub/file.iso"
// (e.g. "*.iso", "Data/*", "?C=*").
func WithIgnorePatterns(patterns []string) WalkerOption {
	return func(w *Walker) {
		w.ignorePatterns = patterns
	}
}

// WithWalkerLogger sets the logger used for per-listing debug output.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithListingCallback registers fn to be called after every listing.
func WithListingCallback(fn func(folder string, files, folders int)) WalkerOption {
	return func(w *Walker) {
		w.onListing = fn
	}
}

// NewWalker creates a Walker reading listings through fetcher.
func NewWalker(fetcher ListingFetcher, opts ...WalkerOption) *Walker {
	w := &Walker{
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk lists rootURL and every folder below it and returns the RelativePath
// of each discovered file in discovery order.
//
// rootURL is the fully qualified root listing; a trailing "/" is appended
// when missing. The first listing error aborts the walk and is returned
// wrapped, so errors.As still finds a *remote.HTTPError.
func (w *Walker) Walk(ctx context.Context, rootURL string) ([]string, error) {
	if !strings.HasSuffix(rootURL, "/") {
		rootURL += "/"
	}
	w.stats = WalkStats{}

	rootFiles, rootFolders, err := w.list(ctx, rootURL, "")
	if err != nil {
		return nil, err
	}

	discovered := make([]string, 0, len(rootFiles))
	discovered = append(discovered, rootFiles...)
	frontier := NewFrontier(rootFolders...)

	for {
		parent, ok := frontier.Pop()
		if !ok {
			break
		}
		if err := w.pause(ctx); err != nil {
			return nil, err
		}

		files, folders, err := w.list(ctx, rootURL, parent)
		if err != nil {
			return nil, err
		}
		w.stats.FoldersExpanded++

		discovered = append(discovered, files...)
		for _, folder := range folders {
			frontier.Push(folder)
		}
	}

	w.stats.FilesFound = len(discovered)
	w.logger.Debug("walk finished",
		"root", rootURL,
		"files", w.stats.FilesFound,
		"listings", w.stats.ListingsFetched,
		"ignored", w.stats.Ignored)

	return discovered, nil
}

// list fetches and classifies the listing of folder (a RelativePath, "" for
// the root) and returns its children as RelativePaths.
func (w *Walker) list(ctx context.Context, rootURL, folder string) (files, folders []string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	listingURL := rootURL + folder
	body, err := w.fetcher.FetchListing(ctx, listingURL)
	if err != nil {
		return nil, nil, fmt.Errorf("list %q: %w", listingURL, err)
	}
	w.stats.ListingsFetched++

	hrefs, err := ExtractHrefs(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse listing %q: %w", listingURL, err)
	}

	fileTokens, folderTokens := Classify(hrefs)
	files = w.qualify(folder, fileTokens)
	folders = w.qualify(folder, folderTokens)

	w.logger.Debug("listed folder",
		"url", listingURL,
		"files", len(files),
		"folders", len(folders))
	if w.onListing != nil {
		w.onListing(folder, len(files), len(folders))
	}
	return files, folders, nil
}

// qualify prefixes each token with its parent folder and drops ignored entries.
func (w *Walker) qualify(parent string, tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		rel := parent + tok
		if w.isIgnored(rel) {
			w.stats.Ignored++
			w.logger.Debug("ignoring entry", "path", rel)
			continue
		}
		out = append(out, rel)
	}
	return out
}

func (w *Walker) pause(ctx context.Context) error {
	if w.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns statistics of the last walk.
func (w *Walker) Stats() WalkStats {
	return w.stats
}

func (w *Walker) isIgnored(rel string) bool {
	trimmed := strings.TrimSuffix(rel, "/")
	for _, pattern := range w.ignorePatterns {
		if matchPattern(pattern, rel) || matchPattern(pattern, trimmed) {
			return true
		}
	}
	return false
}

// matchPattern reports whether a RelativePath matches a glob pattern.
//
//   - "Data/*" matches "Data/" and everything below it
//   - "*.iso" matches an .iso file in any folder
//   - other patterns use path.Match, and patterns without "/" are also
//     tried against the last path segment
func matchPattern(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(rel, prefix+"/") || rel == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(rel, strings.TrimPrefix(pattern, "*")) {
		return true
	}

	if matched, err := path.Match(pattern, rel); err == nil && matched {
		return true
	}

	if strings.ContainsAny(pattern, "*?[") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(rel)); err == nil && matched {
			return true
		}
	}
	return false
}
