// Package remote provides the authenticated HTTP session used for every
// request of a mirror run.
//
// A single Client is created at startup and carries the Basic authentication
// pair for the whole run. It offers the two fetch modes the crawl needs:
//   - FetchListing reads a whole directory-listing page into memory
//   - FetchFileStream opens a file body for streaming to disk
//
// Both fail with *HTTPError on a non-success status before any body is
// consumed. The Client is safe for sequential reuse; it holds no mutable
// state after construction.
package remote
