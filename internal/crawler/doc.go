// Package crawler builds the complete file inventory of a remote
// directory-listing tree.
//
// # Components
//
//   - ExtractHrefs: pulls the raw href of every anchor out of a listing page
//   - Classify: partitions hrefs into files and sub-folders
//   - Frontier: FIFO queue of folders still waiting to be listed
//   - Walker: breadth-first traversal tying the above together
//
// # Traversal
//
// The Walker lists the root, records root-level files by bare name and
// queues root-level folders. It then repeatedly dequeues the earliest
// discovered folder, lists it, and prefixes every child token with the
// folder's relative path. Files are returned in discovery order as
// RelativePaths, i.e. paths below the root URL that never contain the root
// itself.
//
// Any listing failure aborts the walk; there is no partial result.
//
// # Usage
//
//	walker := crawler.NewWalker(client, crawler.WithDelay(time.Second))
//	paths, err := walker.Walk(ctx, "https://example.com/pub/")
package crawler
