// Package pipeline runs the stages of a mirror run in sequence.
//
// A run is two steps sharing one *model.MirrorReport:
//   - WalkStep builds the file inventory with the folder walker
//   - DownloadStep downloads every inventoried file, one at a time
//
// The pipeline stops at the first failing step, and DownloadStep stops at
// the first failing file. A dry run executes only WalkStep.
package pipeline
