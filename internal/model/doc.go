// Package model defines the data structures shared by the mirror pipeline,
// the report writers and the run history database.
//
//   - MirrorReport: everything known about one mirror run
//   - FileResult: the outcome of one downloaded file
//   - RunStatus: how a run ended
//
// The types carry JSON tags so a report can be written as-is with --json.
package model
