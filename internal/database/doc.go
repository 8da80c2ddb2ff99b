// Package database stores the history of mirror runs in SQLite.
//
// Each run is one row in the runs table, with the full report kept as JSON,
// and one row per downloaded file in the files table. The database lives in
// $XDG_DATA_HOME/dirmirror/dirmirror.db by default and is written after every
// run, successful or not, unless history is disabled.
//
// modernc.org/sqlite is a CGO-free driver, so the binary stays statically
// linked.
package database
