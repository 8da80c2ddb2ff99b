// Package main provides the entry point for the dirmirror CLI.
//
// dirmirror crawls an HTTP directory listing protected by Basic
// authentication and mirrors every file it finds into a local directory.
//
// Usage:
//
//	dirmirror mirror https://files.example.com/pub/
//	dirmirror history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
