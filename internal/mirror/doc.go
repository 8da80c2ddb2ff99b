// Package mirror writes remote files into a local tree that mirrors the
// remote hierarchy below the root URL.
//
// SplitPathAndFilename and LocalFilename map a file reference onto its local
// directory and name. Downloader streams one file at a time into a
// billy.Filesystem rooted at the destination directory, in fixed-size chunks
// so memory use does not depend on file size.
package mirror
