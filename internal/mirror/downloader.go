package mirror

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/nao1215/dirmirror/internal/remote"
)

// DefaultChunkSize is the number of bytes copied per read/write cycle.
const DefaultChunkSize = 10000

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// StreamFetcher opens a remote file body. *remote.Client satisfies it.
type StreamFetcher interface {
	FetchFileStream(ctx context.Context, url string) (*remote.FileStream, error)
}

// Result describes one completed download.
type Result struct {
	// URL is the fetched file URL.
	URL string

	// Path is the written file, relative to the destination root.
	Path string

	// Filename is the local file name.
	Filename string

	// Bytes is the number of bytes written.
	Bytes int64

	// Duration is the wall time spent on the transfer.
	Duration time.Duration

	// Checksum is the hex BLAKE2b-256 digest of the written bytes.
	Checksum string
}

// Downloader streams remote files into a destination filesystem.
// It reuses one chunk buffer and is not safe for concurrent use.
type Downloader struct {
	fetcher StreamFetcher
	fs      billy.Filesystem

	chunkSize int
	buf       []byte

	// limiter caps throughput in bytes per second; nil means unlimited.
	limiter *rate.Limiter

	onChunk func(n int)
	logger  *slog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithChunkSize overrides DefaultChunkSize. Values <= 0 are ignored.
func WithChunkSize(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithRateLimit caps the download throughput at bytesPerSecond.
// Values <= 0 mean unlimited.
func WithRateLimit(bytesPerSecond int64) DownloaderOption {
	return func(d *Downloader) {
		if bytesPerSecond <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))
	}
}

// WithChunkCallback registers fn to be called with the size of every chunk
// written to disk.
func WithChunkCallback(fn func(n int)) DownloaderOption {
	return func(d *Downloader) {
		d.onChunk = fn
	}
}

// WithDownloaderLogger sets the logger for per-file debug output.
func WithDownloaderLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDownloader creates a Downloader writing into fs. fs is typically
// osfs.New(destination), so every path is relative to the destination root
// and cannot escape it.
func NewDownloader(fetcher StreamFetcher, fs billy.Filesystem, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		fetcher:   fetcher,
		fs:        fs,
		chunkSize: DefaultChunkSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}

	// A single WaitN may not request more tokens than the burst.
	if d.limiter != nil && d.limiter.Burst() < d.chunkSize {
		d.limiter.SetBurst(d.chunkSize)
	}
	d.buf = make([]byte, d.chunkSize)
	return d
}

// Download fetches fileURL and writes it to relDir/<LocalFilename(fileURL)>.
//
// relDir is created with all missing parents first. A non-success response
// fails with the fetcher's error before the output file is created. An
// existing file at the target path is truncated and overwritten. The
// response body and the output file are released on every return path.
func (d *Downloader) Download(ctx context.Context, fileURL, relDir string) (result *Result, err error) {
	name := LocalFilename(fileURL)
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFilename, fileURL)
	}

	if relDir != "" {
		if err := d.fs.MkdirAll(relDir, dirPerm); err != nil {
			return nil, &FilesystemError{Op: "mkdir", Path: relDir, Err: err}
		}
	}
	target := d.fs.Join(relDir, name)

	start := time.Now()
	stream, err := d.fetcher.FetchFileStream(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	f, err := d.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, &FilesystemError{Op: "create", Path: target, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			result = nil
			err = &FilesystemError{Op: "close", Path: target, Err: cerr}
		}
	}()

	digest, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: init checksum: %w", err)
	}

	written, err := d.copyChunks(ctx, f, digest, stream, target)
	if err != nil {
		return nil, err
	}

	result = &Result{
		URL:      fileURL,
		Path:     target,
		Filename: name,
		Bytes:    written,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(digest.Sum(nil)),
	}
	d.logger.Debug("downloaded file",
		"url", fileURL,
		"path", target,
		"bytes", written,
		"duration", result.Duration)
	return result, nil
}

// copyChunks moves the body to dst at most chunkSize bytes per cycle through
// the shared buffer and feeds every written chunk to digest. The rate limiter,
// when set, is charged per chunk.
func (d *Downloader) copyChunks(ctx context.Context, dst io.Writer, digest hash.Hash, src io.Reader, target string) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(d.buf)
		if n > 0 {
			if d.limiter != nil {
				if err := d.limiter.WaitN(ctx, n); err != nil {
					return written, err
				}
			}
			wn, werr := dst.Write(d.buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, &FilesystemError{Op: "write", Path: target, Err: werr}
			}
			if wn != n {
				return written, &FilesystemError{Op: "write", Path: target, Err: ErrShortWrite}
			}
			digest.Write(d.buf[:n])
			if d.onChunk != nil {
				d.onChunk(n)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("mirror: read body of %s: %w", target, rerr)
		}
	}
}
