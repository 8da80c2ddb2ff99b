package remote

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// acceptListingEncoding is advertised on listing requests. Listing pages are
// highly compressible text, file bodies are requested as identity.
const acceptListingEncoding = "zstd, gzip"

// decodeBody wraps body according to the Content-Encoding header.
// The returned close function releases the decoder, not body itself.
func decodeBody(body io.Reader, contentEncoding string) (io.Reader, func(), error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return body, func() {}, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("remote: create zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	case "gzip", "x-gzip":
		gr, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("remote: create gzip reader: %w", err)
		}
		return gr, func() { _ = gr.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("remote: unsupported Content-Encoding %q", contentEncoding)
	}
}
