// Package compressutil optionally compresses outgoing frame bytes when the
// envelope's compression field requests it.
package compressutil

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Algorithm is the envelope.compression discriminator.
type Algorithm string

const (
	None    Algorithm = ""
	Gzip    Algorithm = "gzip"
	Deflate Algorithm = "deflate"
)

// Compress encodes data with the named algorithm. None returns data
// unchanged.
func Compress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compressutil: gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compressutil: gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case Deflate:
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("compressutil: deflate writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compressutil: deflate write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compressutil: deflate close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("compressutil: unknown algorithm %q", algo)
	}
}

// Decompress reverses Compress.
func Decompress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compressutil: gzip reader: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("compressutil: gzip read: %w", err)
		}
		return out, nil
	case Deflate:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("compressutil: deflate read: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("compressutil: unknown algorithm %q", algo)
	}
}
