package compressutil

import (
	"bytes"
	"testing"
)

func TestRoundTrip_Gzip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := Compress(Gzip, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := Decompress(Gzip, compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got %q want %q", out, data)
	}
}

func TestRoundTrip_Deflate(t *testing.T) {
	data := []byte("another test payload with some repeats repeats repeats")
	compressed, err := Compress(Deflate, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := Decompress(Deflate, compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got %q want %q", out, data)
	}
}

func TestNone_PassesThrough(t *testing.T) {
	data := []byte("unchanged")
	out, err := Compress(None, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected passthrough, got %q", out)
	}
}
