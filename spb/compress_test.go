package spb_test

import (
	"bytes"
	"testing"

	"github.com/joyautomation/synapse-go/spb"
)

func TestCompressRoundTrip(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog, repeated a few times: " +
		"the quick brown fox jumps over the lazy dog")

	for _, algo := range []string{spb.AlgorithmGZIP, spb.AlgorithmDEFLATE, "gzip", "deflate"} {
		compressed, err := spb.Compress(algo, body)
		if err != nil {
			t.Fatalf("Compress(%s): %v", algo, err)
		}

		got, err := spb.Decompress(algo, compressed)
		if err != nil {
			t.Fatalf("Decompress(%s): %v", algo, err)
		}

		if !bytes.Equal(got, body) {
			t.Fatalf("Decompress(%s) = %q, want %q", algo, got, body)
		}
	}
}

func TestCompressUnknownAlgorithm(t *testing.T) {
	if _, err := spb.Compress("ZSTD", []byte("x")); err != spb.ErrInvalidPayload {
		t.Fatalf("Compress(ZSTD) err = %v, want ErrInvalidPayload", err)
	}

	if _, err := spb.Decompress("ZSTD", []byte("x")); err != spb.ErrInvalidPayload {
		t.Fatalf("Decompress(ZSTD) err = %v, want ErrInvalidPayload", err)
	}
}
