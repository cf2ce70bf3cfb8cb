package spb

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/joyautomation/synapse-go/internal/syncutil"
)

// Algorithm tokens recognised on a compressed Payload's "algorithm" metric,
// compared case-insensitively per spec.
const (
	AlgorithmGZIP    = "GZIP"
	AlgorithmDEFLATE = "DEFLATE"
)

// bufPool reuses the scratch buffer Compress writes into across publishes,
// since an edge node with compression enabled calls Compress on every scan
// tick that qualifies a metric.
var bufPool = syncutil.Pool[*bytes.Buffer]{
	New: func() *bytes.Buffer { return new(bytes.Buffer) },
}

// Compress compresses body with algorithm, which must be "GZIP" or
// "DEFLATE" (case-insensitive). An unrecognised algorithm returns
// ErrInvalidPayload.
func Compress(algorithm string, body []byte) ([]byte, error) {
	buf := bufPool.Get()
	buf.Reset()

	defer bufPool.Put(buf)

	switch strings.ToUpper(algorithm) {
	case AlgorithmGZIP:
		w := gzip.NewWriter(buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case AlgorithmDEFLATE:
		w, err := flate.NewWriter(buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidPayload
	}

	return bytes.Clone(buf.Bytes()), nil
}

// Decompress decompresses body using algorithm. An unrecognised algorithm
// returns ErrInvalidPayload.
func Decompress(algorithm string, body []byte) ([]byte, error) {
	var r io.ReadCloser

	switch strings.ToUpper(algorithm) {
	case AlgorithmGZIP:
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r = gr
	case AlgorithmDEFLATE:
		r = flate.NewReader(bytes.NewReader(body))
	default:
		return nil, ErrInvalidPayload
	}
	defer r.Close()

	return io.ReadAll(r)
}
