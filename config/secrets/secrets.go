// Package secrets resolves "!secret <path>" references found in configuration
// values to the contents of the file at <path>.
package secrets

import (
	"bytes"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Prefix is the marker that identifies a configuration value as a secret
// reference rather than a literal value.
const Prefix = "!secret "

// CutPrefix reports whether s has the secret prefix and, if so, returns the
// path following it.
func CutPrefix(s string) (path string, ok bool) {
	return strings.CutPrefix(s, Prefix)
}

// Read reads the contents of the file at path and returns it with leading
// and trailing whitespace trimmed.
func Read(path string) (string, error) {
	var buf [256]byte

	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer unix.Close(fd)

	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return "", err
	}

	b := bytes.TrimSpace(buf[:n])

	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// MustRead reads the contents of the file at path, returning def if the read
// fails.
func MustRead(path, def string) string {
	s, err := Read(path)
	if err != nil {
		return def
	}

	return s
}
