package vm

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

func newGzipWriter(w io.Writer) *gzip.Writer {
	return gzip.NewWriter(w)
}

func newGzipReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}
