package v3d

import (
	"io"

	"github.com/pkg/errors"
)

// Writer errors
var (
	// ErrIncompleteVolume is returned by Close when less voxel data than the
	// header declares was written.
	ErrIncompleteVolume = errors.New("v3d: incomplete volume data")

	// ErrExcessData is returned by Write for data past the declared volume size.
	ErrExcessData = errors.New("v3d: data beyond the declared volume size")
)

// Writer writes an uncompressed volume. Data beyond the size declared by the
// header is rejected.
type Writer struct {
	w       io.Writer
	header  Header
	written int64
}

// NewWriter writes a raw-format copy of h to w. The byte order and data type
// of h are kept so the voxel data can be copied through unchanged.
func NewWriter(w io.Writer, h *Header) (*Writer, error) {
	hdr := *h
	hdr.Format = FormatRaw
	if _, err := hdr.WriteTo(w); err != nil {
		return nil, errors.Wrap(err, "v3d: writing header")
	}
	return &Writer{w: w, header: hdr}, nil
}

// Write writes voxel data.
func (w *Writer) Write(p []byte) (int, error) {
	if remaining := w.header.DataBytes() - w.written; int64(len(p)) > remaining {
		return 0, errors.Wrapf(ErrExcessData, "write of %d bytes with %d remaining", len(p), remaining)
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	return n, err
}

// Written returns the number of voxel bytes written.
func (w *Writer) Written() int64 {
	return w.written
}

// Close checks that the whole volume was written. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.written != w.header.DataBytes() {
		return errors.Wrapf(ErrIncompleteVolume, "wrote %d of %d bytes", w.written, w.header.DataBytes())
	}
	return nil
}
