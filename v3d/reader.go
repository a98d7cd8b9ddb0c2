package v3d

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-vaa3d/pbd"
)

// Volume errors
var (
	ErrUnsupportedDataType = errors.New("v3d: unsupported data type for pbd volume")
	ErrTruncatedVolume     = errors.New("v3d: volume data ends before the last slice")
	ErrSliceRange          = errors.New("v3d: slice out of range")
)

// ReadOptions configures NewReader.
type ReadOptions struct {
	// LegacySizes reads a header with 2-byte dimensions.
	LegacySizes bool

	// Pool supplies slice buffers. Nil uses a shared default pool.
	Pool *BufferPool

	// DecoderOptions are passed to the PBD decoder.
	DecoderOptions []pbd.Option
}

// Reader reads the voxel data of a volume, decompressing PBD volumes on the fly.
type Reader struct {
	header *Header
	data   io.Reader
	pbd    *pbd.Reader
	pool   *BufferPool
	next   int
}

// NewReader parses the header from r and prepares the data stream.
// r is read sequentially and never seeked.
func NewReader(r io.Reader, opts *ReadOptions) (*Reader, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	br := bufio.NewReader(r)

	var h *Header
	var err error
	if opts.LegacySizes {
		h, err = ReadLegacyHeader(br)
	} else {
		h, err = ReadHeader(br)
	}
	if err != nil {
		return nil, err
	}

	vr := &Reader{header: h, pool: opts.Pool}
	if vr.pool == nil {
		vr.pool = defaultPool
	}

	switch h.Format {
	case FormatRaw:
		vr.data = io.LimitReader(br, h.DataBytes())
	case FormatPBD:
		if h.DataType != Uint16 {
			return nil, errors.Wrapf(ErrUnsupportedDataType, "%s", h.DataType)
		}
		vr.pbd = pbd.NewReader(br, h.Order, opts.DecoderOptions...)
		vr.data = io.LimitReader(vr.pbd, h.DataBytes())
	}
	return vr, nil
}

// Header returns the parsed header.
func (r *Reader) Header() *Header {
	return r.header
}

// Data returns the uncompressed voxel data stream, limited to DataBytes.
// Reading it directly is exclusive with LoadNextSlice.
func (r *Reader) Data() io.Reader {
	return r.data
}

// Stats returns the PBD run statistics, or false for raw volumes.
func (r *Reader) Stats() (pbd.RunStats, bool) {
	if r.pbd == nil {
		return pbd.RunStats{}, false
	}
	return r.pbd.Stats(), true
}

// Slice is one x-y plane of the volume.
type Slice struct {
	Index int // position in file order, c*z + z
	Z     int
	C     int
	Data  []byte

	pool *BufferPool
}

// Release returns the slice buffer to its pool. Data must not be used afterwards.
func (s *Slice) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s.Data)
		s.Data = nil
		s.pool = nil
	}
}

// LoadNextSlice reads the next x-y plane. It returns io.EOF after the last one.
func (r *Reader) LoadNextSlice() (*Slice, error) {
	if r.next >= r.header.SliceCount() {
		return nil, io.EOF
	}
	buf, err := r.pool.Get(r.header.SliceBytes())
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r.data, buf); err != nil {
		r.pool.Put(buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrTruncatedVolume, "slice %d of %d", r.next, r.header.SliceCount())
		}
		return nil, errors.Wrapf(err, "v3d: slice %d", r.next)
	}

	z := r.header.Size[DimZ]
	s := &Slice{Index: r.next, Z: r.next % z, C: r.next / z, Data: buf, pool: r.pool}
	r.next++
	return s, nil
}

// SkipSlices discards the next n slices.
func (r *Reader) SkipSlices(n int) error {
	if n < 0 || r.next+n > r.header.SliceCount() {
		return errors.Wrapf(ErrSliceRange, "skipping %d slices from %d of %d", n, r.next, r.header.SliceCount())
	}
	target := r.next + n
	want := int64(n) * int64(r.header.SliceBytes())
	got, err := io.CopyN(io.Discard, r.data, want)
	r.next += int(got / int64(r.header.SliceBytes()))
	if err == io.EOF {
		return errors.Wrapf(ErrTruncatedVolume, "skipping to slice %d, stopped at %d", target, r.next)
	}
	return errors.Wrap(err, "v3d: skipping slices")
}
