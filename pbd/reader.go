package pbd

import (
	"io"

	"github.com/mrjoshuak/go-vaa3d/internal/xdr"
)

// Option configures a Reader.
type Option func(*decoder)

// WithInitialBaseline sets the sample a leading difference run is relative
// to. Without it a stream that starts with a difference run fails with
// ErrMissingBaseline.
func WithInitialBaseline(v int16) Option {
	return func(d *decoder) {
		d.baseline = v
		d.haveBaseline = true
	}
}

// Reader decompresses a PBD stream into 16-bit samples encoded in a fixed
// byte order. It implements io.Reader and io.ByteReader.
//
// A Reader owns its source for its whole life and is not safe for
// concurrent use. Decode errors are sticky: once Read returns an error other
// than a short count, every later call returns the same error.
type Reader struct {
	dec   *decoder
	codec xdr.Codec

	// second byte of a sample whose first byte ended the previous Read
	leftover    byte
	hasLeftover bool

	err error
}

// NewReader returns a Reader decoding the PBD stream read from r. Samples are
// written in the given byte order, which is also the order of the literal
// and repeat values in the stream.
//
// If r does not implement io.ByteReader it is wrapped in a bufio.Reader, so
// more bytes than the compressed stream may be consumed from r. Pass an
// io.ByteReader or a reader bounded to the compressed region when the
// position of r matters afterwards.
func NewReader(r io.Reader, order xdr.ByteOrder, opts ...Option) *Reader {
	d := newDecoder(r, order)
	for _, opt := range opts {
		opt(d)
	}
	return &Reader{dec: d, codec: xdr.NewCodec(order)}
}

// Order returns the byte order of the decoded samples.
func (r *Reader) Order() xdr.ByteOrder {
	return r.codec.Order()
}

// Stats returns counts of the runs decoded so far.
func (r *Reader) Stats() RunStats {
	return r.dec.runStats()
}

// next returns the next decoded sample, decoding another run if needed.
func (r *Reader) next() (int16, error) {
	for r.dec.pending() == 0 {
		if err := r.dec.step(); err != nil {
			return 0, err
		}
	}
	return r.dec.pop(), nil
}

// fail records err and shapes the result of a Read that wrote n bytes.
func (r *Reader) fail(n int, err error) (int, error) {
	r.err = err
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

// Read fills p with decoded bytes. A sample split by the end of p is
// finished at the start of the next Read.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	if r.hasLeftover {
		p[0] = r.leftover
		r.hasLeftover = false
		n = 1
	}
	if r.err != nil {
		return r.fail(n, r.err)
	}

	for len(p)-n >= xdr.SampleSize {
		v, err := r.next()
		if err != nil {
			return r.fail(n, err)
		}
		r.codec.PutInt16(p[n:], v)
		n += xdr.SampleSize
	}

	if n < len(p) {
		v, err := r.next()
		if err != nil {
			return r.fail(n, err)
		}
		var buf [xdr.SampleSize]byte
		r.codec.PutInt16(buf[:], v)
		p[n] = buf[0]
		r.leftover = buf[1]
		r.hasLeftover = true
		n++
	}

	return n, nil
}

// ReadByte reads a single decoded byte.
func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Samples fills dst with decoded samples. It returns ErrMisaligned if a
// previous Read stopped halfway through a sample.
func (r *Reader) Samples(dst []int16) (int, error) {
	if r.hasLeftover {
		return 0, ErrMisaligned
	}
	if r.err != nil {
		return 0, r.err
	}
	for i := range dst {
		v, err := r.next()
		if err != nil {
			return r.fail(i, err)
		}
		dst[i] = v
	}
	return len(dst), nil
}
