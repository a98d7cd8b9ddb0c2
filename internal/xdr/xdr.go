// Package xdr provides byte-order aware encoding and decoding of the
// fixed-width integers found in Vaa3D volume files.
//
// Vaa3D files declare their byte order in the header, so unlike a fixed
// wire format every codec here carries the order it was constructed with.
// The order never changes for the life of a codec.
package xdr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("xdr: negative size")

	// ErrUnknownByteOrder is returned for an endianness code other than 'B' or 'L'.
	ErrUnknownByteOrder = errors.New("xdr: unknown byte order")
)

// ByteOrder selects big- or little-endian encoding.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// ParseByteOrder maps a Vaa3D endianness code ('B' or 'L') to a ByteOrder.
func ParseByteOrder(code byte) (ByteOrder, error) {
	switch code {
	case 'B':
		return BigEndian, nil
	case 'L':
		return LittleEndian, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownByteOrder, code)
}

// Code returns the Vaa3D endianness code for o.
func (o ByteOrder) Code() byte {
	if o == LittleEndian {
		return 'L'
	}
	return 'B'
}

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// Binary returns the encoding/binary implementation of o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// SampleSize is the encoded size of one 16-bit sample.
const SampleSize = 2

// Codec converts 16-bit samples to and from their two-byte form.
// The zero value is a big-endian codec.
type Codec struct {
	order ByteOrder
}

// NewCodec creates a Codec for the given byte order.
func NewCodec(order ByteOrder) Codec {
	return Codec{order: order}
}

// Order returns the byte order of c.
func (c Codec) Order() ByteOrder {
	return c.order
}

// Int16 decodes a signed sample from the first two bytes of b.
func (c Codec) Int16(b []byte) int16 {
	return int16(c.order.Binary().Uint16(b))
}

// PutInt16 encodes v into the first two bytes of b.
func (c Codec) PutInt16(b []byte, v int16) {
	c.order.Binary().PutUint16(b, uint16(v))
}

// Uint16 decodes an unsigned 16-bit value from b.
func (c Codec) Uint16(b []byte) uint16 {
	return c.order.Binary().Uint16(b)
}

// PutUint16 encodes an unsigned 16-bit value into b.
func (c Codec) PutUint16(b []byte, v uint16) {
	c.order.Binary().PutUint16(b, v)
}

// Uint32 decodes an unsigned 32-bit value from b.
func (c Codec) Uint32(b []byte) uint32 {
	return c.order.Binary().Uint32(b)
}

// PutUint32 encodes an unsigned 32-bit value into b.
func (c Codec) PutUint32(b []byte, v uint32) {
	c.order.Binary().PutUint32(b, v)
}

// StreamReader wraps an io.Reader for binary reading in a fixed byte order.
type StreamReader struct {
	r     io.Reader
	codec Codec
	buf   [8]byte
}

// NewStreamReader creates a StreamReader from an io.Reader.
func NewStreamReader(r io.Reader, order ByteOrder) *StreamReader {
	return &StreamReader{r: r, codec: NewCodec(order)}
}

// ReadByte reads a single byte.
func (r *StreamReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:1])
	return r.buf[0], err
}

// ReadBytes reads n bytes into a new slice.
func (r *StreamReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	result := make([]byte, n)
	_, err := io.ReadFull(r.r, result)
	return result, err
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *StreamReader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return r.codec.Uint16(r.buf[:2]), nil
}

// ReadInt16 reads a signed 16-bit integer.
func (r *StreamReader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *StreamReader) ReadUint32() (uint32, error) {
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		return 0, err
	}
	return r.codec.Uint32(r.buf[:4]), nil
}

// StreamWriter wraps an io.Writer for binary writing in a fixed byte order.
type StreamWriter struct {
	w     io.Writer
	codec Codec
	buf   [8]byte
	n     int64
}

// NewStreamWriter creates a StreamWriter from an io.Writer.
func NewStreamWriter(w io.Writer, order ByteOrder) *StreamWriter {
	return &StreamWriter{w: w, codec: NewCodec(order)}
}

// Written returns the number of bytes written so far.
func (w *StreamWriter) Written() int64 {
	return w.n
}

func (w *StreamWriter) write(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	return err
}

// WriteByte writes a single byte.
func (w *StreamWriter) WriteByte(b byte) error {
	w.buf[0] = b
	return w.write(w.buf[:1])
}

// WriteBytes writes a byte slice.
func (w *StreamWriter) WriteBytes(b []byte) error {
	return w.write(b)
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *StreamWriter) WriteUint16(v uint16) error {
	w.codec.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

// WriteInt16 writes a signed 16-bit integer.
func (w *StreamWriter) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *StreamWriter) WriteUint32(v uint32) error {
	w.codec.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}
