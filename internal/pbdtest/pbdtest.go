// Package pbdtest builds PBD-compressed streams for tests.
//
// Encoder writes individual runs exactly as requested, which lets tests
// construct edge cases byte by byte. Compress is a greedy reference encoder
// for whole sample sequences.
package pbdtest

import (
	"fmt"

	"github.com/mrjoshuak/go-vaa3d/internal/xdr"
)

// Run limits of the PBD16 format
const (
	MaxLiteral    = 32
	MaxDifference = 48
	MaxRepeat     = 33
)

// Encoder appends PBD runs to a buffer.
type Encoder struct {
	codec xdr.Codec
	buf   []byte
}

// NewEncoder creates an Encoder writing samples in the given byte order.
func NewEncoder(order xdr.ByteOrder) *Encoder {
	return &Encoder{codec: xdr.NewCodec(order)}
}

// Bytes returns the encoded stream.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Raw appends bytes verbatim.
func (e *Encoder) Raw(b ...byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

func (e *Encoder) sample(v int16) {
	var b [xdr.SampleSize]byte
	e.codec.PutInt16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// Literal appends a literal run of 1 to 32 samples.
func (e *Encoder) Literal(values ...int16) *Encoder {
	if len(values) < 1 || len(values) > MaxLiteral {
		panic(fmt.Sprintf("pbdtest: literal run of %d samples", len(values)))
	}
	e.buf = append(e.buf, byte(len(values)-1))
	for _, v := range values {
		e.sample(v)
	}
	return e
}

// Repeat appends a repeat run of v, 1 to 33 times.
func (e *Encoder) Repeat(v int16, count int) *Encoder {
	if count < 1 || count > MaxRepeat {
		panic(fmt.Sprintf("pbdtest: repeat run of %d samples", count))
	}
	e.buf = append(e.buf, byte(222+count))
	e.sample(v)
	return e
}

// Symbol returns the 3-bit code of a delta in [-3, 4].
func Symbol(delta int) byte {
	if delta < -3 || delta > 4 {
		panic(fmt.Sprintf("pbdtest: delta %d out of range", delta))
	}
	if delta >= 0 {
		return byte(delta)
	}
	return byte(4 - delta)
}

// Difference appends a difference run of 1 to 48 deltas, packed MSB-first
// with the final byte zero-padded.
func (e *Encoder) Difference(deltas ...int) *Encoder {
	if len(deltas) < 1 || len(deltas) > MaxDifference {
		panic(fmt.Sprintf("pbdtest: difference run of %d samples", len(deltas)))
	}
	e.buf = append(e.buf, byte(len(deltas)+31))
	var acc uint32
	var nbits uint
	for _, d := range deltas {
		acc = acc<<3 | uint32(Symbol(d))
		nbits += 3
		for nbits >= 8 {
			nbits -= 8
			e.buf = append(e.buf, byte(acc>>nbits))
		}
	}
	if nbits > 0 {
		e.buf = append(e.buf, byte(acc<<(8-nbits)))
	}
	return e
}

// Compress encodes samples greedily: repeats of three or more, difference
// runs of four or more small steps, literals otherwise.
func Compress(samples []int16, order xdr.ByteOrder) []byte {
	e := NewEncoder(order)
	i := 0
	for i < len(samples) {
		if n := repeatLen(samples, i); n >= 3 {
			e.Repeat(samples[i], n)
			i += n
			continue
		}
		if i > 0 {
			if n := diffLen(samples, i); n >= 4 {
				deltas := make([]int, n)
				for k := range deltas {
					deltas[k] = int(samples[i+k]) - int(samples[i+k-1])
				}
				e.Difference(deltas...)
				i += n
				continue
			}
		}
		start := i
		i++
		for i < len(samples) && i-start < MaxLiteral {
			if repeatLen(samples, i) >= 3 || diffLen(samples, i) >= 4 {
				break
			}
			i++
		}
		e.Literal(samples[start:i]...)
	}
	return e.Bytes()
}

func repeatLen(s []int16, i int) int {
	n := 1
	for i+n < len(s) && s[i+n] == s[i] && n < MaxRepeat {
		n++
	}
	return n
}

func diffLen(s []int16, i int) int {
	n := 0
	for i+n < len(s) && n < MaxDifference {
		d := int(s[i+n]) - int(s[i+n-1])
		if d < -3 || d > 4 {
			break
		}
		n++
	}
	return n
}

// Encode returns samples in their uncompressed two-byte form.
func Encode(samples []int16, order xdr.ByteOrder) []byte {
	c := xdr.NewCodec(order)
	out := make([]byte, len(samples)*xdr.SampleSize)
	for i, v := range samples {
		c.PutInt16(out[i*xdr.SampleSize:], v)
	}
	return out
}

// Volume returns a deterministic sample sequence mixing flat background,
// smooth gradients and noise, so every run kind appears when compressed.
func Volume(n int) []int16 {
	s := make([]int16, n)
	seed := uint32(12345)
	for i := range s {
		seed = seed*1103515245 + 12345
		switch (i / 64) % 4 {
		case 0:
			s[i] = 100
		case 1:
			s[i] = int16(1000 + (i%64)*3 - (i % 5))
		case 2:
			s[i] = int16(seed >> 17)
		default:
			s[i] = int16(-500 + i%7)
		}
	}
	return s
}
