package pbd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/icza/bitio"

	"github.com/mrjoshuak/go-vaa3d/internal/xdr"
)

// stateBegin means no run is in progress.
const stateBegin = RunUnsupported

// deltas maps a 3-bit difference symbol to its signed delta.
var deltas = [8]int16{0, 1, 2, 3, 4, -1, -2, -3}

// source counts the bytes pulled from the underlying stream.
type source struct {
	r interface {
		io.Reader
		io.ByteReader
	}
	n int64
}

func (s *source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.n += int64(n)
	return n, err
}

func (s *source) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err == nil {
		s.n++
	}
	return b, err
}

// decoder is the token state machine. Each step decodes one whole run into
// the pending queue.
type decoder struct {
	src   *source
	bits  *bitio.Reader
	codec xdr.Codec

	state     RunKind
	remaining int

	baseline     int16
	haveBaseline bool

	queue []int16
	head  int

	stats RunStats
}

func newDecoder(r io.Reader, order xdr.ByteOrder) *decoder {
	src := &source{}
	if br, ok := r.(interface {
		io.Reader
		io.ByteReader
	}); ok {
		src.r = br
	} else {
		src.r = bufio.NewReader(r)
	}
	return &decoder{
		src:   src,
		bits:  bitio.NewReader(src),
		codec: xdr.NewCodec(order),
		state: stateBegin,
		queue: make([]int16, 0, MaxRunLength),
	}
}

func (d *decoder) pending() int {
	return len(d.queue) - d.head
}

func (d *decoder) pop() int16 {
	v := d.queue[d.head]
	d.head++
	if d.head == len(d.queue) {
		d.queue = d.queue[:0]
		d.head = 0
	}
	return v
}

func (d *decoder) push(v int16) {
	d.queue = append(d.queue, v)
	d.baseline = v
	d.haveBaseline = true
	d.remaining--
	d.stats.kind(d.state).Samples++
}

// step reads one control code and decodes its run. It returns io.EOF only
// when the source ends cleanly between runs.
func (d *decoder) step() error {
	code, err := d.bits.ReadByte()
	if err != nil {
		return err
	}

	kind, count := Classify(code)
	if kind == RunUnsupported {
		return &CodeError{Code: code, Offset: d.src.n - 1}
	}
	if kind == RunDifference && !d.haveBaseline {
		return fmt.Errorf("%w at offset %d", ErrMissingBaseline, d.src.n-1)
	}

	d.state, d.remaining = kind, count
	d.stats.kind(kind).Runs++

	switch kind {
	case RunLiteral:
		err = d.literal()
	case RunDifference:
		err = d.difference()
	case RunRepeat:
		err = d.repeat()
	}
	if err != nil {
		return d.truncated(err)
	}
	d.state = stateBegin
	return nil
}

func (d *decoder) readSample() (int16, error) {
	var buf [xdr.SampleSize]byte
	if _, err := io.ReadFull(d.bits, buf[:]); err != nil {
		return 0, err
	}
	return d.codec.Int16(buf[:]), nil
}

func (d *decoder) literal() error {
	for d.remaining > 0 {
		v, err := d.readSample()
		if err != nil {
			return err
		}
		d.push(v)
	}
	return nil
}

func (d *decoder) repeat() error {
	v, err := d.readSample()
	if err != nil {
		return err
	}
	for d.remaining > 0 {
		d.push(v)
	}
	return nil
}

// difference decodes chained 3-bit deltas, pulling source bytes only as
// symbols need them. Unused bits of the final byte are dropped.
func (d *decoder) difference() error {
	v := d.baseline
	for d.remaining > 0 {
		sym, err := d.bits.ReadBits(3)
		if err != nil {
			return err
		}
		v += deltas[sym]
		d.push(v)
	}
	d.bits.Align()
	return nil
}

// truncated converts an end of input inside a run into ErrTruncated.
func (d *decoder) truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s run ended with %d samples missing", ErrTruncated, d.state, d.remaining)
	}
	return fmt.Errorf("pbd: %s run: %w", d.state, err)
}

func (d *decoder) runStats() RunStats {
	s := d.stats
	s.BytesIn = d.src.n
	return s
}
