package pbd

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/mrjoshuak/go-vaa3d/internal/pbdtest"
	"github.com/mrjoshuak/go-vaa3d/internal/xdr"
)

var byteOrders = []xdr.ByteOrder{xdr.BigEndian, xdr.LittleEndian}

// readChunked drains r using reads of exactly size bytes.
func readChunked(r io.Reader, size int) ([]byte, error) {
	var out []byte
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, io.ErrNoProgress
		}
	}
}

func decodeAll(t *testing.T, stream []byte, order xdr.ByteOrder, opts ...Option) []byte {
	t.Helper()
	out, err := io.ReadAll(NewReader(bytes.NewReader(stream), order, opts...))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code  byte
		kind  RunKind
		count int
	}{
		{0, RunLiteral, 1},
		{31, RunLiteral, 32},
		{32, RunDifference, 1},
		{79, RunDifference, 48},
		{80, RunUnsupported, 0},
		{150, RunUnsupported, 0},
		{222, RunUnsupported, 0},
		{223, RunRepeat, 1},
		{255, RunRepeat, 33},
	}
	for _, tt := range tests {
		kind, count := Classify(tt.code)
		if kind != tt.kind || count != tt.count {
			t.Errorf("Classify(%d) = %v, %d, want %v, %d", tt.code, kind, count, tt.kind, tt.count)
		}
	}
}

func TestLiteralRun(t *testing.T) {
	for _, order := range byteOrders {
		// Code 0: one sample taken verbatim.
		got := decodeAll(t, []byte{0, 0x12, 0x34}, order)
		if !bytes.Equal(got, []byte{0x12, 0x34}) {
			t.Errorf("%v code 0: got %v, want [0x12 0x34]", order, got)
		}

		// Code 31: 32 samples.
		values := make([]int16, 32)
		for i := range values {
			values[i] = int16(i*1000 - 7000)
		}
		stream := pbdtest.NewEncoder(order).Literal(values...).Bytes()
		if stream[0] != 31 {
			t.Fatalf("control code = %d, want 31", stream[0])
		}
		got = decodeAll(t, stream, order)
		if want := pbdtest.Encode(values, order); !bytes.Equal(got, want) {
			t.Errorf("%v code 31: got %v, want %v", order, got, want)
		}
	}
}

func TestRepeatRun(t *testing.T) {
	for _, order := range byteOrders {
		codec := xdr.NewCodec(order)
		value := int16(-1234)
		var enc [2]byte
		codec.PutInt16(enc[:], value)

		tests := []struct {
			code  byte
			count int
		}{
			{223, 1},
			{255, 33},
		}
		for _, tt := range tests {
			got := decodeAll(t, []byte{tt.code, enc[0], enc[1]}, order)
			want := bytes.Repeat(enc[:], tt.count)
			if !bytes.Equal(got, want) {
				t.Errorf("%v code %d: got %d bytes %v, want %d repetitions of %v",
					order, tt.code, len(got), got, tt.count, enc)
			}
		}
	}
}

func TestDifferenceRun(t *testing.T) {
	// Literal 10, then eight deltas 1 2 3 4 -1 -2 -3 0 packed as
	// 001 010 011 100 101 110 111 000.
	stream := []byte{0, 0x00, 0x0A, 39, 0x29, 0xCB, 0xB8}
	want := pbdtest.Encode([]int16{10, 11, 13, 16, 20, 19, 17, 14, 14}, xdr.BigEndian)

	got := decodeAll(t, stream, xdr.BigEndian)
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	built := pbdtest.NewEncoder(xdr.BigEndian).Literal(10).Difference(1, 2, 3, 4, -1, -2, -3, 0).Bytes()
	if !bytes.Equal(built, stream) {
		t.Errorf("reference encoder produced %v, want %v", built, stream)
	}
}

func TestDifferenceDiscardsTrailingBits(t *testing.T) {
	// Three deltas use 9 bits; the rest of the second byte is garbage that
	// must be skipped before the next control code.
	stream := pbdtest.NewEncoder(xdr.LittleEndian).
		Literal(5).
		Raw(34, 0x24, 0xFF).
		Repeat(7, 2).
		Bytes()
	want := pbdtest.Encode([]int16{5, 6, 7, 8, 7, 7}, xdr.LittleEndian)

	got := decodeAll(t, stream, xdr.LittleEndian)
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDifferenceChainsAcrossRuns(t *testing.T) {
	// The baseline survives run boundaries, whichever kind set it.
	stream := pbdtest.NewEncoder(xdr.BigEndian).
		Repeat(100, 3).
		Difference(-3, -3).
		Difference(4).
		Literal(0).
		Difference(-1).
		Bytes()
	want := pbdtest.Encode([]int16{100, 100, 100, 97, 94, 98, 0, -1}, xdr.BigEndian)

	got := decodeAll(t, stream, xdr.BigEndian)
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDifferenceWraps(t *testing.T) {
	stream := pbdtest.NewEncoder(xdr.BigEndian).Literal(32767).Difference(1).Bytes()
	want := pbdtest.Encode([]int16{32767, -32768}, xdr.BigEndian)
	if got := decodeAll(t, stream, xdr.BigEndian); !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnsupportedCode(t *testing.T) {
	for _, code := range []byte{80, 150, 222} {
		stream := []byte{223, 0, 1, code, 0, 0}
		r := NewReader(bytes.NewReader(stream), xdr.BigEndian)
		_, err := io.ReadAll(r)
		if !errors.Is(err, ErrUnsupportedCode) {
			t.Fatalf("code %d: error = %v, want ErrUnsupportedCode", code, err)
		}
		var ce *CodeError
		if !errors.As(err, &ce) {
			t.Fatalf("code %d: error %T is not *CodeError", code, err)
		}
		if ce.Code != code || ce.Offset != 3 {
			t.Errorf("CodeError = {%d, %d}, want {%d, 3}", ce.Code, ce.Offset, code)
		}
	}
}

func TestTruncatedStream(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
	}{
		{"literal missing sample", []byte{1, 0, 1, 0}},
		{"literal half sample", []byte{0, 7}},
		{"repeat missing value", []byte{230}},
		{"repeat half value", []byte{230, 1}},
		{"difference missing bytes", []byte{0, 0, 1, 40, 0x29}},
		{"difference no bytes", []byte{0, 0, 1, 32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.stream), xdr.BigEndian)
			_, err := io.ReadAll(r)
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("error = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestEmptyStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil), xdr.BigEndian)
	n, err := r.Read(make([]byte, 16))
	if n != 0 || err != io.EOF {
		t.Errorf("Read() = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestZeroLengthRead(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{223, 0, 1}), xdr.BigEndian)
	n, err := r.Read(nil)
	if n != 0 || err != nil {
		t.Errorf("Read(nil) = %d, %v, want 0, nil", n, err)
	}
	if s := r.Stats(); s.BytesIn != 0 {
		t.Errorf("zero-length read consumed %d bytes", s.BytesIn)
	}
}

func TestLeadingDifferenceRun(t *testing.T) {
	stream := pbdtest.NewEncoder(xdr.BigEndian).Difference(1, 1).Bytes()

	_, err := io.ReadAll(NewReader(bytes.NewReader(stream), xdr.BigEndian))
	if !errors.Is(err, ErrMissingBaseline) {
		t.Errorf("error = %v, want ErrMissingBaseline", err)
	}

	got := decodeAll(t, stream, xdr.BigEndian, WithInitialBaseline(0))
	if want := pbdtest.Encode([]int16{1, 2}, xdr.BigEndian); !bytes.Equal(got, want) {
		t.Errorf("with baseline 0: got %v, want %v", got, want)
	}
}

func TestReadSizes(t *testing.T) {
	samples := pbdtest.Volume(5000)
	for _, order := range byteOrders {
		stream := pbdtest.Compress(samples, order)
		want := pbdtest.Encode(samples, order)
		for _, size := range []int{1, 2, 3, 7, 1024, len(want)} {
			got, err := readChunked(NewReader(bytes.NewReader(stream), order), size)
			if err != nil {
				t.Fatalf("%v size %d: error %v", order, size, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("%v size %d: output differs (got %d bytes, want %d)", order, size, len(got), len(want))
			}
		}
	}
}

func TestChunkingIndependence(t *testing.T) {
	samples := pbdtest.Volume(3000)
	stream := pbdtest.Compress(samples, xdr.LittleEndian)
	want := pbdtest.Encode(samples, xdr.LittleEndian)

	schedules := [][]int{
		{1, 2, 3},
		{5, 1, 1, 64, 9},
		{4096},
		{2},
		{13, 7, 1},
	}
	for _, schedule := range schedules {
		r := NewReader(bytes.NewReader(stream), xdr.LittleEndian)
		var got []byte
		for i := 0; ; i++ {
			buf := make([]byte, schedule[i%len(schedule)])
			n, err := r.Read(buf)
			got = append(got, buf[:n]...)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("schedule %v: error %v", schedule, err)
			}
		}
		if !bytes.Equal(got, want) {
			t.Errorf("schedule %v: output differs", schedule)
		}
	}
}

func TestSlowSources(t *testing.T) {
	samples := pbdtest.Volume(2000)
	stream := pbdtest.Compress(samples, xdr.BigEndian)
	want := pbdtest.Encode(samples, xdr.BigEndian)

	sources := map[string]func(io.Reader) io.Reader{
		"one byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
		"data err": iotest.DataErrReader,
	}
	for name, wrap := range sources {
		for _, size := range []int{1, 3, 1024} {
			r := NewReader(wrap(bytes.NewReader(stream)), xdr.BigEndian)
			got, err := readChunked(r, size)
			if err != nil {
				t.Fatalf("%s size %d: error %v", name, size, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("%s size %d: output differs", name, size)
			}
		}
	}
}

func TestOddLengthReads(t *testing.T) {
	stream := pbdtest.NewEncoder(xdr.BigEndian).
		Literal(0x0102, 0x0304).
		Difference(1, 1).
		Bytes()

	r := NewReader(bytes.NewReader(stream), xdr.BigEndian)
	first := make([]byte, 3)
	if n, err := r.Read(first); n != 3 || err != nil {
		t.Fatalf("Read(3) = %d, %v", n, err)
	}
	second := make([]byte, 1)
	if n, err := r.Read(second); n != 1 || err != nil {
		t.Fatalf("Read(1) = %d, %v", n, err)
	}
	got := append(first, second...)
	if want := []byte{0x01, 0x02, 0x03, 0x04}; !bytes.Equal(got, want) {
		t.Errorf("odd reads: got %v, want %v", got, want)
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x03, 0x05, 0x03, 0x06}; !bytes.Equal(rest, want) {
		t.Errorf("remaining: got %v, want %v", rest, want)
	}
}

func TestLeftoverDeliveredAtEnd(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0, 0xAB, 0xCD}), xdr.BigEndian)
	buf := make([]byte, 1)
	var got []byte
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if want := []byte{0xAB, 0xCD}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStickyError(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0, 0, 1, 100}), xdr.BigEndian)
	buf := make([]byte, 8)
	n, err := r.Read(buf)
	if n != 2 || !errors.Is(err, ErrUnsupportedCode) {
		t.Fatalf("Read() = %d, %v, want 2, ErrUnsupportedCode", n, err)
	}
	for i := 0; i < 2; i++ {
		if n, err := r.Read(buf); n != 0 || !errors.Is(err, ErrUnsupportedCode) {
			t.Errorf("Read() after error = %d, %v", n, err)
		}
	}
}

func TestReadByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{224, 0xBE, 0xEF}), xdr.BigEndian)
	var got []byte
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	if want := []byte{0xBE, 0xEF, 0xBE, 0xEF}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSamples(t *testing.T) {
	samples := pbdtest.Volume(700)
	stream := pbdtest.Compress(samples, xdr.LittleEndian)
	r := NewReader(bytes.NewReader(stream), xdr.LittleEndian)

	got := make([]int16, 0, len(samples))
	buf := make([]int16, 33)
	for {
		n, err := r.Samples(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}

	r = NewReader(bytes.NewReader(stream), xdr.LittleEndian)
	if _, err := r.Read(make([]byte, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Samples(buf); err != ErrMisaligned {
		t.Errorf("Samples() after odd Read error = %v, want ErrMisaligned", err)
	}
}

func TestStats(t *testing.T) {
	stream := pbdtest.NewEncoder(xdr.BigEndian).
		Literal(1, 2, 3).
		Repeat(3, 10).
		Difference(1, 1, 1, 1).
		Repeat(0, 1).
		Bytes()

	r := NewReader(bytes.NewReader(stream), xdr.BigEndian)
	if _, err := io.ReadAll(r); err != nil {
		t.Fatal(err)
	}
	s := r.Stats()
	if s.Literal != (KindStats{Runs: 1, Samples: 3}) {
		t.Errorf("Literal = %+v", s.Literal)
	}
	if s.Repeat != (KindStats{Runs: 2, Samples: 11}) {
		t.Errorf("Repeat = %+v", s.Repeat)
	}
	if s.Difference != (KindStats{Runs: 1, Samples: 4}) {
		t.Errorf("Difference = %+v", s.Difference)
	}
	if s.Runs() != 4 || s.Samples() != 18 {
		t.Errorf("Runs() = %d, Samples() = %d, want 4, 18", s.Runs(), s.Samples())
	}
	if s.BytesIn != int64(len(stream)) {
		t.Errorf("BytesIn = %d, want %d", s.BytesIn, len(stream))
	}
	if want := float64(36) / float64(len(stream)); s.Ratio() != want {
		t.Errorf("Ratio() = %v, want %v", s.Ratio(), want)
	}
}

func BenchmarkReader(b *testing.B) {
	samples := pbdtest.Volume(1 << 16)
	stream := pbdtest.Compress(samples, xdr.LittleEndian)
	buf := make([]byte, 4096)

	b.ResetTimer()
	b.SetBytes(int64(len(samples) * 2))

	for i := 0; i < b.N; i++ {
		r := NewReader(bytes.NewReader(stream), xdr.LittleEndian)
		for {
			if _, err := r.Read(buf); err != nil {
				break
			}
		}
	}
}
