// Package v3d reads and writes Vaa3D volume files (.v3draw and .v3dpbd).
//
// A Vaa3D file is a short header followed by the voxel data of a 4D volume
// (x, y, z, channel), x varying fastest and channel slowest. Raw files store
// the data as is; PBD files store it compressed with the pbd package.
package v3d

import (
	"io"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-vaa3d/internal/xdr"
)

// Header errors
var (
	ErrFormatKey   = errors.New("v3d: unrecognized format key")
	ErrDataType    = errors.New("v3d: invalid data type")
	ErrDimensions  = errors.New("v3d: invalid dimensions")
	ErrShortHeader = errors.New("v3d: truncated header")
)

// Format keys at the start of every Vaa3D file
const (
	KeyRaw = "raw_image_stack_by_hpeng"
	KeyPBD = "v3d_volume_pkbitdf_encod"

	keyLen = 24
)

// Header sizes for 4-byte and legacy 2-byte dimensions
const (
	HeaderSize       = keyLen + 1 + 2 + 4*4
	LegacyHeaderSize = keyLen + 1 + 2 + 4*2
)

// Format is the storage format of the voxel data.
type Format int

const (
	FormatRaw Format = iota
	FormatPBD
)

func (f Format) String() string {
	if f == FormatPBD {
		return "pbd"
	}
	return "raw"
}

// Key returns the format key written at the start of the file.
func (f Format) Key() string {
	if f == FormatPBD {
		return KeyPBD
	}
	return KeyRaw
}

// DataType is the sample type, stored as its size in bytes.
type DataType uint16

const (
	Uint8   DataType = 1
	Uint16  DataType = 2
	Float32 DataType = 4
)

func (d DataType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Float32:
		return "float32"
	}
	return "unknown"
}

// Size returns the number of bytes per sample.
func (d DataType) Size() int {
	return int(d)
}

// Valid reports whether d is one of the defined types.
func (d DataType) Valid() bool {
	return d == Uint8 || d == Uint16 || d == Float32
}

// Dimension indexes into Header.Size.
const (
	DimX = iota
	DimY
	DimZ
	DimC
)

// Header describes a Vaa3D volume.
type Header struct {
	Format   Format
	Order    xdr.ByteOrder
	DataType DataType
	Size     [4]int // x, y, z, channels

	// LegacySizes marks a header storing dimensions as 2-byte values.
	LegacySizes bool
}

// Len returns the encoded header size.
func (h *Header) Len() int {
	if h.LegacySizes {
		return LegacyHeaderSize
	}
	return HeaderSize
}

// SliceBytes returns the size of one x-y plane.
func (h *Header) SliceBytes() int {
	return h.Size[DimX] * h.Size[DimY] * h.DataType.Size()
}

// SliceCount returns the number of x-y planes over all channels.
func (h *Header) SliceCount() int {
	return h.Size[DimZ] * h.Size[DimC]
}

// DataBytes returns the size of the uncompressed voxel data.
func (h *Header) DataBytes() int64 {
	return int64(h.SliceBytes()) * int64(h.SliceCount())
}

// Validate checks the data type and dimensions. The slice and volume sizes
// must be representable as int.
func (h *Header) Validate() error {
	if !h.DataType.Valid() {
		return errors.Wrapf(ErrDataType, "type code %d", uint16(h.DataType))
	}
	limit := 1<<31 - 1
	if h.LegacySizes {
		limit = 1<<16 - 1
	}
	for i, s := range h.Size {
		if s <= 0 || s > limit {
			return errors.Wrapf(ErrDimensions, "dimension %d is %d", i, s)
		}
	}

	slice, ok := mulSize(uint64(h.Size[DimX]), uint64(h.Size[DimY]), uint64(h.DataType.Size()))
	if !ok {
		return errors.Wrapf(ErrDimensions, "slice of %dx%d %s samples is too large", h.Size[DimX], h.Size[DimY], h.DataType)
	}
	if _, ok := mulSize(slice, uint64(h.Size[DimZ]), uint64(h.Size[DimC])); !ok {
		return errors.Wrapf(ErrDimensions, "volume %v of %s samples is too large", h.Size, h.DataType)
	}
	return nil
}

// mulSize multiplies sizes, reporting false if the product exceeds math.MaxInt.
func mulSize(factors ...uint64) (uint64, bool) {
	p := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(p, f)
		if hi != 0 || lo > math.MaxInt {
			return 0, false
		}
		p = lo
	}
	return p, true
}

// ReadHeader parses a header with 4-byte dimensions.
func ReadHeader(r io.Reader) (*Header, error) {
	return readHeader(r, false)
}

// ReadLegacyHeader parses a header with 2-byte dimensions.
func ReadLegacyHeader(r io.Reader) (*Header, error) {
	return readHeader(r, true)
}

func readHeader(r io.Reader, legacy bool) (*Header, error) {
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, shortHeader(err, "format key")
	}

	h := &Header{LegacySizes: legacy}
	switch string(key) {
	case KeyRaw:
		h.Format = FormatRaw
	case KeyPBD:
		h.Format = FormatPBD
	default:
		return nil, errors.Wrapf(ErrFormatKey, "%q", key)
	}

	var code [1]byte
	if _, err := io.ReadFull(r, code[:]); err != nil {
		return nil, shortHeader(err, "byte order")
	}
	order, err := xdr.ParseByteOrder(code[0])
	if err != nil {
		return nil, errors.Wrap(err, "v3d: header")
	}
	h.Order = order

	sr := xdr.NewStreamReader(r, order)
	dt, err := sr.ReadUint16()
	if err != nil {
		return nil, shortHeader(err, "data type")
	}
	h.DataType = DataType(dt)

	for i := range h.Size {
		var v uint32
		if legacy {
			var v16 uint16
			v16, err = sr.ReadUint16()
			v = uint32(v16)
		} else {
			v, err = sr.ReadUint32()
		}
		if err != nil {
			return nil, shortHeader(err, "dimensions")
		}
		h.Size[i] = int(int32(v))
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func shortHeader(err error, field string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrShortHeader, "reading %s", field)
	}
	return errors.Wrapf(err, "v3d: reading %s", field)
}

// WriteTo encodes the header.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	sw := xdr.NewStreamWriter(w, h.Order)
	if err := sw.WriteBytes([]byte(h.Format.Key())); err != nil {
		return sw.Written(), err
	}
	if err := sw.WriteByte(h.Order.Code()); err != nil {
		return sw.Written(), err
	}
	if err := sw.WriteUint16(uint16(h.DataType)); err != nil {
		return sw.Written(), err
	}
	for _, s := range h.Size {
		var err error
		if h.LegacySizes {
			err = sw.WriteUint16(uint16(s))
		} else {
			err = sw.WriteUint32(uint32(s))
		}
		if err != nil {
			return sw.Written(), err
		}
	}
	return sw.Written(), nil
}
