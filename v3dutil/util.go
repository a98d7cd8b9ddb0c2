// Package v3dutil provides file-level operations on Vaa3D volumes.
//
// It opens volumes stored plain or inside gzip/zstd containers, converts PBD
// volumes to raw, compares voxel data, exports slices and summarizes the PBD
// run structure of a file.
//
// Example usage:
//
//	info, _ := v3dutil.GetFileInfo("neuron.v3dpbd", nil)
//	fmt.Printf("%dx%dx%d, %d channels, %s\n", info.Size[0], info.Size[1], info.Size[2], info.Size[3], info.DataType)
//
//	res, err := v3dutil.ConvertFile("neuron.v3dpbd", "neuron.v3draw", v3dutil.ConvertOptions{})
package v3dutil

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-vaa3d/v3d"
)

// Container names a compression wrapper around a whole volume file.
type Container string

const (
	ContainerNone Container = ""
	ContainerGzip Container = "gzip"
	ContainerZstd Container = "zstd"
)

// ErrUnknownContainer is returned for a container name other than gzip or zstd.
var ErrUnknownContainer = errors.New("v3dutil: unknown container")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseContainer maps a name ("", "none", "gzip", "zstd") to a Container.
func ParseContainer(name string) (Container, error) {
	switch name {
	case "", "none":
		return ContainerNone, nil
	case "gzip", "gz":
		return ContainerGzip, nil
	case "zstd", "zst":
		return ContainerZstd, nil
	}
	return ContainerNone, errors.Wrapf(ErrUnknownContainer, "%q", name)
}

// ===========================================
// Opening
// ===========================================

// File is an open volume together with the resources backing it.
type File struct {
	*v3d.Reader
	Container Container

	closers []func() error
}

// Close releases the container decoder and the underlying file.
func (f *File) Close() error {
	var first error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	f.closers = nil
	return first
}

// Open opens a volume file, unwrapping a gzip or zstd container if present.
func Open(path string, opts *v3d.ReadOptions) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := NewFile(fh, opts)
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "v3dutil: %s", path)
	}
	f.closers = append([]func() error{fh.Close}, f.closers...)
	return f, nil
}

// NewFile reads a volume from r, unwrapping a gzip or zstd container if
// present. Closing the File does not close r.
func NewFile(r io.Reader, opts *v3d.ReadOptions) (*File, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))

	f := &File{}
	var src io.Reader = br
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "v3dutil: gzip container")
		}
		f.Container = ContainerGzip
		f.closers = append(f.closers, zr.Close)
		src = zr
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "v3dutil: zstd container")
		}
		f.Container = ContainerZstd
		f.closers = append(f.closers, func() error {
			zr.Close()
			return nil
		})
		src = zr
	}

	vr, err := v3d.NewReader(src, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.Reader = vr
	return f, nil
}

// wrapWriter wraps w in the given container. The returned close function
// flushes the container without closing w.
func wrapWriter(w io.Writer, c Container) (io.Writer, func() error, error) {
	switch c {
	case ContainerNone:
		return w, func() error { return nil }, nil
	case ContainerGzip:
		zw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	case ContainerZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	}
	return nil, nil, errors.Wrapf(ErrUnknownContainer, "%q", string(c))
}

// ===========================================
// File Information
// ===========================================

// FileInfo summarizes a volume file.
type FileInfo struct {
	Path      string
	Format    v3d.Format
	Container Container
	ByteOrder string
	DataType  v3d.DataType
	Size      [4]int
	DataBytes int64
	FileSize  int64
}

// GetFileInfo returns summary information about a volume file. Only the
// header is read. opts may be nil.
func GetFileInfo(path string, opts *v3d.ReadOptions) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	f, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := f.Header()
	return &FileInfo{
		Path:      path,
		Format:    h.Format,
		Container: f.Container,
		ByteOrder: h.Order.String(),
		DataType:  h.DataType,
		Size:      h.Size,
		DataBytes: h.DataBytes(),
		FileSize:  stat.Size(),
	}, nil
}
