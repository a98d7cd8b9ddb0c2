package v3dutil

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-vaa3d/pbd"
	"github.com/mrjoshuak/go-vaa3d/v3d"
)

// ===========================================
// Conversion
// ===========================================

// ConvertOptions configures ConvertFile.
type ConvertOptions struct {
	// Container wraps the output file, e.g. ContainerZstd.
	Container Container

	// BufferSize is the copy chunk size. 0 means one slice.
	BufferSize int

	// Read configures how the input is decoded.
	Read *v3d.ReadOptions
}

// ConvertResult describes a finished conversion.
type ConvertResult struct {
	Header    v3d.Header // header of the input
	DataBytes int64
	Stats     pbd.RunStats // zero for raw input
}

// ConvertToRaw writes the volume read by src to dst as an uncompressed
// .v3draw stream, slice by slice.
func ConvertToRaw(dst io.Writer, src *v3d.Reader) (int64, error) {
	w, err := v3d.NewWriter(dst, src.Header())
	if err != nil {
		return 0, err
	}
	for {
		s, err := src.LoadNextSlice()
		if err == io.EOF {
			break
		}
		if err != nil {
			return w.Written(), err
		}
		_, err = w.Write(s.Data)
		s.Release()
		if err != nil {
			return w.Written(), errors.Wrap(err, "v3dutil: writing slice")
		}
	}
	return w.Written(), w.Close()
}

// ConvertFile converts the volume at input, raw or PBD and optionally inside
// a container, to an uncompressed volume at output.
func ConvertFile(input, output string, opts ConvertOptions) (*ConvertResult, error) {
	in, err := Open(input, opts.Read)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return nil, err
	}

	res, err := convert(in.Reader, out, opts)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		return nil, errors.Wrapf(err, "v3dutil: converting %s", input)
	}
	return res, nil
}

func convert(src *v3d.Reader, out io.Writer, opts ConvertOptions) (*ConvertResult, error) {
	w, closeContainer, err := wrapWriter(out, opts.Container)
	if err != nil {
		return nil, err
	}

	var n int64
	if opts.BufferSize > 0 {
		n, err = copyRaw(w, src, opts.BufferSize)
	} else {
		n, err = ConvertToRaw(w, src)
	}
	if cerr := closeContainer(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	res := &ConvertResult{Header: *src.Header(), DataBytes: n}
	res.Stats, _ = src.Stats()
	return res, nil
}

// copyRaw streams the data region with a fixed chunk size instead of whole slices.
func copyRaw(dst io.Writer, src *v3d.Reader, size int) (int64, error) {
	w, err := v3d.NewWriter(dst, src.Header())
	if err != nil {
		return 0, err
	}
	if _, err := io.CopyBuffer(w, onlyReader{src.Data()}, make([]byte, size)); err != nil {
		return w.Written(), err
	}
	return w.Written(), w.Close()
}

// onlyReader hides any WriterTo so io.CopyBuffer uses the given buffer size.
type onlyReader struct {
	io.Reader
}
