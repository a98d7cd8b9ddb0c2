package v3dutil

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ===========================================
// Comparison
// ===========================================

// CompareResult reports the outcome of comparing two data streams.
type CompareResult struct {
	Bytes         int64 // bytes compared
	Mismatches    int64
	FirstMismatch int64 // -1 when the streams agree
	LengthA       int64
	LengthB       int64
}

// Equal reports whether both streams had the same length and content.
func (r *CompareResult) Equal() bool {
	return r.Mismatches == 0 && r.LengthA == r.LengthB
}

func (r *CompareResult) String() string {
	if r.Equal() {
		return fmt.Sprintf("identical (%d bytes)", r.Bytes)
	}
	return fmt.Sprintf("%d mismatched bytes, first at offset %d, lengths %d and %d",
		r.Mismatches, r.FirstMismatch, r.LengthA, r.LengthB)
}

// CompareData reads a and b with reads of bufSize bytes each and compares
// them offset by offset.
func CompareData(a, b io.Reader, bufSize int) (*CompareResult, error) {
	if bufSize <= 0 {
		return nil, errors.Errorf("v3dutil: invalid buffer size %d", bufSize)
	}
	res := &CompareResult{FirstMismatch: -1}
	bufA := make([]byte, bufSize)
	bufB := make([]byte, bufSize)
	for {
		na, errA := io.ReadFull(a, bufA)
		nb, errB := io.ReadFull(b, bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return nil, errors.Wrap(errA, "v3dutil: reading first stream")
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return nil, errors.Wrap(errB, "v3dutil: reading second stream")
		}

		n := min(na, nb)
		if !bytes.Equal(bufA[:n], bufB[:n]) {
			for i := 0; i < n; i++ {
				if bufA[i] != bufB[i] {
					if res.FirstMismatch < 0 {
						res.FirstMismatch = res.Bytes + int64(i)
					}
					res.Mismatches++
				}
			}
		}
		res.Bytes += int64(n)
		res.LengthA += int64(na)
		res.LengthB += int64(nb)

		if errA != nil || errB != nil {
			// Drain the longer stream to report its full length.
			if errA == nil {
				m, err := io.Copy(io.Discard, a)
				res.LengthA += m
				if err != nil {
					return nil, errors.Wrap(err, "v3dutil: reading first stream")
				}
			}
			if errB == nil {
				m, err := io.Copy(io.Discard, b)
				res.LengthB += m
				if err != nil {
					return nil, errors.Wrap(err, "v3dutil: reading second stream")
				}
			}
			if res.LengthA != res.LengthB && res.FirstMismatch < 0 {
				res.FirstMismatch = res.Bytes
			}
			return res, nil
		}
	}
}

// CompareFiles compares the voxel data of two volume files, in any
// combination of raw, PBD and container formats.
func CompareFiles(pathA, pathB string, bufSize int) (*CompareResult, error) {
	a, err := Open(pathA, nil)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	b, err := Open(pathB, nil)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	ha, hb := a.Header(), b.Header()
	if ha.Size != hb.Size || ha.DataType != hb.DataType || ha.Order != hb.Order {
		return nil, errors.Errorf("v3dutil: volumes differ in layout: %v %v %v vs %v %v %v",
			ha.Size, ha.DataType, ha.Order, hb.Size, hb.DataType, hb.Order)
	}
	return CompareData(a.Data(), b.Data(), bufSize)
}
