package v3dutil

import (
	"image"
	"io"
	"math/bits"

	"github.com/mrjoshuak/go-jpeg2000"
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-vaa3d/v3d"
)

// ===========================================
// Slice Export
// ===========================================

// ErrSliceRange is returned for a z or channel index outside the volume.
var ErrSliceRange = errors.New("v3dutil: slice index out of range")

// SliceImage converts a slice to a 16-bit grayscale image. 8-bit samples are
// widened to the full 16-bit range; float32 volumes are not supported.
func SliceImage(s *v3d.Slice, h *v3d.Header) (*image.Gray16, error) {
	width, height := h.Size[v3d.DimX], h.Size[v3d.DimY]
	img := image.NewGray16(image.Rect(0, 0, width, height))
	n := width * height

	switch h.DataType {
	case v3d.Uint8:
		for i := 0; i < n; i++ {
			v := s.Data[i]
			img.Pix[2*i] = v
			img.Pix[2*i+1] = v
		}
	case v3d.Uint16:
		order := h.Order.Binary()
		for i := 0; i < n; i++ {
			v := order.Uint16(s.Data[2*i:])
			img.Pix[2*i] = byte(v >> 8)
			img.Pix[2*i+1] = byte(v)
		}
	default:
		return nil, errors.Wrapf(v3d.ErrDataType, "cannot export %s slice", h.DataType)
	}
	return img, nil
}

// resolutions picks a decomposition depth the image is large enough for.
func resolutions(width, height int) int {
	levels := bits.Len(uint(min(width, height))) - 1
	return max(1, min(6, levels+1))
}

// EncodeJ2K writes img as a JPEG 2000 codestream, requesting the reversible
// transform. Sample values are not guaranteed to survive a decode with
// go-jpeg2000 v1.0.0.
func EncodeJ2K(w io.Writer, img *image.Gray16) error {
	b := img.Bounds()
	opts := &jpeg2000.Options{
		Format:         jpeg2000.FormatJ2K,
		Lossless:       true,
		NumResolutions: resolutions(b.Dx(), b.Dy()),
	}
	if err := jpeg2000.Encode(w, img, opts); err != nil {
		return errors.Wrap(err, "v3dutil: jpeg2000 encode")
	}
	return nil
}

// ExportSliceJ2K decodes the volume read by r up to slice (z, c) and writes
// it to w as JPEG 2000. r must not have been read from yet.
func ExportSliceJ2K(r *v3d.Reader, z, c int, w io.Writer) error {
	h := r.Header()
	if z < 0 || z >= h.Size[v3d.DimZ] || c < 0 || c >= h.Size[v3d.DimC] {
		return errors.Wrapf(ErrSliceRange, "z %d c %d in volume %v", z, c, h.Size)
	}
	if err := r.SkipSlices(c*h.Size[v3d.DimZ] + z); err != nil {
		return err
	}
	s, err := r.LoadNextSlice()
	if err != nil {
		return err
	}
	defer s.Release()

	img, err := SliceImage(s, h)
	if err != nil {
		return err
	}
	return EncodeJ2K(w, img)
}
