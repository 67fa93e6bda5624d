package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ITU-R 601-2 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// NormalizeOptions controls how photographs are prepared for OCR.
//
// The zero value is not useful; start from DefaultNormalizeOptions.
type NormalizeOptions struct {
	// Contrast is the enhancement factor applied around the mean gray level.
	// 1.0 leaves the image unchanged.
	Contrast float64 `json:"contrast"`

	// Sharpness is the enhancement factor applied against a smoothed copy.
	// 1.0 leaves the image unchanged, 0 returns the smoothed copy.
	Sharpness float64 `json:"sharpness"`

	// MaxDimension caps the longer side. Images that already fit are never
	// upscaled.
	MaxDimension int `json:"max_dimension"`
}

// DefaultNormalizeOptions returns contrast 2.0, sharpness 2.0 and an 1800
// pixel cap.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		Contrast:     2.0,
		Sharpness:    2.0,
		MaxDimension: 1800,
	}
}

// Normalizer converts arbitrary photographs into OCR-friendly grayscale
// images. It holds only its options and is safe for concurrent use.
type Normalizer struct {
	opts NormalizeOptions
}

// NewNormalizer returns a Normalizer with fixed options.
func NewNormalizer(opts NormalizeOptions) *Normalizer {
	return &Normalizer{opts: opts}
}

// Options returns the settings the Normalizer was built with.
func (n *Normalizer) Options() NormalizeOptions {
	return n.opts
}

// Normalize runs the preprocessing steps in order:
//
//  1. Grayscale using ITU-R 601 luma weights.
//  2. Contrast enhancement around the rounded mean gray level.
//  3. Sharpness enhancement against a 3x3 smoothing filter. Border pixels
//     are left as they are.
//  4. Lanczos downscale so the longer side is at most MaxDimension. Each
//     side is scaled by the same ratio and truncated.
//
// The result always has its origin at (0,0). An empty input yields an empty
// image; Normalize never fails.
func (n *Normalizer) Normalize(img image.Image) *image.Gray {
	if img == nil || img.Bounds().Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	gray := rebase(effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB))
	gray = enhanceContrast(gray, n.opts.Contrast)
	gray = enhanceSharpness(gray, n.opts.Sharpness)
	return downscale(gray, n.opts.MaxDimension)
}

// Normalize is a convenience wrapper using DefaultNormalizeOptions.
func Normalize(img image.Image) *image.Gray {
	return NewNormalizer(DefaultNormalizeOptions()).Normalize(img)
}

// enhanceContrast blends the image with a uniform image at its mean gray
// level: out = mean + factor*(in - mean).
func enhanceContrast(src *image.Gray, factor float64) *image.Gray {
	if factor == 1.0 {
		return src
	}
	mean := float64(meanGray(src))

	dst := image.NewGray(src.Rect)
	forEachGray(src, dst, func(v uint8, x, y int) uint8 {
		return blend(mean, float64(v), factor)
	})
	return dst
}

// enhanceSharpness blends the image with its smoothed copy:
// out = smooth + factor*(in - smooth).
func enhanceSharpness(src *image.Gray, factor float64) *image.Gray {
	if factor == 1.0 {
		return src
	}
	b := src.Rect
	smooth := smoothFilter(src)

	dst := image.NewGray(b)
	forEachGray(src, dst, func(v uint8, x, y int) uint8 {
		if x == b.Min.X || y == b.Min.Y || x == b.Max.X-1 || y == b.Max.Y-1 {
			return v
		}
		s := smooth.Pix[smooth.PixOffset(x, y)]
		return blend(float64(s), float64(v), factor)
	})
	return dst
}

// smoothFilter applies the kernel
//
//	1 1 1
//	1 5 1
//	1 1 1
//
// scaled by 1/13. src must be zero-based.
func smoothFilter(src *image.Gray) *image.RGBA {
	k := convolution.NewKernel(3, 3)
	for i := range k.Matrix {
		k.Matrix[i] = 1.0 / 13.0
	}
	k.Matrix[4] = 5.0 / 13.0
	return convolution.Convolve(src, k, &convolution.Options{Wrap: false})
}

// downscale shrinks img so its longer side is maxDim. Smaller images are
// returned unchanged.
func downscale(img *image.Gray, maxDim int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if maxDim <= 0 || longest <= maxDim {
		return rebase(img)
	}

	ratio := float64(maxDim) / float64(longest)
	nw := int(float64(w) * ratio)
	nh := int(float64(h) * ratio)
	// the longer side lands exactly on the cap
	if w == longest {
		nw = maxDim
	}
	if h == longest {
		nh = maxDim
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	resized := imaging.Resize(img, nw, nh, imaging.Lanczos)

	out := image.NewGray(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			// all channels carry the same gray level
			out.Pix[out.PixOffset(x, y)] = resized.Pix[resized.PixOffset(x, y)]
		}
	}
	return out
}

// rebase moves the image origin to (0,0) without copying when it is
// already there.
func rebase(img *image.Gray) *image.Gray {
	if img.Rect.Min == (image.Point{}) {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	for y := 0; y < out.Rect.Dy(); y++ {
		srcOff := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+out.Rect.Dx()], img.Pix[srcOff:srcOff+out.Rect.Dx()])
	}
	return out
}

func meanGray(img *image.Gray) uint8 {
	b := img.Rect
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for _, v := range img.Pix[off : off+b.Dx()] {
			sum += uint64(v)
		}
	}
	n := uint64(b.Dx() * b.Dy())
	return uint8(math.Floor(float64(sum)/float64(n) + 0.5))
}

func forEachGray(src, dst *image.Gray, fn func(v uint8, x, y int) uint8) {
	b := src.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			dst.Pix[dst.PixOffset(x, y)] = fn(src.Pix[i], x, y)
		}
	}
}

// blend returns base + factor*(v - base) truncated into [0,255].
func blend(base, v, factor float64) uint8 {
	out := base + factor*(v-base)
	switch {
	case out <= 0:
		return 0
	case out >= 255:
		return 255
	}
	return uint8(out)
}
