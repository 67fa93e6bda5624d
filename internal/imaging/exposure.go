package imaging

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Exposure hints.
const (
	HintTooDark     = "image looks too dark"
	HintWashedOut   = "image looks washed out"
	HintLowContrast = "image has very low contrast"
)

// Exposure summarizes the perceptual lightness of a grayscale image.
type Exposure struct {
	// MeanLightness is the mean CIE L* value (0-100).
	MeanLightness float64 `json:"mean_lightness"`

	// LightnessStdDev is the standard deviation of L* across pixels.
	LightnessStdDev float64 `json:"lightness_stddev"`

	// Hint names the most likely capture problem, or is empty.
	Hint string `json:"hint,omitempty"`
}

// Exposure thresholds on the L* scale.
const (
	darkLightness      = 25.0
	washedOutLightness = 92.0
	lowContrastStdDev  = 8.0
)

// lightnessTable maps each 8-bit gray level to CIE L* (0-100).
var lightnessTable = func() [256]float64 {
	var t [256]float64
	for i := range t {
		v := float64(i) / 255
		l, _, _ := colorful.Color{R: v, G: v, B: v}.Lab()
		t[i] = l * 100
	}
	return t
}()

// AssessExposure measures mean lightness and spread. An empty image reports
// zeros and no hint.
func AssessExposure(img *image.Gray) Exposure {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return Exposure{}
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for _, v := range img.Pix[off : off+b.Dx()] {
			l := lightnessTable[v]
			sum += l
			sumSq += l * l
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}

	e := Exposure{
		MeanLightness:   mean,
		LightnessStdDev: math.Sqrt(variance),
	}
	switch {
	case e.MeanLightness < darkLightness:
		e.Hint = HintTooDark
	case e.MeanLightness > washedOutLightness:
		e.Hint = HintWashedOut
	case e.LightnessStdDev < lowContrastStdDev:
		e.Hint = HintLowContrast
	}
	return e
}
