package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is one recognized word with its location and OCR confidence.
type Word struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// Result contains the complete results of text extraction from an image.
type Result struct {
	// Text is all recognized text with original spacing and newlines.
	Text string `json:"text"`

	// Words contains individual words with their bounding boxes. May be empty
	// if bounding box extraction fails; Text is still populated.
	Words []Word `json:"words"`

	// MeanConfidence averages Words' confidence, or is 0 when there are none.
	MeanConfidence float64 `json:"mean_confidence"`
}

// Tesseract runs the Tesseract engine through gosseract.
//
// A new engine client is created for every call, so a single Tesseract value
// is safe for concurrent use.
type Tesseract struct {
	// Language is a Tesseract language code such as "eng" or "eng+fra".
	Language string

	// TessdataPrefix overrides where language data is read from. Empty uses
	// the TESSDATA_PREFIX environment variable or the library default.
	TessdataPrefix string

	// PageSegMode follows tesseract's --psm numbering. 0 keeps the engine
	// default.
	PageSegMode int
}

// NewTesseract returns an extractor for the given language.
func NewTesseract(language, tessdataPrefix string, pageSegMode int) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{Language: language, TessdataPrefix: tessdataPrefix, PageSegMode: pageSegMode}
}

// Extract returns the text Tesseract reads from img.
//
// The engine call itself cannot be interrupted; ctx is checked before the
// image is handed over and again once recognition returns.
func (t *Tesseract) Extract(ctx context.Context, img image.Image) (string, error) {
	res, err := t.recognize(ctx, img, false)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Recognize returns the text together with word-level bounding boxes and
// confidence. Empty words are filtered out.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	return t.recognize(ctx, img, true)
}

func (t *Tesseract) recognize(ctx context.Context, img image.Image, withWords bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client, err := t.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Text: text, Words: []Word{}}
	if !withWords {
		return res, nil
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// text is still usable without boxes
		return res, nil
	}
	var sum float64
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		w := Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		}
		sum += w.Confidence
		res.Words = append(res.Words, w)
	}
	if len(res.Words) > 0 {
		res.MeanConfidence = sum / float64(len(res.Words))
	}
	return res, nil
}

func (t *Tesseract) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.PageSegMode)); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return client, nil
}

// Info describes whether OCR can run with the current settings.
type Info struct {
	Available      bool   `json:"available"`
	Version        string `json:"version,omitempty"`
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Backend        string `json:"backend"`
	Error          string `json:"error,omitempty"`
}

// Info probes the engine by recognizing a blank image with the configured
// language. Missing language data shows up here rather than on the first
// real scan.
func (t *Tesseract) Info() Info {
	info := Info{
		Language:       t.Language,
		TessdataPrefix: t.TessdataPrefix,
		Backend:        "gosseract",
	}

	client, err := t.newClient()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer client.Close()
	info.Version = client.Version()

	var buf bytes.Buffer
	if err := png.Encode(&buf, blankImage()); err != nil {
		info.Error = err.Error()
		return info
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		info.Error = err.Error()
		return info
	}
	if _, err := client.Text(); err != nil {
		info.Error = err.Error()
		return info
	}

	info.Available = true
	return info
}

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}
