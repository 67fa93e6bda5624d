package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createLabelImage renders lines of text and scales them up so Tesseract
// has enough pixels per glyph.
func createLabelImage(lines []string, scale int) *image.RGBA {
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}
	w := maxLen*7 + 40
	h := len(lines)*16 + 30

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	for i, line := range lines {
		drawText(small, 20, 20+i*16, line, color.Black)
	}
	if scale <= 1 {
		return small
	}

	// Scale up by drawing each pixel as a scale x scale block
	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.RGBAAt(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetRGBA(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

// requireTesseract skips the test when the engine or English data is missing.
func requireTesseract(t *testing.T) *Tesseract {
	t.Helper()
	tess := NewTesseract("eng", "", 0)
	if info := tess.Info(); !info.Available {
		t.Skipf("Tesseract not available: %s", info.Error)
	}
	return tess
}

func TestNewTesseract_Defaults(t *testing.T) {
	tess := NewTesseract("", "/opt/tessdata", 6)
	if tess.Language != DefaultLanguage {
		t.Errorf("Language: got %q, want %q", tess.Language, DefaultLanguage)
	}
	if tess.TessdataPrefix != "/opt/tessdata" || tess.PageSegMode != 6 {
		t.Errorf("unexpected settings: %+v", tess)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	tess := NewTesseract("eng", "", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tess.Extract(ctx, createLabelImage([]string{"Calories 250"}, 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExtract_EmptyImage(t *testing.T) {
	tess := NewTesseract("eng", "", 0)

	_, err := tess.Extract(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0)))
	if err == nil {
		t.Error("Extract should fail for an empty image")
	}
}

func TestInfo_InvalidLanguage(t *testing.T) {
	requireTesseract(t)

	info := NewTesseract("invalid_language_code_xyz", "", 0).Info()
	if info.Available {
		// Some Tesseract installations might be lenient with language codes
		t.Log("Info reported available for invalid language - may be Tesseract config")
	}
	if info.Backend != "gosseract" {
		t.Errorf("Backend: got %q, want gosseract", info.Backend)
	}
}

func TestInfo(t *testing.T) {
	tess := requireTesseract(t)

	info := tess.Info()
	if info.Version == "" {
		t.Error("Version should be reported when Tesseract is available")
	}
	if info.Language != "eng" {
		t.Errorf("Language: got %q, want eng", info.Language)
	}
}

func TestExtract_BlankImage(t *testing.T) {
	tess := requireTesseract(t)

	text, err := tess.Extract(context.Background(), blankImage())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Logf("blank image produced text %q", text)
	}
}

func TestExtract_LabelText(t *testing.T) {
	tess := requireTesseract(t)
	img := createLabelImage([]string{
		"Nutrition Facts",
		"Calories 250",
		"Total Fat 12g",
		"Protein 5g",
	}, 4)

	text, err := tess.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	t.Logf("Extracted text: %q", text)
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "calories") && !strings.Contains(lower, "protein") {
		t.Log("Warning: label words not recognized - may need larger scale or different font")
	}
}

func TestRecognize_Words(t *testing.T) {
	tess := requireTesseract(t)
	img := createLabelImage([]string{"SODIUM 470MG"}, 4)

	res, err := tess.Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	t.Logf("Extracted: %q, words: %d, mean confidence %.2f", res.Text, len(res.Words), res.MeanConfidence)
	for _, w := range res.Words {
		if strings.TrimSpace(w.Text) == "" {
			t.Error("empty words should be filtered out")
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("confidence out of range for %q: %f", w.Text, w.Confidence)
		}
		if w.Bounds.X2 < w.Bounds.X1 || w.Bounds.Y2 < w.Bounds.Y1 {
			t.Errorf("inverted bounds for %q: %+v", w.Text, w.Bounds)
		}
	}
	if len(res.Words) == 0 && res.MeanConfidence != 0 {
		t.Errorf("MeanConfidence should be 0 without words, got %f", res.MeanConfidence)
	}
}
