// Package pipeline wires the scan stages together: normalize the photo,
// extract text, clean it, parse the nutrition table, derive health flags and
// optionally request a narrative summary.
package pipeline

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/imaging"
	"github.com/ironsheep/nutriscan-mcp/internal/logger"
	"github.com/ironsheep/nutriscan-mcp/internal/narrative"
	"github.com/ironsheep/nutriscan-mcp/internal/nutrition"
	"github.com/ironsheep/nutriscan-mcp/internal/ocr"
)

// TextExtractor reads text from a normalized image. ocr.Tesseract is the
// production implementation.
type TextExtractor interface {
	Extract(ctx context.Context, img image.Image) (string, error)
}

// WordRecognizer is an extractor that also reports word boxes and
// confidence. When the configured extractor implements it, photo scans carry
// the words and their mean confidence.
type WordRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (*ocr.Result, error)
}

var _ WordRecognizer = (*ocr.Tesseract)(nil)

// Status is the outcome of one analysis.
type Status string

const (
	// StatusNoText means OCR returned nothing usable.
	StatusNoText Status = "no_text"
	// StatusNothingRecognized means text was read but no nutrient parsed.
	StatusNothingRecognized Status = "nothing_recognized"
	StatusComplete          Status = "complete"
	StatusNarrativeFailed   Status = "narrative_failed"
	// StatusNarrativeSkipped means flags were produced but no generator is
	// configured.
	StatusNarrativeSkipped Status = "narrative_skipped"
)

// Caller-facing messages.
const (
	NoTextMessage            = "No readable text was found in the image. Please try again with a clearer photo of the nutrition label."
	NothingRecognizedMessage = "Text was found, but no nutrition facts could be recognized. Make sure the nutrition facts panel is fully in view."
)

// LowConfidence is the mean word confidence below which an unrecognized
// scan is blamed on the photo.
const LowConfidence = 0.6

// HintLowConfidence is appended to NothingRecognizedMessage for scans under
// LowConfidence.
const HintLowConfidence = "the text was hard to read, try a sharper photo"

// DefaultNarrativeTimeout bounds a single narrative request.
const DefaultNarrativeTimeout = 30 * time.Second

// ErrNoExtractor is returned by Analyze when the Analyzer has no OCR engine.
var ErrNoExtractor = errors.New("no text extractor configured")

// Analysis is everything one scan produced. Fields after Status are filled in
// as far as the pipeline got.
type Analysis struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	RawText     string           `json:"raw_text,omitempty"`
	CleanedText string           `json:"cleaned_text,omitempty"`
	Record      nutrition.Record `json:"record"`
	Flags       []health.Flag    `json:"flags"`

	Payload        string         `json:"payload,omitempty"`
	Narrative      string         `json:"narrative,omitempty"`
	NarrativeError narrative.Kind `json:"narrative_error,omitempty"`

	Exposure *imaging.Exposure `json:"exposure,omitempty"`

	// OCRConfidence and Words are set for photo scans whose extractor is a
	// WordRecognizer that found at least one word.
	OCRConfidence *float64   `json:"ocr_confidence,omitempty"`
	Words         []ocr.Word `json:"words,omitempty"`
}

// Analyzer runs the scan pipeline. All collaborators are fixed at
// construction, so an Analyzer is safe for concurrent use as long as its
// extractor and generator are.
type Analyzer struct {
	normalizer *imaging.Normalizer
	extractor  TextExtractor
	parser     *nutrition.Parser
	engine     health.Engine
	generator  narrative.Generator
	timeout    time.Duration
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

func WithNormalizer(n *imaging.Normalizer) Option {
	return func(a *Analyzer) { a.normalizer = n }
}

func WithParser(p *nutrition.Parser) Option {
	return func(a *Analyzer) { a.parser = p }
}

func WithEngine(e health.Engine) Option {
	return func(a *Analyzer) { a.engine = e }
}

// WithGenerator enables narrative generation. A nil generator disables it.
func WithGenerator(g narrative.Generator) Option {
	return func(a *Analyzer) { a.generator = g }
}

// WithNarrativeTimeout bounds each narrative request. Non-positive values
// keep the default.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New builds an Analyzer with default normalizer, patterns and thresholds.
// extractor may be nil for text-only use through AnalyzeText.
func New(extractor TextExtractor, opts ...Option) *Analyzer {
	a := &Analyzer{
		normalizer: imaging.NewNormalizer(imaging.DefaultNormalizeOptions()),
		extractor:  extractor,
		parser:     nutrition.NewParser(nutrition.DefaultPatterns()),
		engine:     health.NewEngine(health.DefaultThresholds()),
		timeout:    DefaultNarrativeTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NarrativeEnabled reports whether a generator is configured.
func (a *Analyzer) NarrativeEnabled() bool {
	return a.generator != nil
}

// Normalize exposes the configured normalizer.
func (a *Analyzer) Normalize(img image.Image) *image.Gray {
	return a.normalizer.Normalize(img)
}

// Analyze runs the full pipeline on a photo. An OCR failure is reported as
// StatusNoText rather than as an error; the returned error is non-nil only
// when ctx ends or no extractor is configured.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Analysis, error) {
	if a.extractor == nil {
		return nil, ErrNoExtractor
	}
	log := logger.FromContext(ctx)

	norm := a.normalizer.Normalize(img)
	log.Debug("Normalized image", "width", norm.Rect.Dx(), "height", norm.Rect.Dy())

	read, err := a.extract(ctx, norm)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var raw string
	if err != nil {
		log.Warn("Text extraction failed", "error", err)
	} else {
		raw = read.Text
	}
	if err != nil || strings.TrimSpace(raw) == "" {
		exp := imaging.AssessExposure(norm)
		msg := NoTextMessage
		if exp.Hint != "" {
			msg += " (" + exp.Hint + ")"
		}
		log.Debug("No readable text", "mean_lightness", exp.MeanLightness, "hint", exp.Hint)
		return &Analysis{
			Status:   StatusNoText,
			Message:  msg,
			Flags:    []health.Flag{},
			Exposure: &exp,
		}, nil
	}

	res, err := a.AnalyzeText(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(read.Words) > 0 {
		conf := read.MeanConfidence
		res.OCRConfidence = &conf
		res.Words = read.Words
		log.Debug("OCR confidence", "mean", conf, "words", len(read.Words))
		if res.Status == StatusNothingRecognized && conf < LowConfidence {
			res.Message += " (" + HintLowConfidence + ")"
		}
	}
	return res, nil
}

// extract prefers word-level recognition when the extractor offers it.
func (a *Analyzer) extract(ctx context.Context, img image.Image) (*ocr.Result, error) {
	if wr, ok := a.extractor.(WordRecognizer); ok {
		return wr.Recognize(ctx, img)
	}
	text, err := a.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	return &ocr.Result{Text: text}, nil
}

// AnalyzeText runs the pipeline from the cleaning stage on already
// extracted text. Blank text yields StatusNoText.
func (a *Analyzer) AnalyzeText(ctx context.Context, raw string) (*Analysis, error) {
	log := logger.FromContext(ctx)

	res := a.Evaluate(ctx, raw)
	if res.Status != StatusNarrativeSkipped {
		return res, nil
	}
	if a.generator == nil {
		return res, nil
	}
	req := narrative.NewRequest(res.Record, res.Flags)

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(genCtx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		kind := narrative.KindOf(err)
		log.Warn("Narrative generation failed", "kind", kind, "error", err)
		res.Status = StatusNarrativeFailed
		res.NarrativeError = kind
		res.Message = kind.UserMessage()
		return res, nil
	}

	res.Status = StatusComplete
	res.Narrative = text
	return res, nil
}

// Evaluate cleans and parses raw text, derives flags and builds the
// narrative payload without contacting a generator. The result has
// StatusNarrativeSkipped when a record was recognized.
func (a *Analyzer) Evaluate(ctx context.Context, raw string) *Analysis {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(raw) == "" {
		return &Analysis{Status: StatusNoText, Message: NoTextMessage, Flags: []health.Flag{}}
	}

	res := &Analysis{RawText: raw}
	res.CleanedText = nutrition.Clean(raw)
	res.Record = a.parser.Parse(res.CleanedText)
	log.Debug("Parsed nutrition record", "nutrients", res.Record.Len())

	if res.Record.IsEmpty() {
		res.Status = StatusNothingRecognized
		res.Message = NothingRecognizedMessage
		res.Flags = []health.Flag{}
		return res
	}

	res.Flags = a.Flags(res.Record)
	res.Payload = narrative.BuildPayload(res.Record, res.Flags)
	res.Status = StatusNarrativeSkipped
	log.Debug("Evaluated health rules", "flags", len(res.Flags))
	return res
}

// Flags applies the configured thresholds to rec.
func (a *Analyzer) Flags(rec nutrition.Record) []health.Flag {
	return a.engine.Evaluate(rec)
}
