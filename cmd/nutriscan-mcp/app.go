package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ironsheep/nutriscan-mcp/internal/config"
	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/imaging"
	"github.com/ironsheep/nutriscan-mcp/internal/logger"
	"github.com/ironsheep/nutriscan-mcp/internal/narrative"
	"github.com/ironsheep/nutriscan-mcp/internal/ocr"
	"github.com/ironsheep/nutriscan-mcp/internal/pipeline"
	"github.com/ironsheep/nutriscan-mcp/internal/server"
)

// app holds the wired collaborators for one process.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	ocr      *ocr.Tesseract
	cache    *imaging.ImageCache
	analyzer *pipeline.Analyzer
}

func newApp(opts globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger.Setup(cfg.Log.Level, cfg.Log.JSON, cfg.Log.AddSource)
	log := logger.GetDefault()

	gen, err := narrative.NewGenerator(cfg.Narrative)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrative generator: %w", err)
	}
	if gen == nil {
		log.Debug("Narrative summaries disabled")
	} else {
		log.Debug("Narrative summaries enabled", "provider", cfg.Narrative.Provider)
	}

	cache, err := imaging.NewImageCacheSize(cfg.Image.CacheSize)
	if err != nil {
		return nil, err
	}

	tess := ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.TessdataPrefix, cfg.OCR.PageSegMode)
	analyzer := pipeline.New(tess,
		pipeline.WithNormalizer(imaging.NewNormalizer(cfg.Image.NormalizeOptions())),
		pipeline.WithEngine(health.NewEngine(cfg.Health.Thresholds())),
		pipeline.WithGenerator(gen),
		pipeline.WithNarrativeTimeout(cfg.Narrative.Timeout),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		ocr:      tess,
		cache:    cache,
		analyzer: analyzer,
	}, nil
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts globalOptions) (*config.Config, error) {
	cfg, err := config.Load(config.Options{EnvFile: opts.envFile})
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = strings.ToLower(opts.logLevel)
	}
	if opts.logJSON {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, opts globalOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}

	if info := a.ocr.Info(); !info.Available {
		// tools that do not need OCR keep working
		a.log.Warn("Tesseract is not available", "language", info.Language, "error", info.Error)
	}

	srv := server.New(
		server.WithCache(a.cache),
		server.WithAnalyzer(a.analyzer),
		server.WithOCR(a.ocr),
		server.WithLogger(a.log),
		server.WithVersion(Version),
	)
	a.log.Debug("Starting server", "version", Version, "build_time", BuildTime, "commit", GitCommit)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// scanFile runs the full pipeline on an image file, optionally cropped to a
// named region.
func (a *app) scanFile(ctx context.Context, path, region string) (*pipeline.Analysis, error) {
	img, err := a.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if region != "" {
		r, err := imaging.NamedRegion(img.Bounds(), region)
		if err != nil {
			return nil, err
		}
		if img, err = imaging.Crop(img, r); err != nil {
			return nil, err
		}
	}
	ctx = logger.ContextWithLogger(ctx, a.log)
	return a.analyzer.Analyze(ctx, img)
}

func (a *app) parseText(ctx context.Context, text string, withNarrative bool) (*pipeline.Analysis, error) {
	ctx = logger.ContextWithLogger(ctx, a.log)
	if withNarrative {
		return a.analyzer.AnalyzeText(ctx, text)
	}
	return a.analyzer.Evaluate(ctx, text), nil
}

// readInput reads src, or stdin when src is "-".
func readInput(src string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
