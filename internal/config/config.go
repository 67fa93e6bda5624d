// Package config loads nutriscan settings from defaults, an optional .env file
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/imaging"
)

// Narrative providers.
const (
	ProviderAuto        = "auto"
	ProviderNone        = "none"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
)

// DefaultEnvFile is read when no env file is named explicitly.
const DefaultEnvFile = ".env"

// Config is the full application configuration.
type Config struct {
	Log       Log       `koanf:"log"`
	OCR       OCR       `koanf:"ocr"`
	Image     Image     `koanf:"image"`
	Narrative Narrative `koanf:"narrative"`
	Health    Health    `koanf:"health"`
}

type Log struct {
	Level     string `koanf:"level"      validate:"oneof=debug info warn error disabled"`
	JSON      bool   `koanf:"json"`
	AddSource bool   `koanf:"add_source"`
}

type OCR struct {
	Language       string `koanf:"language"        validate:"required"`
	TessdataPrefix string `koanf:"tessdata_prefix"`
	// PageSegMode follows tesseract's --psm numbering.
	PageSegMode int `koanf:"page_seg_mode" validate:"min=0,max=13"`
}

type Image struct {
	Contrast     float64 `koanf:"contrast"      validate:"gt=0"`
	Sharpness    float64 `koanf:"sharpness"     validate:"gte=0"`
	MaxDimension int     `koanf:"max_dimension" validate:"gt=0"`
	CacheSize    int     `koanf:"cache_size"    validate:"gt=0"`
}

// NormalizeOptions builds the immutable normalizer settings.
func (i Image) NormalizeOptions() imaging.NormalizeOptions {
	return imaging.NormalizeOptions{
		Contrast:     i.Contrast,
		Sharpness:    i.Sharpness,
		MaxDimension: i.MaxDimension,
	}
}

type Narrative struct {
	Provider    string        `koanf:"provider"    validate:"oneof=auto none huggingface openai ollama"`
	URL         string        `koanf:"url"         validate:"omitempty,url"`
	Model       string        `koanf:"model"`
	APIToken    string        `koanf:"api_token"`
	Timeout     time.Duration `koanf:"timeout"     validate:"gt=0"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `koanf:"max_tokens"  validate:"gte=0"`
}

// Enabled reports whether a narrative generator should be built.
func (n Narrative) Enabled() bool {
	return n.Provider != ProviderNone && n.Provider != ""
}

type Health struct {
	SugarHigh        float64 `koanf:"sugar_high"         validate:"gte=0,gtefield=SugarModerate"`
	SugarModerate    float64 `koanf:"sugar_moderate"     validate:"gte=0"`
	FatHigh          float64 `koanf:"fat_high"           validate:"gte=0,gtefield=FatModerate"`
	FatModerate      float64 `koanf:"fat_moderate"       validate:"gte=0"`
	SaturatedFatHigh float64 `koanf:"saturated_fat_high" validate:"gte=0"`
	SodiumHighGrams  float64 `koanf:"sodium_high_grams"  validate:"gte=0"`
	ProteinGood      float64 `koanf:"protein_good"       validate:"gte=0"`
	CalciumGoodPct   float64 `koanf:"calcium_good_pct"   validate:"gte=0"`
	IronGoodPct      float64 `koanf:"iron_good_pct"      validate:"gte=0"`
}

// Thresholds builds the immutable rule-engine cutoffs.
func (h Health) Thresholds() health.Thresholds {
	return health.Thresholds{
		SugarHigh:        h.SugarHigh,
		SugarModerate:    h.SugarModerate,
		FatHigh:          h.FatHigh,
		FatModerate:      h.FatModerate,
		SaturatedFatHigh: h.SaturatedFatHigh,
		SodiumHighGrams:  h.SodiumHighGrams,
		ProteinGood:      h.ProteinGood,
		CalciumGoodPct:   h.CalciumGoodPct,
		IronGoodPct:      h.IronGoodPct,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	th := health.DefaultThresholds()
	norm := imaging.DefaultNormalizeOptions()
	return &Config{
		Log: Log{
			Level: "info",
		},
		OCR: OCR{
			Language:    "eng",
			PageSegMode: 3,
		},
		Image: Image{
			Contrast:     norm.Contrast,
			Sharpness:    norm.Sharpness,
			MaxDimension: norm.MaxDimension,
			CacheSize:    32,
		},
		Narrative: Narrative{
			Provider:  ProviderAuto,
			Timeout:   30 * time.Second,
			MaxTokens: 300,
		},
		Health: Health{
			SugarHigh:        th.SugarHigh,
			SugarModerate:    th.SugarModerate,
			FatHigh:          th.FatHigh,
			FatModerate:      th.FatModerate,
			SaturatedFatHigh: th.SaturatedFatHigh,
			SodiumHighGrams:  th.SodiumHighGrams,
			ProteinGood:      th.ProteinGood,
			CalciumGoodPct:   th.CalciumGoodPct,
			IronGoodPct:      th.IronGoodPct,
		},
	}
}

// EnvMapping binds one environment variable to a config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

// hfTokenPath holds HUGGINGFACE_API_TOKEN until Load decides whether the
// prefixed token overrides it.
const hfTokenPath = "narrative.huggingface_api_token"

// EnvMappings lists every environment variable Load reads.
func EnvMappings() []EnvMapping {
	return []EnvMapping{
		{"NUTRISCAN_LOG_LEVEL", "log.level"},
		{"NUTRISCAN_LOG_JSON", "log.json"},
		{"NUTRISCAN_LOG_SOURCE", "log.add_source"},
		{"NUTRISCAN_OCR_LANGUAGE", "ocr.language"},
		{"NUTRISCAN_OCR_TESSDATA_PREFIX", "ocr.tessdata_prefix"},
		{"NUTRISCAN_OCR_PAGE_SEG_MODE", "ocr.page_seg_mode"},
		{"NUTRISCAN_IMAGE_CONTRAST", "image.contrast"},
		{"NUTRISCAN_IMAGE_SHARPNESS", "image.sharpness"},
		{"NUTRISCAN_IMAGE_MAX_DIMENSION", "image.max_dimension"},
		{"NUTRISCAN_IMAGE_CACHE_SIZE", "image.cache_size"},
		{"NUTRISCAN_NARRATIVE_PROVIDER", "narrative.provider"},
		{"NUTRISCAN_NARRATIVE_URL", "narrative.url"},
		{"NUTRISCAN_NARRATIVE_MODEL", "narrative.model"},
		{"NUTRISCAN_NARRATIVE_API_TOKEN", "narrative.api_token"},
		{"NUTRISCAN_NARRATIVE_TIMEOUT", "narrative.timeout"},
		{"NUTRISCAN_NARRATIVE_TEMPERATURE", "narrative.temperature"},
		{"NUTRISCAN_NARRATIVE_MAX_TOKENS", "narrative.max_tokens"},
		{"HUGGINGFACE_API_TOKEN", hfTokenPath},
		{"NUTRISCAN_HEALTH_SUGAR_HIGH", "health.sugar_high"},
		{"NUTRISCAN_HEALTH_SUGAR_MODERATE", "health.sugar_moderate"},
		{"NUTRISCAN_HEALTH_FAT_HIGH", "health.fat_high"},
		{"NUTRISCAN_HEALTH_FAT_MODERATE", "health.fat_moderate"},
		{"NUTRISCAN_HEALTH_SATURATED_FAT_HIGH", "health.saturated_fat_high"},
		{"NUTRISCAN_HEALTH_SODIUM_HIGH_GRAMS", "health.sodium_high_grams"},
		{"NUTRISCAN_HEALTH_PROTEIN_GOOD", "health.protein_good"},
		{"NUTRISCAN_HEALTH_CALCIUM_GOOD_PCT", "health.calcium_good_pct"},
		{"NUTRISCAN_HEALTH_IRON_GOOD_PCT", "health.iron_good_pct"},
	}
}

// Options controls where Load looks for settings.
type Options struct {
	// EnvFile is a dotenv file applied beneath the real environment. When
	// empty, DefaultEnvFile is tried and silently skipped if absent.
	EnvFile string
}

// Load builds the configuration from defaults, the env file and the
// environment, then validates it. The "auto" narrative provider resolves to
// huggingface when a token is present and to none otherwise.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envToPath := make(map[string]string)
	for _, m := range EnvMappings() {
		envToPath[m.EnvVar] = m.ConfigPath
	}
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envToPath[key]
			if !ok || value == "" {
				return "", nil
			}
			return path, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if k.String("narrative.api_token") == "" && k.String(hfTokenPath) != "" {
		if err := k.Set("narrative.api_token", k.String(hfTokenPath)); err != nil {
			return nil, fmt.Errorf("failed to apply huggingface token: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Narrative.Provider = strings.ToLower(strings.TrimSpace(cfg.Narrative.Provider))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolveProvider()
	return &cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolveProvider() {
	if c.Narrative.Provider != ProviderAuto {
		return
	}
	if c.Narrative.APIToken != "" {
		c.Narrative.Provider = ProviderHuggingFace
	} else {
		c.Narrative.Provider = ProviderNone
	}
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	switch c.Narrative.Provider {
	case ProviderHuggingFace, ProviderOpenAI:
		if c.Narrative.APIToken == "" {
			return fmt.Errorf("configuration validation failed: narrative provider %q requires an API token", c.Narrative.Provider)
		}
	case ProviderOllama:
		if c.Narrative.Model == "" {
			return fmt.Errorf("configuration validation failed: narrative provider %q requires a model", c.Narrative.Provider)
		}
	}
	if c.Narrative.Provider == ProviderOpenAI && c.Narrative.Model == "" {
		return fmt.Errorf("configuration validation failed: narrative provider %q requires a model", c.Narrative.Provider)
	}
	return nil
}
