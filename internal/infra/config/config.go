package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Supported model variants.
const (
	VariantBART    = "bart"
	VariantMistral = "mistral"
)

// Supported inference backends.
const (
	BackendHF     = "hf"
	BackendOpenAI = "openai"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Model     ModelConfig     `yaml:"model" envPrefix:"MODEL_"`
	Summary   SummaryConfig   `yaml:"summary" envPrefix:"SUMMARY_"`
	Paper     PaperConfig     `yaml:"paper" envPrefix:"PAPER_"`
	Catalog   CatalogConfig   `yaml:"catalog" envPrefix:"CATALOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address" env:"ADDRESS"`
	ReadTimeout     time.Duration   `yaml:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string        `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`
	StaticDir       string          `yaml:"staticDir" env:"STATIC_DIR"`
	StaticPrefix    string          `yaml:"staticPrefix" env:"STATIC_PREFIX"`
	RateLimit       RateLimitConfig `yaml:"rateLimit" envPrefix:"RATE_LIMIT_"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"ENABLED"`
	RequestsPerMinute int  `yaml:"requestsPerMinute" env:"RPM"`
	Burst             int  `yaml:"burst" env:"BURST"`
}

// ModelConfig selects the generative model and the backend serving it.
type ModelConfig struct {
	Variant           string        `yaml:"variant" env:"VARIANT"`
	Backend           string        `yaml:"backend" env:"BACKEND"`
	Name              string        `yaml:"name" env:"NAME"`
	BaseURL           string        `yaml:"baseUrl" env:"BASE_URL"`
	APIKey            string        `yaml:"apiKey" env:"API_KEY"`
	Device            string        `yaml:"device" env:"DEVICE"`
	TokenizerEncoding string        `yaml:"tokenizerEncoding" env:"TOKENIZER_ENCODING"`
	MaxInputTokens    int           `yaml:"maxInputTokens" env:"MAX_INPUT_TOKENS"`
	MaxConcurrent     int64         `yaml:"maxConcurrent" env:"MAX_CONCURRENT"`
	QueueTimeout      time.Duration `yaml:"queueTimeout" env:"QUEUE_TIMEOUT"`
	RequestTimeout    time.Duration `yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`
}

// SummaryConfig holds the text endpoint limits.
type SummaryConfig struct {
	MaxLength       int `yaml:"maxLength" env:"MAX_LENGTH"`
	MinLength       int `yaml:"minLength" env:"MIN_LENGTH"`
	MinInputChars   int `yaml:"minInputChars" env:"MIN_INPUT_CHARS"`
	MinSummaryChars int `yaml:"minSummaryChars" env:"MIN_SUMMARY_CHARS"`
}

// PaperConfig controls PDF retrieval and extraction.
type PaperConfig struct {
	PDFURLTemplate string        `yaml:"pdfUrlTemplate" env:"PDF_URL_TEMPLATE"`
	UserAgent      string        `yaml:"userAgent" env:"USER_AGENT"`
	FetchTimeout   time.Duration `yaml:"fetchTimeout" env:"FETCH_TIMEOUT"`
	MaxPDFBytes    int64         `yaml:"maxPdfBytes" env:"MAX_PDF_BYTES"`
	MaxPages       int           `yaml:"maxPages" env:"MAX_PAGES"`
	MinTextChars   int           `yaml:"minTextChars" env:"MIN_TEXT_CHARS"`
	MaxInputChars  int           `yaml:"maxInputChars" env:"MAX_INPUT_CHARS"`
	TempDir        string        `yaml:"tempDir" env:"TEMP_DIR"`
}

// CatalogConfig controls paper search and metadata lookups.
type CatalogConfig struct {
	SearchURL      string        `yaml:"searchUrl" env:"SEARCH_URL"`
	AbsURLTemplate string        `yaml:"absUrlTemplate" env:"ABS_URL_TEMPLATE"`
	MaxResults     int           `yaml:"maxResults" env:"MAX_RESULTS"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// TelemetryConfig controls trace export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" env:"ENABLED"`
	ServiceName  string `yaml:"serviceName" env:"SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlpEndpoint" env:"OTLP_ENDPOINT"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	applyVariantDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyVariantDefaults fills settings left empty by file and env with the
// values of the selected model variant.
func applyVariantDefaults(cfg *Config) {
	cfg.Model.Variant = strings.ToLower(strings.TrimSpace(cfg.Model.Variant))
	if cfg.Model.Variant == "" {
		cfg.Model.Variant = VariantBART
	}

	var (
		name, backend, address, baseURL string
		maxLen, minLen                  int
	)
	switch cfg.Model.Variant {
	case VariantMistral:
		name, backend, address = "TheBloke/Mistral-7B-Instruct-v0.2-GPTQ", BackendOpenAI, ":8001"
		baseURL = "http://localhost:8081/v1"
		maxLen, minLen = 350, 64
	default:
		name, backend, address = "facebook/bart-large-cnn", BackendHF, ":8000"
		baseURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"
		maxLen, minLen = 150, 60
	}

	if cfg.Model.Name == "" {
		cfg.Model.Name = name
	}
	if cfg.Model.Backend == "" {
		cfg.Model.Backend = backend
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = baseURL
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = address
	}
	if cfg.Summary.MaxLength == 0 {
		cfg.Summary.MaxLength = maxLen
	}
	if cfg.Summary.MinLength == 0 {
		cfg.Summary.MinLength = minLen
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			StaticDir:       "public/pdfjs",
			StaticPrefix:    "/pdfjs",
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		Model: ModelConfig{
			Device:            "auto",
			TokenizerEncoding: "cl100k_base",
			MaxInputTokens:    4096,
			MaxConcurrent:     1,
			QueueTimeout:      2 * time.Minute,
			RequestTimeout:    5 * time.Minute,
		},
		Summary: SummaryConfig{
			MinInputChars:   10,
			MinSummaryChars: 10,
		},
		Paper: PaperConfig{
			PDFURLTemplate: "https://arxiv.org/pdf/{id}.pdf",
			UserAgent:      "Mozilla/5.0",
			FetchTimeout:   60 * time.Second,
			MaxPDFBytes:    50 << 20,
			MaxPages:       20,
			MinTextChars:   100,
			MaxInputChars:  4096,
		},
		Catalog: CatalogConfig{
			SearchURL:      "https://export.arxiv.org/api/query",
			AbsURLTemplate: "https://arxiv.org/abs/{id}",
			MaxResults:     50,
			Timeout:        20 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "paper-summarizer",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	switch c.Model.Variant {
	case VariantBART, VariantMistral:
	default:
		return fmt.Errorf("model.variant %q is not supported", c.Model.Variant)
	}
	switch c.Model.Backend {
	case BackendHF, BackendOpenAI:
	default:
		return fmt.Errorf("model.backend %q is not supported", c.Model.Backend)
	}
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		return errors.New("model.baseUrl cannot be empty")
	}
	switch strings.ToLower(c.Model.Device) {
	case "auto", "cuda", "cpu":
	default:
		return fmt.Errorf("model.device %q must be auto, cuda or cpu", c.Model.Device)
	}
	if c.Model.MaxInputTokens <= 0 {
		return errors.New("model.maxInputTokens must be positive")
	}
	if c.Model.MaxConcurrent <= 0 {
		return errors.New("model.maxConcurrent must be positive")
	}
	if c.Model.QueueTimeout <= 0 {
		return errors.New("model.queueTimeout must be positive")
	}
	if c.Summary.MaxLength <= 0 || c.Summary.MinLength < 0 {
		return errors.New("summary.maxLength must be positive and summary.minLength non-negative")
	}
	if c.Summary.MinInputChars <= 0 || c.Summary.MinSummaryChars <= 0 {
		return errors.New("summary.minInputChars and summary.minSummaryChars must be positive")
	}
	if !strings.Contains(c.Paper.PDFURLTemplate, "{id}") {
		return errors.New("paper.pdfUrlTemplate must contain {id}")
	}
	if c.Paper.MaxPages <= 0 {
		return errors.New("paper.maxPages must be positive")
	}
	if c.Paper.MaxPDFBytes <= 0 {
		return errors.New("paper.maxPdfBytes must be positive")
	}
	if c.Paper.MaxInputChars <= 0 || c.Paper.MinTextChars < 0 {
		return errors.New("paper.maxInputChars must be positive and paper.minTextChars non-negative")
	}
	if !strings.Contains(c.Catalog.AbsURLTemplate, "{id}") {
		return errors.New("catalog.absUrlTemplate must contain {id}")
	}
	if c.Catalog.MaxResults <= 0 {
		return errors.New("catalog.maxResults must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
