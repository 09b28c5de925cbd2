package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Vision providers.
const (
	ProviderCloudVision = "cloudvision"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderTesseract   = "tesseract"
)

// Catalog backends.
const (
	BackendGoogleBooks = "googlebooks"
	BackendOpenLibrary = "openlibrary"
)

// Config is the resolved bookscan configuration.
type Config struct {
	LogLevel    string        `mapstructure:"log_level"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Server      ServerConfig  `mapstructure:"server"`
	Vision      VisionConfig  `mapstructure:"vision"`
	Catalog     CatalogConfig `mapstructure:"catalog"`
	Ollama      OllamaConfig  `mapstructure:"ollama"`
	OpenAI      OpenAIConfig  `mapstructure:"openai"`
	Gemini      GeminiConfig  `mapstructure:"gemini"`
}

type ServerConfig struct {
	Port           int   `mapstructure:"port"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type VisionConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

type CatalogConfig struct {
	Backend    string `mapstructure:"backend"`
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	MaxResults int    `mapstructure:"max_results"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:    "info",
		HTTPTimeout: 30 * time.Second,
		Server: ServerConfig{
			Port:           8888,
			MaxUploadBytes: 10 << 20,
		},
		Vision: VisionConfig{
			Provider: ProviderCloudVision,
		},
		Catalog: CatalogConfig{
			Backend:    BackendGoogleBooks,
			MaxResults: 20,
		},
		Ollama: OllamaConfig{
			URL: "http://localhost:11434",
		},
	}
}

// Environment variables honoured alongside the BOOKSCAN_ prefixed ones.
var legacyEnv = map[string][]string{
	"vision.api_key":  {"GOOGLE_API_KEY"},
	"catalog.api_key": {"GOOGLE_API_KEY"},
	"ollama.url":      {"OLLAMA_URL", "OLLAMA_HOST"},
	"ollama.model":    {"OLLAMA_MODEL"},
	"openai.api_key":  {"OPENAI_API_KEY"},
	"openai.model":    {"OPENAI_MODEL"},
	"gemini.api_key":  {"GEMINI_API_KEY"},
}

// Load reads configuration from defaults, an optional YAML file and the environment.
// When cfgFile is empty, bookscan.yaml is looked up in the working directory and in
// $HOME/.bookscan; a missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("http_timeout", defaults.HTTPTimeout)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.max_upload_bytes", defaults.Server.MaxUploadBytes)
	v.SetDefault("vision.provider", defaults.Vision.Provider)
	v.SetDefault("vision.model", "")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("catalog.backend", defaults.Catalog.Backend)
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.endpoint", "")
	v.SetDefault("catalog.max_results", defaults.Catalog.MaxResults)
	v.SetDefault("ollama.url", defaults.Ollama.URL)
	v.SetDefault("ollama.model", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "")
	v.SetDefault("gemini.api_key", "")

	// Environment variables with BOOKSCAN_ prefix
	v.SetEnvPrefix("BOOKSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := "BOOKSCAN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bookscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bookscan")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Vision.APIKey = ResolveEnvVars(cfg.Vision.APIKey)
	cfg.Catalog.APIKey = ResolveEnvVars(cfg.Catalog.APIKey)
	cfg.OpenAI.APIKey = ResolveEnvVars(cfg.OpenAI.APIKey)
	cfg.Gemini.APIKey = ResolveEnvVars(cfg.Gemini.APIKey)

	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Vision.Provider {
	case ProviderCloudVision, ProviderOllama, ProviderOpenAI, ProviderGemini, ProviderTesseract:
	default:
		return fmt.Errorf("unsupported vision provider: %q", c.Vision.Provider)
	}

	switch c.Catalog.Backend {
	case BackendGoogleBooks, BackendOpenLibrary:
	default:
		return fmt.Errorf("unsupported catalog backend: %q", c.Catalog.Backend)
	}

	if c.Catalog.MaxResults <= 0 {
		return fmt.Errorf("catalog.max_results must be positive, got %d", c.Catalog.MaxResults)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// VisionModel returns the model for the configured vision provider, falling back to
// the provider specific setting.
func (c *Config) VisionModel() string {
	if c.Vision.Model != "" {
		return c.Vision.Model
	}
	switch c.Vision.Provider {
	case ProviderOllama:
		return c.Ollama.Model
	case ProviderOpenAI:
		return c.OpenAI.Model
	}
	return ""
}

// ParseLevel converts a log level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}
