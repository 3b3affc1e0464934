package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
)

type Config struct {
	LLMProvider    llm.ProviderType
	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	PlannerTimeout time.Duration

	MaxUploadSizeMB     int
	MaxTableRowsPerPage int

	Port string
	Env  string

	ReportConfigPath string
	Report           ReportFile
}

// ReportFile is the optional TOML file named by REPORT_CONFIG
type ReportFile struct {
	Style   export.ExportStyle `toml:"style"`
	Planner PlannerFile        `toml:"planner"`
}

type PlannerFile struct {
	Temperature float32 `toml:"temperature"`
	Seed        *int    `toml:"seed"`
	MaxTokens   int     `toml:"max_tokens"`
}

const (
	defaultPort            = "8080"
	defaultMaxUploadSizeMB = 20
	defaultTemperature     = 0.2
	defaultSeed            = 42
)

// LoadConfig reads .env (if present), the environment and the optional
// report file
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a config from a variable lookup
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		LLMProvider:      llm.ProviderType(strings.ToLower(strings.TrimSpace(getenv("LLM_PROVIDER")))),
		LLMAPIKey:        getenv("LLM_API_KEY"),
		LLMModel:         getenv("LLM_MODEL"),
		LLMBaseURL:       getenv("LLM_BASE_URL"),
		Port:             getenv("PORT"),
		Env:              getenv("ENV"),
		ReportConfigPath: getenv("REPORT_CONFIG"),
		PlannerTimeout:   planner.DefaultTimeout,
		MaxUploadSizeMB:  defaultMaxUploadSizeMB,
	}

	// Default values
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = llm.ProviderOpenAI
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = getenv("OPENAI_API_KEY")
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	var errs []error
	if v := getenv("PLANNER_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PLANNER_TIMEOUT: %w", err))
		}
		cfg.PlannerTimeout = d
	}
	if v := getenv("MAX_UPLOAD_SIZE_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_UPLOAD_SIZE_MB: %w", err))
		}
		cfg.MaxUploadSizeMB = n
	}
	if v := getenv("MAX_TABLE_ROWS_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_TABLE_ROWS_PER_PAGE: %w", err))
		}
		cfg.MaxTableRowsPerPage = n
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.Report = ReportFile{
		Style:   export.DefaultStyle(),
		Planner: PlannerFile{Temperature: defaultTemperature, Seed: intPtr(defaultSeed)},
	}
	if cfg.ReportConfigPath != "" {
		data, err := os.ReadFile(cfg.ReportConfigPath)
		if err != nil {
			return nil, fmt.Errorf("REPORT_CONFIG: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg.Report); err != nil {
			return nil, fmt.Errorf("REPORT_CONFIG %s: %w", cfg.ReportConfigPath, err)
		}
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("15s") or whole seconds ("15")
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate checks the values the core relies on. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case llm.ProviderOpenAI, llm.ProviderDeepSeek, llm.ProviderGroq, llm.ProviderGemini, llm.ProviderClaude:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider))
	}
	if c.PlannerTimeout <= 0 {
		errs = append(errs, errors.New("PLANNER_TIMEOUT must be positive"))
	}
	if c.MaxUploadSizeMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE_MB must be positive"))
	}
	if c.MaxTableRowsPerPage < 0 {
		errs = append(errs, errors.New("MAX_TABLE_ROWS_PER_PAGE must not be negative"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", c.Port))
	}
	if c.Report.Style.BandEvery < 0 || c.Report.Style.RowsPerPage < 0 {
		errs = append(errs, errors.New("style: band_every and rows_per_page must not be negative"))
	}
	return errors.Join(errs...)
}

// AIEnabled reports whether a planning service is configured
func (c *Config) AIEnabled() bool {
	return c.LLMAPIKey != ""
}

// IsDevelopment is true unless ENV says otherwise
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// MaxUploadBytes is the upload limit in bytes
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadSizeMB * 1024 * 1024
}

// ProviderConfig is the planning service configuration
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Type:        c.LLMProvider,
		APIKey:      c.LLMAPIKey,
		BaseURL:     c.LLMBaseURL,
		Model:       c.LLMModel,
		Temperature: c.Report.Planner.Temperature,
		MaxTokens:   c.Report.Planner.MaxTokens,
		Seed:        c.Report.Planner.Seed,
	}
}

// ExportStyle is the report file's style with MAX_TABLE_ROWS_PER_PAGE
// applied on top
func (c *Config) ExportStyle() export.ExportStyle {
	style := c.Report.Style
	if c.MaxTableRowsPerPage > 0 {
		style.RowsPerPage = c.MaxTableRowsPerPage
	}
	return style
}

func intPtr(n int) *int { return &n }
