package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/motointel/backend/internal/domain"
)

// Config holds all configuration for the application. It is built once at
// startup and passed into each component; nothing reads ambient process
// state after Load returns, so concurrent runs with different settings
// cannot interfere.
type Config struct {
	Run       RunConfig       `mapstructure:"run"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Sites     []domain.Site   `mapstructure:"sites"`
}

// RunConfig holds per-run execution settings
type RunConfig struct {
	SourceSite         string        `mapstructure:"source_site"`
	TargetSite         string        `mapstructure:"target_site"`
	ReferenceCurrency  string        `mapstructure:"reference_currency"`
	Workers            int           `mapstructure:"workers"`
	BatchSize          int           `mapstructure:"batch_size"`
	Deadline           time.Duration `mapstructure:"deadline"` // 0 means none
	ProductDir         string        `mapstructure:"product_dir"`
	OutputDir          string        `mapstructure:"output_dir"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// MatchingConfig holds scoring weights and classification thresholds.
// Weights must sum to 1.0.
type MatchingConfig struct {
	TokenWeight     float64 `mapstructure:"token_weight"`
	AgreementWeight float64 `mapstructure:"agreement_weight"`
	EditWeight      float64 `mapstructure:"edit_weight"`

	MatchThreshold     float64 `mapstructure:"match_threshold"`
	AmbiguousThreshold float64 `mapstructure:"ambiguous_threshold"`

	// BrandModelOverride upgrades AMBIGUOUS to MATCH when both brand and
	// model explicitly agree (cross-language names diverge in free text,
	// so an identical brand+model pair is treated as product identity)
	BrandModelOverride bool `mapstructure:"brand_model_override"`
}

// RatesConfig holds exchange-rate handling configuration
type RatesConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	StalenessWindow time.Duration `mapstructure:"staleness_window"`
	AllowStaleRates bool          `mapstructure:"allow_stale_rates"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

// NormalizeConfig holds normalization settings
type NormalizeConfig struct {
	KnownBrands []string `mapstructure:"known_brands"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/motointel/")

	v.SetEnvPrefix("MOTOINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Run defaults
	v.SetDefault("run.source_site", "eu_site")
	v.SetDefault("run.target_site", "tr_site")
	v.SetDefault("run.reference_currency", "EUR")
	v.SetDefault("run.workers", 4)
	v.SetDefault("run.batch_size", 64)
	v.SetDefault("run.deadline", "0s")
	v.SetDefault("run.product_dir", "data/products")
	v.SetDefault("run.output_dir", "data/output")
	v.SetDefault("run.enable_debug_logging", false)

	// Matching defaults: brand/model agreement carries the highest weight
	// because free-text tokens diverge across EN/TR listings
	v.SetDefault("matching.token_weight", 0.25)
	v.SetDefault("matching.agreement_weight", 0.50)
	v.SetDefault("matching.edit_weight", 0.25)
	v.SetDefault("matching.match_threshold", 0.85)
	v.SetDefault("matching.ambiguous_threshold", 0.60)
	v.SetDefault("matching.brand_model_override", true)

	// Rates defaults
	v.SetDefault("rates.base_url", "https://api.frankfurter.app")
	v.SetDefault("rates.staleness_window", "24h")
	v.SetDefault("rates.allow_stale_rates", false)
	v.SetDefault("rates.requests_per_hour", 600)
	v.SetDefault("rates.cache_ttl", "1h")

	// Normalizer defaults: motorcycle-gear brands seen across EU/TR sites
	v.SetDefault("normalize.known_brands", []string{
		"AGV", "Shoei", "Arai", "HJC", "Nolan", "Shark", "Schuberth",
		"Alpinestars", "Dainese", "Rev'it", "Givi", "SW-Motech",
		"Akrapovic", "Yoshimura", "Brembo", "Michelin", "Pirelli",
		"Metzeler", "Continental", "Bridgestone",
	})
}

const weightSumTolerance = 1e-9

// Validate checks the configuration; any violation is fatal at startup
func Validate(config *Config) error {
	m := config.Matching

	sum := m.TokenWeight + m.AgreementWeight + m.EditWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: matching weights must sum to 1.0, got %v", domain.ErrInvalidConfig, sum)
	}
	if m.TokenWeight < 0 || m.AgreementWeight < 0 || m.EditWeight < 0 {
		return fmt.Errorf("%w: matching weights must be non-negative", domain.ErrInvalidConfig)
	}

	if m.MatchThreshold <= 0 || m.MatchThreshold > 1 {
		return fmt.Errorf("%w: match_threshold must be in (0,1], got %v", domain.ErrInvalidConfig, m.MatchThreshold)
	}
	if m.AmbiguousThreshold < 0 || m.AmbiguousThreshold >= m.MatchThreshold {
		return fmt.Errorf("%w: ambiguous_threshold must be in [0, match_threshold), got %v",
			domain.ErrInvalidConfig, m.AmbiguousThreshold)
	}

	if len(config.Run.ReferenceCurrency) != 3 {
		return fmt.Errorf("%w: reference_currency must be a 3-letter ISO code, got %q",
			domain.ErrInvalidConfig, config.Run.ReferenceCurrency)
	}
	if config.Run.Workers < 1 {
		return fmt.Errorf("%w: run.workers must be >= 1, got %d", domain.ErrInvalidConfig, config.Run.Workers)
	}
	if config.Run.BatchSize < 1 {
		return fmt.Errorf("%w: run.batch_size must be >= 1, got %d", domain.ErrInvalidConfig, config.Run.BatchSize)
	}
	if config.Run.Deadline < 0 {
		return fmt.Errorf("%w: run.deadline must not be negative", domain.ErrInvalidConfig)
	}

	if config.Rates.StalenessWindow <= 0 {
		return fmt.Errorf("%w: rates.staleness_window must be positive, got %v",
			domain.ErrInvalidConfig, config.Rates.StalenessWindow)
	}

	for _, site := range config.Sites {
		if site.Locale != "uk" && site.Locale != "tr" {
			return fmt.Errorf("%w: site %q locale must be 'uk' or 'tr', got %q",
				domain.ErrInvalidConfig, site.Name, site.Locale)
		}
		if site.Language != "en" && site.Language != "tr" {
			return fmt.Errorf("%w: site %q language must be 'en' or 'tr', got %q",
				domain.ErrInvalidConfig, site.Name, site.Language)
		}
	}

	return nil
}

// SiteByName returns the configured site with the given name, or a default
// UK/English site when the name is unknown
func (c *Config) SiteByName(name string) domain.Site {
	for _, s := range c.Sites {
		if s.Name == name {
			return s
		}
	}
	return domain.Site{Name: name, Locale: "uk", Language: "en"}
}
