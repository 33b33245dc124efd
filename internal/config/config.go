// Package config loads dronecheck settings from defaults, an optional YAML
// file, and DRONECHECK_* environment variables, in increasing precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DRONECHECK"

// Config is the resolved settings tree.
type Config struct {
	Model   string        `mapstructure:"model"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Geo     GeoConfig     `mapstructure:"geo"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
}

// LLMConfig tunes the model call.
type LLMConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"maxtokens"`
	// APIKey is opaque; when empty the provider's own variable is used.
	APIKey string `mapstructure:"apikey"`
}

// GeoConfig selects the geolocation source.
type GeoConfig struct {
	Source    string   `mapstructure:"source"`
	Latitude  *float64 `mapstructure:"latitude"`
	Longitude *float64 `mapstructure:"longitude"`
	LookupURL string   `mapstructure:"lookupurl"`
}

// inferSource picks fixed when coordinates are configured and no source was
// named, ip otherwise.
func (g *GeoConfig) inferSource() {
	if g.Source != "" {
		return
	}
	if g.Latitude != nil && g.Longitude != nil {
		g.Source = "fixed"
		return
	}
	g.Source = "ip"
}

// CatalogConfig points at an alternative regulation dataset.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"model", EnvPrefix + "_MODEL", validateModel},
		{"llm.timeout", EnvPrefix + "_LLM_TIMEOUT", validateDuration},
		{"llm.temperature", EnvPrefix + "_LLM_TEMPERATURE", validateTemperature},
		{"llm.maxtokens", EnvPrefix + "_LLM_MAXTOKENS", validatePositiveInt},
		{"llm.apikey", EnvPrefix + "_LLM_APIKEY", nil},
		{"geo.source", EnvPrefix + "_GEO_SOURCE", validateGeoSource},
		{"geo.latitude", EnvPrefix + "_LATITUDE", validateLatitude},
		{"geo.longitude", EnvPrefix + "_LONGITUDE", validateLongitude},
		{"geo.lookupurl", EnvPrefix + "_GEO_LOOKUPURL", nil},
		{"catalog.path", EnvPrefix + "_CATALOG", nil},
		{"log.level", EnvPrefix + "_LOG_LEVEL", validateLogLevel},
		{"log.format", EnvPrefix + "_LOG_FORMAT", validateLogFormat},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "gemini:gemini-2.5-flash")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.maxtokens", 1024)
	v.SetDefault("llm.apikey", "")
	v.SetDefault("geo.source", "")
	v.SetDefault("geo.lookupurl", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration. When file is empty the default search
// path ($HOME/.config/dronecheck, then the working directory) is used and a
// missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("dronecheck")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dronecheck"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Geo.inferSource()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper) error {
	var problems []string
	for _, b := range envBindings() {
		if err := v.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("binding %s: %v", b.EnvVar, err))
			continue
		}
		if b.Validate == nil {
			continue
		}
		if val := os.Getenv(b.EnvVar); val != "" {
			if err := b.Validate(val); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s value %q: %v", b.EnvVar, val, err))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Validate checks values that may have come from the config file.
func (c *Config) Validate() error {
	if err := validateModel(c.Model); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0, got %s", c.LLM.Timeout)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0.0 and 2.0, got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.maxtokens must be > 0, got %d", c.LLM.MaxTokens)
	}
	if err := validateGeoSource(c.Geo.Source); err != nil {
		return fmt.Errorf("geo.source: %w", err)
	}
	if (c.Geo.Latitude == nil) != (c.Geo.Longitude == nil) {
		return errors.New("geo.latitude and geo.longitude must be set together")
	}
	if c.Geo.Source == "fixed" && c.Geo.Latitude == nil {
		return errors.New("geo.source fixed requires geo.latitude and geo.longitude")
	}
	if c.Geo.Latitude != nil {
		if *c.Geo.Latitude < -90 || *c.Geo.Latitude > 90 {
			return fmt.Errorf("geo.latitude must be between -90 and 90, got %g", *c.Geo.Latitude)
		}
		if *c.Geo.Longitude < -180 || *c.Geo.Longitude > 180 {
			return fmt.Errorf("geo.longitude must be between -180 and 180, got %g", *c.Geo.Longitude)
		}
	}
	if err := validateLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := validateLogFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

func validateModel(value string) error {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("expected provider:model, got %q", value)
	}
	return nil
}

func validateDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateTemperature(value string) error {
	t, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid temperature: %w", err)
	}
	if t < 0 || t > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %g", t)
	}
	return nil
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("must be > 0, got %d", n)
	}
	return nil
}

func validateGeoSource(value string) error {
	switch value {
	case "fixed", "ip", "none":
		return nil
	}
	return fmt.Errorf("must be fixed, ip, or none, got %q", value)
}

func validateLatitude(value string) error {
	lat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", lat)
	}
	return nil
}

func validateLongitude(value string) error {
	lng, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", lng)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be debug, info, warn, or error, got %q", value)
}

func validateLogFormat(value string) error {
	switch value {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("must be text or json, got %q", value)
}
