// Package config loads settings for the CLI and API server from an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the config reads, e.g.
// RESUME_TEMPLATE_PORT. A few well-known variables are also read unprefixed.
const EnvPrefix = "RESUME_TEMPLATE"

// Config holds every setting. All fields are optional; missing values use
// defaults or must be provided via CLI flags.
type Config struct {
	// Templates and documents
	Template         string `mapstructure:"template"`           // default template path
	AllowUnknownKeys bool   `mapstructure:"allow_unknown_keys"` // accept keys the template does not declare
	RenderFormat     string `mapstructure:"render_format" validate:"omitempty,oneof=latex html pdf"`
	LatexTemplate    string `mapstructure:"latex_template"` // optional text/template for LaTeX output

	// LLM filling
	APIKey      string `mapstructure:"api_key"`                            // Gemini API key
	ModelTier   string `mapstructure:"model_tier" validate:"omitempty,oneof=lite standard advanced"`
	Concurrency int    `mapstructure:"concurrency" validate:"gte=0,lte=16"` // parallel section generations
	UseBrowser  bool   `mapstructure:"use_browser"`                         // render SPA source pages in a headless browser

	// Server
	Port        int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	DatabaseURL string `mapstructure:"database_url"`

	// Auth
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours" validate:"gte=0"`
	BcryptCost         int    `mapstructure:"bcrypt_cost" validate:"gte=0"`
	PasswordPepper     string `mapstructure:"password_pepper"`

	// Behavior
	Verbose bool `mapstructure:"verbose"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		RenderFormat:       "latex",
		ModelTier:          "standard",
		Concurrency:        4,
		Port:               8080,
		JWTExpirationHours: 24,
		BcryptCost:         12,
	}
}

// unprefixed lists keys that also honour a conventional variable name.
var unprefixed = map[string]string{
	"api_key":              "GEMINI_API_KEY",
	"database_url":         "DATABASE_URL",
	"jwt_secret":           "JWT_SECRET",
	"jwt_expiration_hours": "JWT_EXPIRATION_HOURS",
	"bcrypt_cost":          "BCRYPT_COST",
	"password_pepper":      "PASSWORD_PEPPER",
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("template", d.Template)
	v.SetDefault("allow_unknown_keys", d.AllowUnknownKeys)
	v.SetDefault("render_format", d.RenderFormat)
	v.SetDefault("latex_template", d.LatexTemplate)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("model_tier", d.ModelTier)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("use_browser", d.UseBrowser)
	v.SetDefault("port", d.Port)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("jwt_expiration_hours", d.JWTExpirationHours)
	v.SetDefault("bcrypt_cost", d.BcryptCost)
	v.SetDefault("password_pepper", d.PasswordPepper)
	v.SetDefault("verbose", d.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, env := range unprefixed {
		// Explicit names disable the prefix, so list the prefixed one first.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env)
	}
	return v
}

// Load reads settings from the environment and, when path is not empty, from
// a JSON or YAML config file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed the %q check (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}
	if c.LatexTemplate != "" {
		if _, err := os.Stat(c.LatexTemplate); os.IsNotExist(err) {
			return fmt.Errorf("config error: latex template file not found: %s", c.LatexTemplate)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.RenderFormat == "" {
		result.RenderFormat = defaults.RenderFormat
	}
	if result.LatexTemplate == "" {
		result.LatexTemplate = defaults.LatexTemplate
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.PasswordPepper == "" {
		result.PasswordPepper = defaults.PasswordPepper
	}

	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.JWTExpirationHours == 0 {
		result.JWTExpirationHours = defaults.JWTExpirationHours
	}
	if result.BcryptCost == 0 {
		result.BcryptCost = defaults.BcryptCost
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
