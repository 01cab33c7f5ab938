package config

import "fmt"

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWT builds the token configuration. JWT_SECRET is required; expiration
// defaults to 24 hours.
func (c *Config) JWT() (*JWTConfig, error) {
	hours := c.JWTExpirationHours
	if hours == 0 {
		hours = Defaults().JWTExpirationHours
	}
	jc := &JWTConfig{
		Secret:          c.JWTSecret,
		ExpirationHours: hours,
	}
	if err := jc.normalize(); err != nil {
		return nil, err
	}
	return jc, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
