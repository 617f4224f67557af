package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that everything the server cannot run without is
// present. Production additionally requires real database credentials.
func ValidateConfig(cfg *Config) error {
	var problems []string

	if cfg.JWTSecret == "" {
		problems = append(problems, ValidationError{Field: "JWT_SECRET", Message: "must be set"}.Error())
	}
	if cfg.ServerPort == "" {
		problems = append(problems, ValidationError{Field: "SERVER_PORT", Message: "must be set"}.Error())
	}
	if IsProduction() {
		if cfg.DBUser == "" {
			problems = append(problems, ValidationError{Field: "DB_USER", Message: "required in production"}.Error())
		}
		if cfg.DBPassword == "" {
			problems = append(problems, ValidationError{Field: "DB_PASSWORD", Message: "required in production"}.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
