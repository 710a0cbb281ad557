package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their koanf keys so messages match the YAML.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	v.RegisterStructValidation(databaseRules, DatabaseConfig{})
	v.RegisterStructValidation(rateLimitRules, RateLimitConfig{})

	return v
}

// databaseRules rejects a postgres driver still pointing at a SQLite file.
func databaseRules(sl validator.StructLevel) {
	db, ok := sl.Current().Interface().(DatabaseConfig)
	if !ok {
		return
	}

	if db.Driver == "postgres" && strings.HasPrefix(db.DSN, "file:") {
		sl.ReportError(db.DSN, "dsn", "DSN", "postgres_dsn", "")
	}
}

// rateLimitRules requires a Redis address when Redis backs an enabled limiter.
func rateLimitRules(sl validator.StructLevel) {
	rl, ok := sl.Current().Interface().(RateLimitConfig)
	if !ok {
		return
	}

	if rl.Enabled && rl.Backend == "redis" && rl.Redis.Addr == "" {
		sl.ReportError(rl.Redis.Addr, "redis.addr", "Addr", "redis_addr", "")
	}
}

// Validate validates the configuration and returns an error if invalid.
// Validation fails fast - the service should not start with invalid config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// formatValidationErrors converts validator errors to a readable format.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "startswith":
		return fmt.Sprintf("%s must be a bcrypt hash", field)
	case "postgres_dsn":
		return fmt.Sprintf("%s must be a PostgreSQL connection string", field)
	case "redis_addr":
		return fmt.Sprintf("%s is required for the redis backend", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath converts "Config.rate_limit.redis.addr" to
// "rate_limit.redis.addr".
func formatFieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return strings.ToLower(namespace)
	}

	return strings.ToLower(path)
}
