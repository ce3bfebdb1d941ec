package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Validate checks every entrypoint in c.
// Returns nil if valid, or joined errors for all validation failures.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}

	var errs []error
	seen := make(map[string]bool, len(c.order))

	for _, name := range c.order {
		if seen[name] {
			errs = append(errs, &ValidationError{
				Field:   name,
				Value:   name,
				Message: "duplicate entrypoint",
			})
			continue
		}
		seen[name] = true

		if strings.TrimSpace(name) == "" {
			errs = append(errs, &ValidationError{
				Field:   "entrypoint",
				Value:   name,
				Message: "name must not be empty",
			})
		}

		if strings.Contains(name, EntrypointDelim) {
			errs = append(errs, &ValidationError{
				Field:   name,
				Value:   name,
				Message: "name must not contain " + EntrypointDelim,
			})
		}

		e := c.entries[name]
		if len(e.Versions) == 0 {
			errs = append(errs, &ValidationError{
				Field:   name + ".versions",
				Value:   e.Versions,
				Message: "entrypoint has no images/versions assigned",
			})
		}

		for i, v := range e.Versions {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, &ValidationError{
					Field:   fmt.Sprintf("%s.versions[%d]", name, i),
					Value:   v,
					Message: "must not be empty",
				})
			}
		}
	}

	return errors.Join(errs...)
}
