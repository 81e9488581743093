package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxTemplateSize is the maximum allowed size for the prompt template
	MaxTemplateSize = 16 * 1024

	// MaxFilterValueLength is the maximum allowed length for a filter value
	MaxFilterValueLength = 200
)

var validate = validator.New()

// ValidateInputs performs struct-tag validation plus checks on
// user-controllable fields that end up in request URLs.
func (c *Config) ValidateInputs() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf(
					"Field: %s, Tag: %s, Param: %s", fe.Namespace(), fe.Tag(), fe.Param(),
				))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateBaseURL(c.Server.BaseURL); err != nil {
		return err
	}

	for key, value := range c.Practice.Extra {
		if err := validateFilterValue("practice.extra."+key, value); err != nil {
			return err
		}
	}
	for key, value := range c.Practice.Overrides {
		if err := validateFilterValue("practice.overrides."+key, value); err != nil {
			return err
		}
	}
	for _, typ := range c.Practice.Types {
		if err := validateFilterValue("practice.types", typ); err != nil {
			return err
		}
	}

	if len(c.Drill.PromptTemplate) > MaxTemplateSize {
		return fmt.Errorf("drill.prompt_template exceeds maximum size of %d bytes (got %d)",
			MaxTemplateSize, len(c.Drill.PromptTemplate))
	}

	return nil
}

// validateBaseURL checks that the base URL is properly formatted and safe
func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("server.base_url is invalid: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https scheme (got %s)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("server.base_url must have a host")
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("server.base_url must not carry a query or fragment")
	}

	return nil
}

func validateFilterValue(name, value string) error {
	if len(value) > MaxFilterValueLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters (got %d)",
			name, MaxFilterValueLength, len(value))
	}
	if containsControlChars(value) {
		return fmt.Errorf("%s contains invalid control characters", name)
	}
	return nil
}

// containsControlChars checks if a string contains control characters
// (excluding newlines, tabs, and carriage returns which are acceptable)
func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
