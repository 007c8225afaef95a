package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	maxReplacementRunes = 8
	maxTemplateLength   = 256
	maxLimitValue       = 1 << 24
	validViewModes      = []string{"copy", "public_array", "skip"}
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
)

func ValidateReplacement(replacement string) error {
	if replacement == "" {
		return fmt.Errorf("replacement cannot be empty")
	}
	if !utf8.ValidString(replacement) {
		return fmt.Errorf("replacement must be valid UTF-8")
	}
	if utf8.RuneCountInString(replacement) > maxReplacementRunes {
		return fmt.Errorf("replacement exceeds maximum length of %d characters", maxReplacementRunes)
	}
	for _, r := range replacement {
		if unicode.IsControl(r) {
			return fmt.Errorf("replacement cannot contain control characters")
		}
	}
	return nil
}

func ValidateTemplate(template string) error {
	if len(template) > maxTemplateLength {
		return fmt.Errorf("template exceeds maximum length of %d characters", maxTemplateLength)
	}
	if n := strings.Count(template, "%s"); n != 1 {
		return fmt.Errorf("template must contain exactly one %%s placeholder, found %d", n)
	}
	return nil
}

func ValidateLimit(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("%s must be non-negative (0 disables the limit)", name)
	}
	if value > maxLimitValue {
		return fmt.Errorf("%s cannot exceed %d", name, maxLimitValue)
	}
	return nil
}

func ValidateObjectViewMode(mode string) error {
	if mode == "" {
		return nil
	}
	for _, m := range validViewModes {
		if mode == m {
			return nil
		}
	}
	return fmt.Errorf("invalid object view mode: %s (valid: %s)", mode, strings.Join(validViewModes, ", "))
}

func ValidateSampleRate(rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1")
	}
	return nil
}

func ValidateLogLevel(level string) error {
	for _, l := range validLogLevels {
		if level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (valid: %s)", level, strings.Join(validLogLevels, ", "))
}

func ValidateOTLPEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("OTLP endpoint must be host:port without a scheme")
	}
	if strings.ContainsAny(endpoint, " \t\r\n") {
		return fmt.Errorf("OTLP endpoint cannot contain whitespace")
	}
	return nil
}

// SanitizeSource strips non-printable characters from an input name before
// it is logged or attached to a span.
func SanitizeSource(name string) string {
	name = strings.TrimSpace(name)
	var result strings.Builder
	result.Grow(len(name))
	for _, r := range name {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
