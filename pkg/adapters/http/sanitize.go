package http

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxValueSize caps the length of a single webhook parameter.
const MaxValueSize = 4096

var (
	ErrValueTooLarge = errors.New("parameter exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("parameter contains invalid UTF-8 sequences")
)

// SanitizeValue enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func SanitizeValue(value string) (string, error) {
	// Reject rather than truncate; a truncated digit string would route differently
	if len(value) > MaxValueSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrValueTooLarge, len(value), MaxValueSize)
	}

	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range value {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// sanitizeValues cleans every string parameter in place. Nested JSON objects and arrays are walked.
func sanitizeValues(values map[string]any) error {
	for k, v := range values {
		clean, err := sanitizeAny(v)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", k, err)
		}
		values[k] = clean
	}
	return nil
}

func sanitizeAny(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return SanitizeValue(val)
	case []string:
		for i, s := range val {
			clean, err := SanitizeValue(s)
			if err != nil {
				return nil, err
			}
			val[i] = clean
		}
	case []any:
		for i, item := range val {
			clean, err := sanitizeAny(item)
			if err != nil {
				return nil, err
			}
			val[i] = clean
		}
	case map[string]any:
		if err := sanitizeValues(val); err != nil {
			return nil, err
		}
	}
	return v, nil
}
