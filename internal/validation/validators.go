package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailPattern accepts local@domain.tld shapes. RE2 \s is ASCII only, so Unicode
// separators, vertical tab and the BOM are excluded explicitly.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Required fails when value is empty after trimming whitespace.
func Required(value, fieldName string) Result {
	return Field(value, fieldName, func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, fieldName+" is required")
}

// Email fails when value is not shaped like an email address. Empty values fail
// too; callers check Required first to get the friendlier message.
func Email(value, fieldName string) Result {
	return Field(value, fieldName, emailPattern.MatchString, fieldName+" must be a valid email address")
}

// MinLength fails when value holds fewer than minLength characters. The value is not trimmed.
func MinLength(value, fieldName string, minLength int) Result {
	return Field(value, fieldName, func(v string) bool {
		return utf8.RuneCountInString(v) >= minLength
	}, fmt.Sprintf("%s must be at least %d characters long", fieldName, minLength))
}
