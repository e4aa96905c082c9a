package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeStringMap trims keys and values, removing entries with empty keys.
// It returns nil when nothing remains.
func NormalizeStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]string, len(values))
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		result[k] = strings.TrimSpace(value)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// FirstNonEmpty returns the first value that is not blank after trimming, untrimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// TitleFromSlug turns "press-kit_2025" into "Press Kit 2025". Dashes, underscores
// and whitespace separate words. A cases.Caser is not safe for concurrent use,
// so one is built per call.
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
