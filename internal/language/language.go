package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonical parses a BCP 47 tag (underscores are accepted as separators) and
// returns its canonical form, e.g. "en_us" -> "en-US". Empty input stays empty.
func Canonical(tag string) (string, error) {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return "", nil
	}
	parsed, err := xlanguage.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return parsed.String(), nil
}

// ToISO2 converts a language tag, ISO 639-2 code, or English language name to
// its ISO 639-1 code. Returns "" when the input is not recognized.
func ToISO2(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return ""
	}
	return base.String()
}

// ToISO3 converts a language tag or code to ISO 639-2/T. Returns "und" when
// the input is not recognized.
func ToISO3(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return "und"
	}
	return base.ISO3()
}

// Region returns the upper-case region subtag of tag ("pt-BR" -> "BR"), or
// "" when the tag carries none.
func Region(tag string) string {
	parsed, err := xlanguage.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return ""
	}
	region, confidence := parsed.Region()
	if confidence != xlanguage.Exact {
		return ""
	}
	return region.String()
}

// SameLanguage reports whether two tags share a primary language.
func SameLanguage(a, b string) bool {
	left, okA := parseBase(a)
	right, okB := parseBase(b)
	return okA && okB && left == right
}

// DisplayName returns the English name for a language tag. Returns "Unknown"
// for empty input and the upper-cased input when the tag is unrecognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	parsed, err := xlanguage.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		if base, ok := parseBase(trimmed); ok {
			parsed = xlanguage.Make(base.String())
		} else {
			return strings.ToUpper(trimmed)
		}
	}
	if name := display.English.Languages().Name(parsed); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

func parseBase(code string) (xlanguage.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return xlanguage.Base{}, false
	}
	if mapped, ok := byName[code]; ok {
		code = mapped
	}
	if tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-")); err == nil {
		if base, confidence := tag.Base(); confidence == xlanguage.Exact {
			return base, true
		}
	}
	if base, err := xlanguage.ParseBase(code); err == nil {
		return base, true
	}
	return xlanguage.Base{}, false
}

// byName maps English language names, as WhisperX sometimes reports them, to
// ISO 639-1 codes.
var byName = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"catalan":    "ca",
	"galician":   "gl",
	"turkish":    "tr",
	"ukrainian":  "uk",
}
