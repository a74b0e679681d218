package tts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	langpkg "redub/internal/language"
	"redub/internal/services"
)

// Voice describes one synthesizer voice.
type Voice struct {
	ID     string `json:"id"`
	Locale string `json:"locale"`
	Gender string `json:"gender,omitempty"`
}

// Language returns the voice's ISO 639-1 language.
func (v Voice) Language() string {
	return langpkg.ToISO2(v.Locale)
}

// Region returns the voice's region subtag.
func (v Voice) Region() string {
	return langpkg.Region(v.Locale)
}

// Provider synthesizes speech.
type Provider interface {
	Name() string
	// Voices lists the voices the provider can speak with.
	Voices(ctx context.Context) ([]Voice, error)
	// Synthesize writes text spoken by voice to outputPath.
	Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error
	// OutputExt is the extension, without the dot, of synthesized files.
	OutputExt() string
}

// VoicesFor filters voices to language, ordering voices in region first.
func VoicesFor(voices []Voice, language, region string) []Voice {
	lang := langpkg.ToISO2(language)
	if lang == "" {
		return nil
	}
	if region == "" {
		region = langpkg.Region(language)
	}
	region = strings.ToUpper(region)
	var out []Voice
	for _, voice := range voices {
		if voice.Language() == lang {
			out = append(out, voice)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Region() == region && out[j].Region() != region
	})
	return out
}

// SelectVoice returns the first voice for language, preferring region and
// gender when given.
func SelectVoice(voices []Voice, language, region, gender string) (Voice, error) {
	candidates := VoicesFor(voices, language, region)
	if len(candidates) == 0 {
		return Voice{}, unsupportedLanguage(language)
	}
	if gender != "" {
		for _, voice := range candidates {
			if strings.EqualFold(voice.Gender, gender) {
				return voice, nil
			}
		}
	}
	return candidates[0], nil
}

// AssignVoices gives each speaker its own voice where the catalogue allows,
// alternating genders so consecutive speakers are easy to tell apart. A
// non-empty override is used for every speaker.
func AssignVoices(voices []Voice, speakers []string, language, region, override string) (map[string]Voice, error) {
	candidates := VoicesFor(voices, language, region)
	assigned := make(map[string]Voice, len(speakers))
	if override != "" {
		voice := Voice{ID: override, Locale: language}
		for _, candidate := range voices {
			if candidate.ID == override {
				voice = candidate
				break
			}
		}
		for _, speaker := range speakers {
			assigned[speaker] = voice
		}
		return assigned, nil
	}
	if len(candidates) == 0 {
		return nil, unsupportedLanguage(language)
	}

	byGender := map[string][]Voice{}
	var genders []string
	for _, voice := range candidates {
		key := strings.ToLower(voice.Gender)
		if _, ok := byGender[key]; !ok {
			genders = append(genders, key)
		}
		byGender[key] = append(byGender[key], voice)
	}
	next := map[string]int{}
	for i, speaker := range speakers {
		gender := genders[i%len(genders)]
		pool := byGender[gender]
		assigned[speaker] = pool[next[gender]%len(pool)]
		next[gender]++
	}
	return assigned, nil
}

func unsupportedLanguage(language string) error {
	return services.Wrap(services.ErrValidation, "tts", "select voice", fmt.Sprintf("no voice available for language %q", language), nil)
}
