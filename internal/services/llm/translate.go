package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	langpkg "redub/internal/language"
)

// TranslationPrompt instructs the model to translate numbered dialogue lines.
const TranslationPrompt = `You translate film and television dialogue for dubbing.
You receive a JSON object with "source_language", "target_language" and "lines",
an array of {"id": number, "text": string} in playback order.
Translate every line into the target language. Keep each translation close in
length to the original so it can be spoken in the same time. Preserve names,
numbers and tone. Do not merge, split, drop or reorder lines.
Respond with JSON only, in the form:
{"translations": [{"id": number, "text": string}]}`

// translateBatchSize bounds how many lines go into one completion request.
const translateBatchSize = 40

type translationLine struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type translationRequest struct {
	SourceLanguage string            `json:"source_language"`
	TargetLanguage string            `json:"target_language"`
	Lines          []translationLine `json:"lines"`
}

type translationResponse struct {
	Translations []translationLine `json:"translations"`
}

// Name identifies the translator.
func (c *Client) Name() string { return "llm" }

// Translate translates texts from source to target, returning one result per
// input in the same order. Empty inputs translate to empty strings without a
// request.
func (c *Client) Translate(ctx context.Context, source, target string, texts []string) ([]string, error) {
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("llm translate: target language required")
	}
	out := make([]string, len(texts))
	var pending []translationLine
	for i, text := range texts {
		if text = strings.TrimSpace(text); text != "" {
			pending = append(pending, translationLine{ID: i, Text: text})
		}
	}

	for start := 0; start < len(pending); start += translateBatchSize {
		end := min(start+translateBatchSize, len(pending))
		batch := pending[start:end]
		translated, err := c.translateBatch(ctx, source, target, batch)
		if err != nil {
			return nil, err
		}
		for _, line := range batch {
			out[line.ID] = translated[line.ID]
		}
	}
	return out, nil
}

func (c *Client) translateBatch(ctx context.Context, source, target string, lines []translationLine) (map[int]string, error) {
	request := translationRequest{
		SourceLanguage: describeLanguage(source),
		TargetLanguage: describeLanguage(target),
		Lines:          lines,
	}
	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("llm translate: encode lines: %w", err)
	}
	content, err := c.CompleteJSON(ctx, TranslationPrompt, string(encoded))
	if err != nil {
		return nil, err
	}
	var parsed translationResponse
	if err := DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("llm translate: parse payload: %w", err)
	}

	result := make(map[int]string, len(parsed.Translations))
	for _, line := range parsed.Translations {
		result[line.ID] = strings.TrimSpace(line.Text)
	}
	var missing []int
	for _, line := range lines {
		if result[line.ID] == "" {
			missing = append(missing, line.ID)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("llm translate: response omitted %d of %d lines (ids %v)", len(missing), len(lines), missing)
	}
	return result, nil
}

func describeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "auto-detect"
	}
	return fmt.Sprintf("%s (%s)", langpkg.DisplayName(tag), tag)
}
