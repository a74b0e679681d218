package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	langpkg "redub/internal/language"
	"redub/internal/utterance"
)

// Cue is a single subtitle with timing in seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Source selects which utterance text becomes cue text.
type Source int

const (
	// Original uses the transcription.
	Original Source = iota
	// Dubbed uses the translation.
	Dubbed
)

// FromRecords builds cues from records in time order. Utterances without text
// for the chosen source are skipped and cues are numbered from 1.
func FromRecords(records []utterance.Record, source Source) []Cue {
	cues := make([]Cue, 0, len(records))
	for _, record := range records {
		text := record.Text
		if source == Dubbed {
			text = record.Translation
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Index: len(cues) + 1,
			Start: record.Start,
			End:   record.End,
			Text:  text,
		})
	}
	return cues
}

// FileName returns "<video name>.<lang>.srt".
func FileName(videoPath, language string) string {
	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if lang := langpkg.ToISO2(language); lang != "" {
		name += "." + lang
	}
	return name + ".srt"
}

// Encode writes cues in SRT format.
func Encode(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n", cue.Index, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write encodes cues to path.
func Write(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	if err := Encode(f, cues); err != nil {
		_ = f.Close()
		return fmt.Errorf("write srt: %w", err)
	}
	return f.Close()
}

// Parse reads an SRT file. Malformed blocks are skipped.
func Parse(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}
	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			continue
		}
		start, errStart := parseTimestamp(parts[0])
		end, errEnd := parseTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: strings.Join(lines[2:], "\n")})
	}
	return cues, nil
}

// Validate checks an SRT file for format issues. An empty result means the
// file passed. When videoSeconds is positive, cues ending more than a second
// after the video are reported.
func Validate(path string, videoSeconds float64) []string {
	cues, err := Parse(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	for i, cue := range cues {
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Sprintf("inverted_cue: %d", cue.Index))
		}
		if i > 0 && cue.Start < cues[i-1].Start {
			issues = append(issues, fmt.Sprintf("out_of_order_cue: %d", cue.Index))
		}
	}
	if last := cues[len(cues)-1].End; videoSeconds > 0 && last > videoSeconds+1 {
		issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", last-videoSeconds))
	}
	return issues
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	msTotal := int(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Some writers use a period before the milliseconds.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
