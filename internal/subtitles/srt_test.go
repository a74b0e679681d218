package subtitles

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"redub/internal/utterance"
)

var records = []utterance.Record{
	{Start: 0, End: 1.5, Text: "Hello there.", Translation: "Hola."},
	{Start: 2, End: 3.25, Text: "  ", Translation: "Nada."},
	{Start: 3661.0, End: 3662.5, Text: "Bye.", Translation: ""},
}

func TestEncodeOriginal(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FromRecords(records, Original)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n\n2\n01:01:01,000 --> 01:01:02,500\nBye.\n"
	if buf.String() != want {
		t.Fatalf("unexpected srt:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestFromRecordsDubbedSkipsEmpty(t *testing.T) {
	cues := FromRecords(records, Dubbed)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[1].Index != 2 || cues[1].Text != "Nada." || cues[1].Start != 2 {
		t.Fatalf("unexpected cue %+v", cues[1])
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName("/videos/movie.mp4", "es-ES"))
	if filepath.Base(path) != "movie.es.srt" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	cues := FromRecords(records, Dubbed)
	if err := Write(path, cues); err != nil {
		t.Fatalf("Write: %v", err)
	}
	parsed, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !slices.Equal(parsed, cues) {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, cues)
	}
	if issues := Validate(path, 10); len(issues) != 0 {
		t.Fatalf("unexpected issues %v", issues)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if issues := Validate(empty, 0); !slices.Equal(issues, []string{"empty_subtitle_file"}) {
		t.Fatalf("unexpected issues %v", issues)
	}

	bad := filepath.Join(dir, "bad.srt")
	content := "1\n00:00:05.000 --> 00:00:04,000\nx\n\n2\n00:00:01,000 --> 00:00:30,000\ny\n"
	if err := os.WriteFile(bad, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	issues := Validate(bad, 10)
	want := []string{"inverted_cue: 1", "out_of_order_cue: 2", "duration_mismatch: delta=20.0s"}
	if !slices.Equal(issues, want) {
		t.Fatalf("issues = %v, want %v", issues, want)
	}
}
