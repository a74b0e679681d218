package chunker_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"redub/internal/chunker"
	"redub/internal/media/codec"
	"redub/internal/media/pcm"
	"redub/internal/utterance"
)

const rate = 8000

func writeSource(t *testing.T, dir string, buf pcm.Buffer) string {
	t.Helper()
	path := filepath.Join(dir, "vocals.wav")
	if err := codec.WriteWAV(path, buf); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func tone(seconds float64) pcm.Buffer {
	buf := pcm.Silence(rate, 1, int(seconds*rate))
	for i := range buf.Samples {
		buf.Samples[i] = int16(6000 * math.Sin(2*math.Pi*220*float64(i)/rate))
	}
	return buf
}

func TestChunkNamesFilesFromTimestamps(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, pcm.Silence(rate, 1, 10*rate))
	c := chunker.New(codec.New(""), nil)

	records, err := c.Chunk(context.Background(), []utterance.Interval{{Start: 0, End: 5, SpeakerID: "A"}}, source, filepath.Join(dir, "out"), "")
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	want := filepath.Join(dir, "out", "chunk_0.0_5.0.wav")
	if records[0].Path != want {
		t.Fatalf("expected path %s, got %s", want, records[0].Path)
	}
	chunk, err := codec.ReadWAV(want)
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	if chunk.Frames() != 5*rate {
		t.Fatalf("expected %d frames, got %d", 5*rate, chunk.Frames())
	}
	if records[0].SpeakerID != "A" || records[0].Start != 0 || records[0].End != 5 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestChunksReassembleToSource(t *testing.T) {
	dir := t.TempDir()
	src := tone(3)
	source := writeSource(t, dir, src)
	c := chunker.New(codec.New(""), nil)

	intervals := []utterance.Interval{
		{Start: 0.25, End: 1.1, SpeakerID: "A"},
		{Start: 1.5, End: 2.75, SpeakerID: "B"},
	}
	records, err := c.Chunk(context.Background(), intervals, source, dir, "chunk")
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}

	rebuilt := src.Clone()
	for _, record := range records {
		chunk, err := codec.ReadWAV(record.Path)
		if err != nil {
			t.Fatalf("read chunk: %v", err)
		}
		span := record.End - record.Start
		if diff := math.Abs(chunk.Seconds() - span); diff > 1.0/rate {
			t.Fatalf("chunk spans %.5fs, expected %.5fs", chunk.Seconds(), span)
		}
		start := src.FrameAt(record.Start)
		copy(rebuilt.Samples[start:], chunk.Samples)
	}
	for i := range src.Samples {
		if rebuilt.Samples[i] != src.Samples[i] {
			t.Fatalf("sample %d differs after reinsertion", i)
		}
	}
}

func TestChunkClampsEndPastTrack(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, tone(10))
	c := chunker.New(codec.New(""), nil)

	records, err := c.Chunk(context.Background(), []utterance.Interval{{Start: 8, End: 12, SpeakerID: "A"}}, source, dir, "chunk")
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	chunk, err := codec.ReadWAV(records[0].Path)
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	if chunk.Frames() != 2*rate {
		t.Fatalf("expected clamped chunk of %d frames, got %d", 2*rate, chunk.Frames())
	}
	if filepath.Base(records[0].Path) != "chunk_8.0_12.0.wav" {
		t.Fatalf("unexpected chunk name %s", filepath.Base(records[0].Path))
	}
}

func TestChunkRejectsInvalidIntervalsBeforeWriting(t *testing.T) {
	cases := []struct {
		name     string
		interval utterance.Interval
	}{
		{"starts at end", utterance.Interval{Start: 10, End: 11}},
		{"starts after end", utterance.Interval{Start: 12, End: 13}},
		{"zero length", utterance.Interval{Start: 1, End: 1}},
		{"inverted", utterance.Interval{Start: 2, End: 1}},
		{"negative", utterance.Interval{Start: -0.5, End: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			source := writeSource(t, dir, pcm.Silence(rate, 1, 10*rate))
			out := filepath.Join(dir, "out")
			c := chunker.New(codec.New(""), nil)

			intervals := []utterance.Interval{{Start: 0, End: 1, SpeakerID: "A"}, tc.interval}
			_, err := c.Chunk(context.Background(), intervals, source, out, "chunk")
			var invalid *utterance.InvalidIntervalError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidIntervalError, got %v", err)
			}
			entries, _ := os.ReadDir(out)
			if len(entries) != 0 {
				t.Fatalf("expected no chunks to be written, found %d", len(entries))
			}
		})
	}
}

func TestChunkStoreRerunOverwrites(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, tone(4))
	c := chunker.New(codec.New(""), nil)

	store, err := utterance.NewStore([]utterance.Interval{{Start: 2, End: 3, SpeakerID: "B"}, {Start: 0.5, End: 1, SpeakerID: "A"}})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for run := 0; run < 2; run++ {
		if err := c.ChunkStore(context.Background(), store, source, dir, "take"); err != nil {
			t.Fatalf("ChunkStore run %d: %v", run, err)
		}
	}
	if got := filepath.Base(store.Get(0).Path); got != "take_0.5_1.0.wav" {
		t.Fatalf("unexpected first chunk %s", got)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "take_*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected exactly two chunk files, got %v", matches)
	}
}
