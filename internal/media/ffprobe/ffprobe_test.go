package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"

	"redub/internal/services"
)

const mp4Report = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2, "tags": {"language": "spa"}}
  ],
  "format": {"filename": "in.mp4", "nb_streams": 2, "duration": "123.45", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func fixedRunner(output string, err error) Runner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(output), err
	}
}

func TestValidateVideoAcceptsMP4(t *testing.T) {
	prober := New("")
	prober.WithRunner(fixedRunner(mp4Report, nil))
	result, err := prober.ValidateVideo(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("ValidateVideo returned error: %v", err)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	stream, ok := result.FirstAudioStream()
	if !ok || stream.Index != 1 || stream.Language() != "spa" {
		t.Fatalf("unexpected audio stream %+v", stream)
	}
}

func TestValidateVideoRejects(t *testing.T) {
	cases := map[string]Runner{
		"not mp4":  fixedRunner(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{"format_name":"matroska,webm"}}`, nil),
		"no audio": fixedRunner(`{"streams":[{"codec_type":"video"}],"format":{"format_name":"mov,mp4"}}`, nil),
		"no video": fixedRunner(`{"streams":[{"codec_type":"audio"}],"format":{"format_name":"mov,mp4"}}`, nil),
		"garbage":  fixedRunner(`not json`, nil),
		"failure":  fixedRunner("", errors.New("Invalid data found when processing input")),
	}
	for name, runner := range cases {
		t.Run(name, func(t *testing.T) {
			prober := New("ffprobe")
			prober.WithRunner(runner)
			if _, err := prober.ValidateVideo(context.Background(), "in.bin"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInspectPassesPath(t *testing.T) {
	prober := New("/opt/ffprobe")
	var gotBinary, gotLast string
	prober.WithRunner(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary = binary
		gotLast = args[len(args)-1]
		return []byte(mp4Report), nil
	})
	if _, err := prober.Inspect(context.Background(), " movie.mp4 "); err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if gotBinary != "/opt/ffprobe" || gotLast != "movie.mp4" {
		t.Fatalf("unexpected invocation %s ... %s", gotBinary, gotLast)
	}
	if _, err := prober.Inspect(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	if !math.IsNaN((Result{Format: Format{Duration: "bad"}}).DurationSeconds()) {
		t.Fatal("expected NaN for unparsable duration")
	}
	if (Result{}).DurationSeconds() != 0 {
		t.Fatal("expected 0 for missing duration")
	}
}
