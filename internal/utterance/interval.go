package utterance

import (
	"math"
	"strconv"
	"strings"
)

// Interval is a diarized span of speech attributed to one speaker.
type Interval struct {
	Start     float64
	End       float64
	SpeakerID string
}

// Duration returns End-Start in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Validate checks the interval is finite, non-negative and non-empty.
func (i Interval) Validate() error {
	switch {
	case math.IsNaN(i.Start) || math.IsNaN(i.End) || math.IsInf(i.Start, 0) || math.IsInf(i.End, 0):
		return &InvalidIntervalError{Start: i.Start, End: i.End, Reason: "timestamps must be finite"}
	case i.Start < 0 || i.End < 0:
		return &InvalidIntervalError{Start: i.Start, End: i.End, Reason: "timestamps must not be negative"}
	case i.End == i.Start:
		return &InvalidIntervalError{Start: i.Start, End: i.End, Reason: "zero-length interval"}
	case i.End < i.Start:
		return &InvalidIntervalError{Start: i.Start, End: i.End, Reason: "end precedes start"}
	}
	return nil
}

// FormatSeconds renders a timestamp with the shortest representation that
// round-trips, always keeping at least one decimal place (5 -> "5.0").
func FormatSeconds(seconds float64) string {
	text := strconv.FormatFloat(seconds, 'f', -1, 64)
	if !strings.ContainsAny(text, ".NI") {
		text += ".0"
	}
	return text
}

// FileName returns the artifact name for a span: <prefix>_<start>_<end>.<ext>.
func FileName(prefix string, start, end float64, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	name := prefix + "_" + FormatSeconds(start) + "_" + FormatSeconds(end)
	if ext == "" {
		return name
	}
	return name + "." + ext
}
