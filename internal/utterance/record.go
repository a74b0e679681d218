package utterance

// Record is one utterance as it moves through the pipeline. Fields are
// populated by successive stages and are never reset by a later one.
type Record struct {
	Start     float64
	End       float64
	SpeakerID string

	// Path is the chunk cut from the source vocals.
	Path string
	// Text is the source-language transcript.
	Text string
	// Translation is the target-language text sent to synthesis.
	Translation string
	// Voice is the TTS voice used for this speaker.
	Voice string
	// Gender comes from the voice metadata when the TTS provider reports it.
	Gender string

	// ForDubbing is true when DubbedPath replaces this span in the output.
	ForDubbing bool
	DubbedPath string
}

// FromInterval creates a record for a freshly diarized interval.
func FromInterval(interval Interval) Record {
	return Record{Start: interval.Start, End: interval.End, SpeakerID: interval.SpeakerID}
}

// Interval returns the timing portion of the record.
func (r Record) Interval() Interval {
	return Interval{Start: r.Start, End: r.End, SpeakerID: r.SpeakerID}
}

// Duration returns End-Start in seconds.
func (r Record) Duration() float64 {
	return r.End - r.Start
}

// CheckDubbed returns MissingDubbedAudioError when the record is marked for
// dubbing without audio.
func (r Record) CheckDubbed() error {
	if r.ForDubbing && r.DubbedPath == "" {
		return &MissingDubbedAudioError{Start: r.Start, End: r.End, SpeakerID: r.SpeakerID}
	}
	return nil
}
