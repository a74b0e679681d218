package utterance

import (
	"fmt"

	"redub/internal/services"
)

// InvalidIntervalError reports a speech interval that cannot be cut from its
// source track.
type InvalidIntervalError struct {
	Start  float64
	End    float64
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval [%s, %s]: %s", FormatSeconds(e.Start), FormatSeconds(e.End), e.Reason)
}

// Is classifies the error as a validation failure.
func (e *InvalidIntervalError) Is(target error) bool {
	return target == services.ErrValidation
}

// MissingDubbedAudioError reports a record marked for dubbing whose
// synthesized audio was never attached.
type MissingDubbedAudioError struct {
	Start     float64
	End       float64
	SpeakerID string
}

func (e *MissingDubbedAudioError) Error() string {
	return fmt.Sprintf("utterance [%s, %s] (%s) is marked for dubbing but has no dubbed audio",
		FormatSeconds(e.Start), FormatSeconds(e.End), e.SpeakerID)
}

// Is classifies the error as a validation failure.
func (e *MissingDubbedAudioError) Is(target error) bool {
	return target == services.ErrValidation
}
