package codec

import (
	"fmt"

	"redub/internal/services"
)

// UnsupportedFormatError reports an audio file the codec layer cannot read or
// write.
type UnsupportedFormatError struct {
	Path   string
	Format string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	msg := fmt.Sprintf("unsupported audio format %q for %s", e.Format, e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is classifies the error as a validation failure.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == services.ErrValidation
}
