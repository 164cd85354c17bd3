package media

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
)

var (
	ErrSessionNotFound     = errors.New("capture session not found")
	ErrClipNotFound        = errors.New("clip not found")
	ErrEmptyCapture        = errors.New("nothing was captured")
	ErrClipTooLarge        = errors.New("clip exceeds the size limit")
	ErrMediaType           = errors.New("unsupported media type")
	ErrUnsupportedModality = errors.New("modality does not capture media")
	ErrClosed              = errors.New("recorder is closed")
	ErrChunkSequence       = errors.New("recording chunks out of sequence")
)

// MediaTypeError records what was sniffed when a payload is rejected.
type MediaTypeError struct {
	Modality analysis.Modality
	Detected string
}

func (e *MediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type %q for %s", e.Detected, e.Modality)
}

func (e *MediaTypeError) Unwrap() error {
	return ErrMediaType
}
