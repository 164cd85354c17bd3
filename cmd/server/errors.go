package main

import (
	"errors"
	"net/http"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/media"
)

// assessmentError maps estimator errors onto API errors. Missing answers take
// precedence over invalid ones so the user is first asked to finish the form.
func assessmentError(err error) error {
	var verr *analysis.ValidationError
	switch {
	case errors.As(err, &verr) && len(verr.Missing) > 0:
		return apperrors.NewIncompleteInputError(verr.Missing, err)
	case errors.As(err, &verr):
		return apperrors.NewValidationErrorWithMap("Ratings must be whole numbers between 0 and 10", verr.Invalid)
	case errors.Is(err, analysis.ErrUnknownModality):
		return apperrors.NewValidationError("Unknown assessment type", err)
	case errors.Is(err, analysis.ErrNoMedia):
		return apperrors.NewCaptureError("Please record or upload first", http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}

// captureError maps recorder errors onto API errors. Capture failures end the
// current attempt only; the client starts again.
func captureError(err error, id string) error {
	switch {
	case errors.Is(err, media.ErrSessionNotFound):
		return apperrors.NewNotFoundError("session", id)
	case errors.Is(err, media.ErrClipNotFound):
		return apperrors.NewNotFoundError("clip", id)
	case errors.Is(err, media.ErrEmptyCapture):
		return apperrors.NewCaptureError("Nothing was recorded, please try again", http.StatusUnprocessableEntity, err)
	case errors.Is(err, media.ErrClipTooLarge):
		return apperrors.NewCaptureError("Recording is too large", http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, media.ErrChunkSequence):
		return apperrors.NewCaptureError("Recording arrived incomplete, please try again", http.StatusConflict, err)
	case errors.Is(err, media.ErrMediaType):
		return apperrors.NewCaptureError(err.Error(), http.StatusUnsupportedMediaType, err)
	case errors.Is(err, media.ErrUnsupportedModality):
		return apperrors.NewValidationError("Only audio and drawing can be captured", err)
	case errors.Is(err, media.ErrClosed):
		return apperrors.NewCaptureError("Service is shutting down", http.StatusServiceUnavailable, err)
	default:
		return err
	}
}

// bodyError classifies failures reading a request body.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewCaptureError("Request body too large", http.StatusRequestEntityTooLarge, err)
	}
	return apperrors.NewValidationError("Invalid request body", err)
}
