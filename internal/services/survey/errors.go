package survey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/censoparroquial/censo/internal/models"
)

// ErrSubmitInFlight is returned when Submit is called while a submission is
// still outstanding.
var ErrSubmitInFlight = errors.New("a submission is already in progress")

// ErrNotReady is returned by operations that need a restored wizard.
var ErrNotReady = errors.New("wizard is not ready")

// DecodeReason classifies a draft that could not be decoded.
type DecodeReason string

const (
	// DecodeCorrupt means the blob is not valid JSON.
	DecodeCorrupt DecodeReason = "corrupt"
	// DecodeUnrecognized means the blob matches no known draft shape.
	DecodeUnrecognized DecodeReason = "unrecognized"
)

// DecodeError reports a persisted draft that cannot be restored. Owners of
// the draft store discard the blob and log the error.
type DecodeError struct {
	Reason DecodeReason
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("draft %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError is a blocked transition or submission gate. It is
// returned as a value and shown to the surveyor.
type ValidationError struct {
	Reason        string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "missing fields: " + strings.Join(e.MissingFields, ", ")
}

// SubmissionError is a failed create or update reported by the backend.
type SubmissionError struct {
	Message string
	Details *models.ErrorDetails
	Err     error
}

func (e *SubmissionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "submission failed"
	}
	if e.Details != nil && e.Details.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Details.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Suggestion returns the backend's suggestion, if any.
func (e *SubmissionError) Suggestion() string {
	if e.Details == nil {
		return ""
	}
	return e.Details.Suggestion
}

// UnexpectedError wraps any other failure during submission.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// UserMessage renders an engine error for display in the wizard.
func UserMessage(err error) string {
	var (
		verr *ValidationError
		serr *SubmissionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &serr):
		msg := serr.Message
		if msg == "" {
			msg = "No se pudo guardar la encuesta"
		}
		if serr.Details != nil && serr.Details.Code != "" {
			msg = fmt.Sprintf("%s (código %s)", msg, serr.Details.Code)
		}
		if s := serr.Suggestion(); s != "" {
			msg = fmt.Sprintf("%s. %s", msg, s)
		}
		return msg
	case errors.Is(err, ErrSubmitInFlight):
		return "La encuesta se está enviando, espere un momento"
	default:
		return "Ocurrió un error inesperado; sus datos locales se conservaron"
	}
}
