package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures for API responses and job records.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindFileTooLarge      Kind = "file_too_large"
	KindExtraction        Kind = "extraction_error"
	KindTranscription     Kind = "transcription_error"
	KindTranslation       Kind = "translation_error"
	KindMux               Kind = "mux_error"
	KindConfiguration     Kind = "configuration_error"
	KindCanceled          Kind = "canceled"
)

// StageError is a stage-aware pipeline failure.
type StageError struct {
	Kind    Kind   `json:"kind"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageErr(kind Kind, stage, message string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Message: message, Err: err}
}

// KindOf returns the failure kind carried by err, or an empty Kind when err
// is not a StageError.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
