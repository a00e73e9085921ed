package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any network I/O.
	ErrValidation = errors.New("validation failed")
	// ErrUpload marks a media upload the server refused or did not confirm.
	ErrUpload = errors.New("media upload failed")
	// ErrProtocol marks a relay the connection layer did not acknowledge.
	ErrProtocol = errors.New("protocol request failed")
)

type (
	ValidationError struct {
		Field  string
		Reason string
	}

	UploadError struct {
		StatusCode int
		Body       []byte
		Err        error
	}

	ProtocolError struct {
		MessageID string
		Status    int
		Err       error
	}
)

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upload failed (status %d), got: %s", e.StatusCode, e.Body)
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("message %s not relayed: %v", e.MessageID, e.Err)
	}
	return fmt.Sprintf("message %s not relayed: status %d", e.MessageID, e.Status)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
