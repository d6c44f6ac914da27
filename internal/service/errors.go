package service

import (
	"errors"
	"fmt"

	v "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("post can no longer be changed")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrStorageDisabled     = errors.New("media storage is not configured")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrAccountNotConnected = errors.New("no connected account for platform")
	ErrApiKeyLimit         = errors.New("api key limit reached")
)

type ReferenceKind string

const (
	DraftNotFound ReferenceKind = "draft"
	MediaNotFound ReferenceKind = "media"
)

// ReferenceError reports a scheduled post pointing at a draft or media file
// that does not exist for the post's owner.
type ReferenceError struct {
	Kind ReferenceKind
	ID   int64
}

func (e *ReferenceError) Error() string {
	switch e.Kind {
	case DraftNotFound:
		return fmt.Sprintf("content draft %d not found", e.ID)
	case MediaNotFound:
		return fmt.Sprintf("media file %d not found", e.ID)
	}
	return fmt.Sprintf("reference %d not found", e.ID)
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields v.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// NewValidationError wraps err as a *ValidationError when it holds field errors.
func NewValidationError(err error) error {
	var fields v.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

// PostError is a publish failure caused by the post or its account, such as
// missing media or an expired token. It does not count against the
// platform's circuit breaker.
type PostError struct {
	Err error
}

func (e *PostError) Error() string {
	return e.Err.Error()
}

func (e *PostError) Unwrap() error {
	return e.Err
}

func postErrorf(format string, a ...any) error {
	return &PostError{Err: fmt.Errorf(format, a...)}
}

// rejection classifies an error response: 4xx answers are about the request,
// anything else is the platform's problem.
func rejection(status int, err error) error {
	if status >= 400 && status < 500 {
		return &PostError{Err: err}
	}
	return err
}
