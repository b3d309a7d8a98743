package models

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindInput            ErrorKind = "input_error"
	KindMethodNotAllowed ErrorKind = "method_not_allowed"
	KindAssetUnavailable ErrorKind = "asset_unavailable"
	KindCompositing      ErrorKind = "compositing_failure"
	KindUploadRejected   ErrorKind = "upload_rejected"
	KindTransport        ErrorKind = "transport_error"
)

// Error is the uniform failure record of the upload pipeline. Detail is the
// only text that reaches the caller; Err is kept for logs and errors.Is.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func NewError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to its HTTP status class.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a pipeline error, treating anything unclassified as a
// transport failure.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindTransport, "internal processing error", err)
}
