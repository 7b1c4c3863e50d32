// Package apperr defines sentinel errors shared across service layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownPrompt = errors.New("unknown prompt")
	ErrNoModel       = errors.New("no model configured")
	ErrNoServer      = errors.New("no inference server configured")
	ErrUnreachable   = errors.New("inference server unreachable")
	ErrEmptyDocument = errors.New("nothing to send after filtering")
)
