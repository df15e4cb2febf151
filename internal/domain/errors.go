package domain

import (
	"errors"
	"strconv"
)

var (
	// ErrMissingCredential signals that the upstream auth key is not configured.
	ErrMissingCredential = errors.New("missing WORK24_AUTH_KEY")
	// ErrUpstream signals an aggregation aborted by an unrecoverable upstream failure.
	ErrUpstream = errors.New("upstream request failed")
)

// UpstreamError records which page exhausted its retries and the last failure.
type UpstreamError struct {
	Page int
	Err  error
}

func (e *UpstreamError) Error() string {
	return "page " + strconv.Itoa(e.Page) + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstream) hold for every UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
