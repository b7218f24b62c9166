package pacing

import "github.com/pkg/errors"

// ErrInvalidInterval reports a negative delay or jitter passed to New.
var ErrInvalidInterval = errors.New("pacing interval must not be negative")
