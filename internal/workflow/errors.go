package workflow

import "github.com/cockroachdb/errors"

var (
	// ErrNavigate marks a failure to load the reservation site. It aborts the run.
	ErrNavigate = errors.New("navigation failed")
	// ErrStepFailed marks executor failures caught at a step boundary.
	ErrStepFailed = errors.New("step failed")
)
