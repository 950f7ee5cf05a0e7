package browser

import (
	"errors"
	"fmt"
)

var (
	ErrNoPage        = errors.New("no page available")
	ErrSessionClosed = errors.New("browser session closed")
)

// LaunchError wraps a failure in one of the bootstrap steps.
type LaunchError struct {
	Step string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("browser launch failed at %s: %v", e.Step, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
