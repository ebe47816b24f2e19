package engine

import (
	"errors"
	"fmt"
)

// ErrEngineFailure is matched by every error the session returns for a
// failed statement or connection.
var ErrEngineFailure = errors.New("engine failure")

// EngineFailure wraps an error raised by the execution engine. Failures are
// surfaced unchanged to the caller and never retried.
type EngineFailure struct {
	Stage string
	Err   error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("engine failure during %s: %v", e.Stage, e.Err)
}

func (e *EngineFailure) Unwrap() error {
	return e.Err
}

func (e *EngineFailure) Is(target error) bool {
	return target == ErrEngineFailure
}

func failure(stage string, err error) error {
	if err == nil {
		return nil
	}
	var ef *EngineFailure
	if errors.As(err, &ef) {
		return err
	}
	return &EngineFailure{Stage: stage, Err: err}
}
