package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// StageError is the distinguished error a stage raises on purpose to stop
// the run with a clear cause.
type StageError struct {
	Stage string
	Err   error
}

// Fail wraps err as a StageError for the named stage.
func Fail(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PanicError is a recovered panic from a pipeline step.
type PanicError struct {
	Step  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Step, e.Value)
}

// StackTrace returns the goroutine stack captured at recovery time.
func (e *PanicError) StackTrace() string {
	return string(e.Stack)
}

// StackTrace extracts a captured stack from err, if any error in its tree
// carries one.
func StackTrace(err error) (string, bool) {
	var tracer interface{ StackTrace() string }
	if errors.As(err, &tracer) {
		return tracer.StackTrace(), true
	}
	return "", false
}

func guard(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Step: step, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func wrapStep(step string, err error) error {
	var (
		stageErr *StageError
		panicErr *PanicError
	)
	if errors.As(err, &stageErr) || errors.As(err, &panicErr) {
		return err
	}
	return fmt.Errorf("%s: %w", step, err)
}
