package mobility

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a solver unwraps to exactly one of these.
var (
	// ErrConfiguration indicates an unsupported periodicity, device or species
	// combination. Returned by constructors only.
	ErrConfiguration = errors.New("mobility: unsupported configuration")

	// ErrParameter indicates invalid physical or geometric input.
	ErrParameter = errors.New("mobility: invalid parameter")

	// ErrState indicates an operation called out of lifecycle order, or a
	// particle count that disagrees with the last SetPositions.
	ErrState = errors.New("mobility: invalid solver state")

	// ErrCapability indicates a request for behavior the solver does not support.
	ErrCapability = errors.New("mobility: capability not supported")
)

// Error carries the solver and operation that failed.
type Error struct {
	Kind   error
	Solver string
	Op     string
	Msg    string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Solver, e.Kind, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", e.Solver, e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, solver, op, format string, args ...any) error {
	return &Error{Kind: kind, Solver: solver, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ConfigurationError builds an ErrConfiguration for solver.
func ConfigurationError(solver, format string, args ...any) error {
	return newError(ErrConfiguration, solver, "", format, args...)
}

// ParameterError builds an ErrParameter for solver.
func ParameterError(solver, op, format string, args ...any) error {
	return newError(ErrParameter, solver, op, format, args...)
}

// StateError builds an ErrState for solver.
func StateError(solver, op, format string, args ...any) error {
	return newError(ErrState, solver, op, format, args...)
}

// CapabilityError builds an ErrCapability for solver.
func CapabilityError(solver, op, format string, args ...any) error {
	return newError(ErrCapability, solver, op, format, args...)
}
