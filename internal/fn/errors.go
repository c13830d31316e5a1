package fn

import (
	"errors"
	"fmt"
)

// Sentinel errors for the oracle layer. Wrapped errors carry detail; callers
// match with errors.Is.
var (
	// ErrDomain reports evaluation of a point outside the declared domain.
	ErrDomain = errors.New("point outside function domain")

	// ErrDimension reports a vector whose length does not match the
	// function's dimension.
	ErrDimension = errors.New("dimension mismatch")

	// ErrNonQuadratic reports a quadratic-only operation applied to a
	// non-quadratic function.
	ErrNonQuadratic = errors.New("function is not quadratic")

	// ErrIndefinite reports a Hessian that is not positive definite where
	// one is required.
	ErrIndefinite = errors.New("hessian not positive definite")

	// ErrUnbounded reports a problem detected to be unbounded below.
	ErrUnbounded = errors.New("problem unbounded below")
)

// DomainError carries the offending point for ErrDomain.
type DomainError struct {
	X []float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("point %v outside function domain", e.X)
}

// Unwrap makes the error match ErrDomain.
func (e *DomainError) Unwrap() error { return ErrDomain }

// DimensionError carries expected and actual lengths for ErrDimension.
type DimensionError struct {
	Want, Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// Unwrap makes the error match ErrDimension.
func (e *DimensionError) Unwrap() error { return ErrDimension }
