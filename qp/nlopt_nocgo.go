//go:build windows || no_cgo

package qp

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// NLoptSolver is unavailable on this build; use the Hildreth backend instead.
type NLoptSolver struct{}

// NewNLoptSolver returns an error on no-cgo platforms.
func NewNLoptSolver(logger golog.Logger, maxEvaluations int) (*NLoptSolver, error) {
	return nil, errors.New("nlopt is not supported on this build")
}

// Name returns the name of the backend.
func (s *NLoptSolver) Name() string {
	return "nlopt"
}

// Solve always fails on no-cgo platforms.
func (s *NLoptSolver) Solve(ctx context.Context, problem *Problem) ([]float64, error) {
	return nil, errors.New("nlopt is not supported on this build")
}
