package rigidbody

import (
	"github.com/pkg/errors"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error describing a mismatch between the number of inputs
// provided and the degrees of freedom of the model or frame they were provided to.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewFrameMissingError returns an error indicating that a frame of the given name could not be
// found in the model.
func NewFrameMissingError(frameName string) error {
	return errors.Errorf("frame with name %q not in model", frameName)
}

// NewFrameNotGeometricError returns an error indicating that the named frame carries no
// collision geometry.
func NewFrameNotGeometricError(frameName string) error {
	return errors.Errorf("frame with name %q has no geometry", frameName)
}

// NewReservedWordError returns an error indicating that a reserved word was used as a name
// during model parsing.
func NewReservedWordError(element, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s %q", element, reservedWord)
}

// NewDuplicateFrameError returns an error indicating that a frame of the given name already
// exists in the model being assembled.
func NewDuplicateFrameError(frameName string) error {
	return errors.Errorf("frame with name %q already in model", frameName)
}
