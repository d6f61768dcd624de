package controls

import (
	"errors"
	"fmt"
)

var (
	// ErrControlExists is returned when importing a trigger whose id is taken.
	ErrControlExists = errors.New("controls: control already exists")

	// ErrLearnInProgress is returned when a learn for the same id is running.
	ErrLearnInProgress = errors.New("Learn is already running") //nolint:staticcheck // user-facing message

	// ErrCapability matches every *CapabilityError.
	ErrCapability = errors.New("controls: capability not supported")

	// ErrInvalidModel is returned for imports with a mismatched id or type.
	ErrInvalidModel = errors.New("controls: invalid control model")
)

// CapabilityError reports a command issued against a control that lacks
// the capability it needs.
type CapabilityError struct {
	ControlID  string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("controls: control %s does not support %s", e.ControlID, e.Capability)
}

// Is makes errors.Is(err, ErrCapability) true.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}
