package voodoo

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Allocation failures callers may want to react to individually, e.g. by
// retrying with a smaller request. Match with errors.Is against the error
// returned from AllocateMemory or MemoryBuilder.Build.
var (
	ErrOutOfHostMemory   = errors.New("voodoo: out of host memory")
	ErrOutOfDeviceMemory = errors.New("voodoo: out of device memory")
)

// LoaderError indicates that no compatible driver could be located, or that
// the driver's entry point could not be resolved.
type LoaderError struct {
	Reason string
	Err    error
}

func (e *LoaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("voodoo: loader: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("voodoo: loader: %s", e.Reason)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// ValidationError is returned by a builder's Build when a required field is
// unset or malformed, and by safe resource operations whose preconditions do
// not hold. No driver call has been made when a ValidationError is returned.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("voodoo: %s: %s", e.Op, e.Reason)
}

// DriverError carries a non-success result code returned by the native
// driver. These are hard failures; nothing in this package retries them.
type DriverError struct {
	Op     string
	Result vk.Result
}

func (e *DriverError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("voodoo: %s: %v", e.Op, err)
	}
	return fmt.Sprintf("voodoo: %s: unexpected result %d", e.Op, e.Result)
}

// Is maps the driver's out-of-memory result codes onto the package-level
// sentinels so callers can distinguish them without touching vk.Result.
func (e *DriverError) Is(target error) bool {
	switch target {
	case ErrOutOfHostMemory:
		return e.Result == vk.ErrorOutOfHostMemory
	case ErrOutOfDeviceMemory:
		return e.Result == vk.ErrorOutOfDeviceMemory
	}
	return false
}

func newDriverError(op string, ret vk.Result) error {
	return &DriverError{Op: op, Result: ret}
}

// AlreadyBoundError is returned when a buffer or image that is already bound
// to memory is bound a second time. Binding is a one-way transition.
type AlreadyBoundError struct {
	Resource string
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("voodoo: %s is already bound to memory", e.Resource)
}
