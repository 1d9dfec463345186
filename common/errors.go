package common

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when a file backing a resource cannot be read.
	ErrIO = errors.New("io error")
	// ErrImage is returned when image bytes cannot be decoded.
	ErrImage = errors.New("image decode error")
	// ErrSurface is returned when the presentation surface cannot provide a frame.
	// It is retryable: the caller should skip the frame and try again.
	ErrSurface = errors.New("surface unavailable")
	// ErrDevice is returned when the GPU adapter or device cannot be acquired.
	ErrDevice = errors.New("gpu device unavailable")
	// ErrCapacity is returned when a write would exceed a fixed-capacity buffer.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrNotResident is returned when a resource is used before its GPU objects exist.
	ErrNotResident = errors.New("resource is not gpu resident")
	// ErrRegion is returned for an out-of-range atlas region.
	ErrRegion = errors.New("region out of range")
)

// CapacityError reports a rejected write against a fixed-capacity buffer.
type CapacityError struct {
	// What names the buffer that would have overflowed.
	What string
	// Requested is the length the buffer would have reached.
	Requested int
	// Capacity is the fixed capacity of the buffer.
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %s needs %d, capacity is %d", ErrCapacity, e.What, e.Requested, e.Capacity)
}

// Unwrap lets errors.Is match ErrCapacity.
func (e *CapacityError) Unwrap() error {
	return ErrCapacity
}
