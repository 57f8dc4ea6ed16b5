package dynamo

import "errors"

// Domain errors for simulation and configuration operations.
var (
	// ErrInvalidCapacity indicates a trail buffer was requested with a non-positive capacity.
	ErrInvalidCapacity = errors.New("dynamo: trail capacity must be positive")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name the system does not expose.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrUnknownPreset indicates a preset name that is not registered.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrUnknownPalette indicates a color palette key that is not registered.
	ErrUnknownPalette = errors.New("dynamo: unknown palette")

	// ErrUnknownIntegrator indicates an integrator name that is not registered.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrInvalidSpeed indicates a speed outside the selectable set.
	ErrInvalidSpeed = errors.New("dynamo: unsupported speed")

	// ErrInvalidMaxPoints indicates a trail length outside the selectable set.
	ErrInvalidMaxPoints = errors.New("dynamo: unsupported max points")

	// ErrRunNotFound indicates a saved run id with no metadata on disk.
	ErrRunNotFound = errors.New("dynamo: run not found")
)
