package types

import "errors"

var (
	// ErrInvalidConfig is returned when a run is started with an unusable configuration
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrOutOfBounds is returned when the start, key or goal lies outside the grid
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrNoEnvironment is returned when no grid provider was supplied
	ErrNoEnvironment = errors.New("grid provider not supplied")
	// ErrInvalidGrid is returned when the grid has no cells
	ErrInvalidGrid = errors.New("invalid grid size")
	// ErrRunInProgress is returned when a run is started while another one is active
	ErrRunInProgress = errors.New("training run already in progress")
)
