package runtime

import "github.com/pisa-sim/pisa-sim/internal/pisasim/diag"

// Config controls a Runtime's register width, debug mode, hardware-model
// selection, and tracing, modeled on the teacher lineage's
// utils.Config/DefaultConfig/Validate shape.
type Config struct {
	// RegisterWidth is W, the Multi-Register width device slices are
	// partitioned into.
	RegisterWidth int
	// Debug enables the engine's stricter Montgomery-add precondition
	// checks.
	Debug bool
	// HardwareModel names the hwmodel.Registry entry the scheduler uses
	// when the caller asks for a performance report.
	HardwareModel string
	// Trace enables the Instruction Trace for the whole run.
	Trace bool
	// Parallelism bounds per-element goroutine fan-out; <=1 is sequential.
	Parallelism int
}

// DefaultConfig returns the canonical deployment configuration: W=8192,
// debug off, the "example" hardware model, tracing off, parallelism left
// to the caller (0, meaning sequential).
func DefaultConfig() *Config {
	return &Config{
		RegisterWidth: 8192,
		Debug:         false,
		HardwareModel: "example",
		Trace:         false,
		Parallelism:   0,
	}
}

// Validate checks that c describes a runnable configuration.
func (c *Config) Validate() error {
	if c.RegisterWidth <= 0 {
		return diag.New(diag.ErrUnsupportedConfiguration, "register width must be positive, got %d", c.RegisterWidth)
	}
	if c.HardwareModel == "" {
		return diag.New(diag.ErrUnsupportedConfiguration, "hardware model name must not be empty")
	}
	return nil
}

// Clone returns an independent copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
