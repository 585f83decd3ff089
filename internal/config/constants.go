// Package config holds process-wide tunables, mirroring funvibe-funxy's
// internal/config/constants.go: plain exported constants and vars rather
// than a parsed configuration file, since every one of these is a
// compile-time engineering knob, not something end users edit.
package config

// MaxIncludeDepth is the render-depth ceiling used by `include`, which
// shares the caller's scope and so is the tighter of the two limits
// (§4.5 "Render-depth counter enforces a nesting limit...
// strict-mode threshold used by include, looser by render").
const MaxIncludeDepth = 32

// MaxRenderDepth is the render-depth ceiling used by `render`, which
// allocates a fresh isolated scope per call.
const MaxRenderDepth = 64

// InitialStackSize is the VM operand stack's starting capacity.
const InitialStackSize = 256

// StackGrowthIncrement is how much the operand stack grows by once
// InitialStackSize is exceeded.
const StackGrowthIncrement = 256

// PassSpecEnvVar is the environment variable consulted by
// internal/optimizer for the pass-selection DSL (§6 "External
// Interfaces").
const PassSpecEnvVar = "LIQUIDIL_PASSES"

// DefaultRenderErrors controls whether recoverable runtime errors are
// rendered inline as "Liquid error (...)" text (true, the default) or
// raised to the caller as a RuntimeError (false, strict mode).
const DefaultRenderErrors = true
