// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package driver

// Severity classifies an error report's impact on the frame.
type Severity int

// Severities.
const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "undefined severity"
	}
}

// Kind taxonomizes the error's source, per spec §7.
type Kind int

// Error kinds.
const (
	// BadTexture: missing/unreadable texture file.
	// Policy: substitute a dummy sampler; warn.
	BadTexture Kind = iota
	// BadPrimitive: degenerate geometry.
	// Policy: discard the primitive; warn.
	BadPrimitive
	// NonManifoldMesh: invalid subdivision input.
	// Policy: fatal for that primitive; discard.
	NonManifoldMesh
	// EyeSplitOverflow: a primitive straddled the near plane
	// too many times.
	// Policy: discard the primitive; warn.
	EyeSplitOverflow
	// ShaderEvalFault: a shader raised an exception.
	// Policy: default value; warn; grid continues.
	ShaderEvalFault
	// OptionsConflict: incompatible OptionSet values.
	// Policy: fall back to defaults; warn.
	OptionsConflict
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case BadTexture:
		return "bad texture"
	case BadPrimitive:
		return "bad primitive"
	case NonManifoldMesh:
		return "non-manifold mesh"
	case EyeSplitOverflow:
		return "eye split overflow"
	case ShaderEvalFault:
		return "shader eval fault"
	case OptionsConflict:
		return "options conflict"
	default:
		return "undefined kind"
	}
}

// ErrorHandler is the single sink all render-time faults are
// routed through. Only Fatal aborts the frame; every other
// severity lets the frame continue with partial output.
type ErrorHandler func(sev Severity, kind Kind, reason string)

// Discard is an ErrorHandler that reports nothing. It is useful
// in tests and as a safe zero value.
func Discard(Severity, Kind, string) {}
