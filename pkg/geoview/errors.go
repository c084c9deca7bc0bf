package geoview

import (
	"fmt"
)

// ErrConfiguration indicates an invalid option, element or call argument.
type ErrConfiguration struct {
	Field  string
	Reason string
}

func (e *ErrConfiguration) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// ErrProjectionFailure indicates a genuine transform error between two
// coordinate reference systems. An empty result is never a failure.
type ErrProjectionFailure struct {
	Src   string
	Dst   string
	Cause error
}

func (e *ErrProjectionFailure) Error() string {
	return fmt.Sprintf("projection from %s to %s failed: %v", e.Src, e.Dst, e.Cause)
}

func (e *ErrProjectionFailure) Unwrap() error {
	return e.Cause
}

// ErrUnsupportedGeometry indicates a geometry or element kind with no
// handler for the requested operation.
type ErrUnsupportedGeometry struct {
	Kind string
}

func (e *ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("unsupported geometry kind: %s", e.Kind)
}

// MaxDiagnosticCauses bounds the number of causes kept in Diagnostics.
const MaxDiagnosticCauses = 8

// Diagnostics reports records dropped during a best-effort operation.
// Dropped counts every drop; Causes keeps a sample of the reasons.
type Diagnostics struct {
	Dropped int
	Causes  []string
}

func (d *Diagnostics) drop(format string, args ...any) {
	d.Dropped++
	if len(d.Causes) < MaxDiagnosticCauses {
		d.Causes = append(d.Causes, fmt.Sprintf(format, args...))
	}
}
