package glidepath

import (
	"errors"
	"fmt"
	"math"
)

// DomainError reports an input outside the domain where the glide path line is defined
type DomainError struct {
	Op     string  // operation that rejected the input
	Param  string  // offending parameter
	Value  float64 // offending value
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("glidepath: %s: %s=%v: %s", e.Op, e.Param, e.Value, e.Reason)
}

// IsDomainError reports whether err (or anything it wraps) is a *DomainError
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

func checkFinite(op, param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DomainError{Op: op, Param: param, Value: v, Reason: "must be finite"}
	}
	return nil
}

// checkResult rejects results that overflowed even though every input was finite
func checkResult(op string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DomainError{Op: op, Param: "result", Value: v, Reason: "overflows"}
	}
	return v, nil
}
