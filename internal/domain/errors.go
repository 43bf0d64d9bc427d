package domain

import (
	"errors"
	"fmt"
)

// ClassificationError reports that a profile could not be mapped to a
// persona: missing features, out-of-range values, or no active personas.
type ClassificationError struct {
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

// NewClassificationError creates a ClassificationError.
func NewClassificationError(reason string) *ClassificationError {
	return &ClassificationError{Reason: reason}
}

// EmptyUniverseError reports that an asset class with non-zero target
// weight has no eligible funds. Dropping the class silently would
// misrepresent the promised allocation, so callers always see this.
type EmptyUniverseError struct {
	AssetClass AssetClass
}

func (e *EmptyUniverseError) Error() string {
	return fmt.Sprintf("no eligible funds for asset class %q", e.AssetClass)
}

// NewEmptyUniverseError creates an EmptyUniverseError for an asset class.
func NewEmptyUniverseError(ac AssetClass) *EmptyUniverseError {
	return &EmptyUniverseError{AssetClass: ac}
}

// InfeasibleConstraintsError reports that the rebalancer cannot reach
// the target allocation within tolerance under the given constraints.
type InfeasibleConstraintsError struct {
	AssetClass AssetClass
	Reason     string
}

func (e *InfeasibleConstraintsError) Error() string {
	if e.AssetClass != "" {
		return fmt.Sprintf("infeasible constraints for asset class %q: %s", e.AssetClass, e.Reason)
	}
	return fmt.Sprintf("infeasible constraints: %s", e.Reason)
}

// NewInfeasibleConstraintsError creates an InfeasibleConstraintsError.
func NewInfeasibleConstraintsError(ac AssetClass, reason string) *InfeasibleConstraintsError {
	return &InfeasibleConstraintsError{AssetClass: ac, Reason: reason}
}

// ValidationError reports malformed input: allocation vectors that
// cannot be normalized, negative weights, or bad field values.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsClassificationError reports whether err is a ClassificationError.
func IsClassificationError(err error) bool {
	var target *ClassificationError
	return errors.As(err, &target)
}

// IsEmptyUniverseError reports whether err is an EmptyUniverseError.
func IsEmptyUniverseError(err error) bool {
	var target *EmptyUniverseError
	return errors.As(err, &target)
}

// IsInfeasibleConstraintsError reports whether err is an InfeasibleConstraintsError.
func IsInfeasibleConstraintsError(err error) bool {
	var target *InfeasibleConstraintsError
	return errors.As(err, &target)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
