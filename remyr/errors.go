package remyr

import "errors"

var (
	// ErrSchemaViolation reports a trace or training record with missing keys,
	// wrong types, or misaligned series.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrEmptySeries reports a statistic requested over zero present samples.
	ErrEmptySeries = errors.New("empty series")

	// ErrZeroVariance reports a series whose present samples are all equal.
	ErrZeroVariance = errors.New("zero variance")

	// ErrDivideByZero reports an elementwise inversion hitting an exact zero.
	ErrDivideByZero = errors.New("divide by zero")

	// ErrRunFailure reports a trainer invocation that did not exit cleanly.
	ErrRunFailure = errors.New("run failure")

	// ErrPathCollision reports two planned runs resolving to the same output path.
	ErrPathCollision = errors.New("path collision")

	// ErrNoActiveFlows reports a utility evaluation over zero flows.
	ErrNoActiveFlows = errors.New("no active flows")

	// ErrInvalidParameter reports a malformed delta, namespace or direction.
	ErrInvalidParameter = errors.New("invalid parameter")
)
