package pika

import "fmt"

// ConfigError reports malformed construction inputs, e.g. mismatched value
// and mask lengths or incompatible continuity masks. It is always raised at
// construction time, never deferred.
type ConfigError struct {
	msg string
}

func (e ConfigError) Error() string { return e.msg }

func configErrorf(format string, a ...interface{}) ConfigError {
	return ConfigError{fmt.Sprintf(format, a...)}
}

// DimensionError reports a vector or matrix size mismatch during extraction,
// differential-equation evaluation, or Jacobian placement.
type DimensionError struct {
	msg string
}

func (e DimensionError) Error() string { return e.msg }

func dimErrorf(format string, a ...interface{}) DimensionError {
	return DimensionError{fmt.Sprintf(format, a...)}
}

// LookupError reports an unknown index, e.g. a body index outside a model's
// primaries or an unregistered variable that was assumed present.
type LookupError struct {
	msg string
}

func (e LookupError) Error() string { return e.msg }

func lookupErrorf(format string, a ...interface{}) LookupError {
	return LookupError{fmt.Sprintf(format, a...)}
}

// NotFoundError reports a missing named entity, e.g. an unknown body name in
// the data file. Requesting a missing name is a hard failure, not a zero value.
type NotFoundError struct {
	msg string
}

func (e NotFoundError) Error() string { return e.msg }

func notFoundErrorf(format string, a ...interface{}) NotFoundError {
	return NotFoundError{fmt.Sprintf(format, a...)}
}
