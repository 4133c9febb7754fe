// Package errs provides standardized error types for the dental lab order service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError: a required value is missing
//   - ValueIsInvalidError: a value is malformed
//   - ValueIsOutOfRangeError: a numeric value lies outside its bounds
//   - ObjectNotFoundError: an object does not exist or is outside the caller's scope
//   - IllegalTransitionError: a role may not move an order between two statuses
//   - VersionIsInvalidError: a concurrent writer changed the row first
//
// Each error type follows the same shape: a sentinel error variable, a struct with
// the details, constructors with and without a cause, an Error method and an Unwrap
// method returning the sentinel so callers can use errors.Is.
package errs
