package contracts

import "errors"

var (
	// ErrComputationFailed is returned when the datastore could not be queried
	// or the request context ended before the computation completed.
	ErrComputationFailed = errors.New("computation failed")

	// ErrScoreIntegrity is returned when a score total exceeds the 100 point cap
	ErrScoreIntegrity = errors.New("score integrity violation")

	// ErrNotFound is returned for unknown industries, sectors and companies
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed identifiers
	ErrInvalidArgument = errors.New("invalid argument")
)
