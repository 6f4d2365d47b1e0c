package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Pipeline error kinds, wrapped with %w so callers can match via errors.Is.
	ErrClassification = errors.New("classification failed")
	ErrEmbedding      = errors.New("embedding failed")
	ErrStoreWrite     = errors.New("vector store write failed")
	ErrUnknownTenant  = errors.New("unknown tenant")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUnknownTenant(err error) bool {
	return errors.Is(err, ErrUnknownTenant)
}
