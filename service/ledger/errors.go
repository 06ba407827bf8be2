package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when a transaction kind is not burn, mint or transfer.
	ErrUnknownKind = errors.New("unknown transaction kind")

	// ErrMissingPayload is returned when the kind names a payload the record does not carry.
	ErrMissingPayload = errors.New("missing transaction payload")

	// ErrNestedDelegation is returned when an archive reply delegates further.
	ErrNestedDelegation = errors.New("nested archive delegation")
)

// UnknownKindError carries the unrecognized kind string.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown kind %s", e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownKind }

// MissingPayloadError reports a record whose kind has no matching payload.
type MissingPayloadError struct {
	Kind Kind
}

func (e *MissingPayloadError) Error() string {
	return fmt.Sprintf("kind %s without %s payload", e.Kind, e.Kind)
}

func (e *MissingPayloadError) Unwrap() error { return ErrMissingPayload }

// QueryError wraps a failed ledger or archive query with the endpoint it targeted.
type QueryError struct {
	Canister string
	Method   string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("error while calling %s.%s: %v", e.Canister, e.Method, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
