package moderation

import "errors"

var (
	// ErrCaseNotFound indicates the referenced case does not exist in the store.
	ErrCaseNotFound = errors.New("case not found")
	// ErrInvalidState indicates an operation precondition was violated, such as
	// pardoning an inactive case or scheduling a non-expirable type.
	ErrInvalidState = errors.New("case is not in a valid state for this operation")
	// ErrInvariantViolation indicates an attempt to change an immutable field
	// or the job handle without the override flag.
	ErrInvariantViolation = errors.New("case invariant violation")
	// ErrInvalidExpiration indicates the proposed expiration is not strictly
	// in the future.
	ErrInvalidExpiration = errors.New("expiration must be in the future")
	// ErrNotPardonable indicates the case type has no reversal mapping.
	ErrNotPardonable = errors.New("case type cannot be pardoned")
	// ErrLiveTimeoutUpdate indicates the platform-side timeout update failed
	// after the case record was already persisted. The stored case is the
	// durable intent; the live effect can be reconciled later.
	ErrLiveTimeoutUpdate = errors.New("live timeout update failed")
)
