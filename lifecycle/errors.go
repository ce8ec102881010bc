package lifecycle

import "errors"

// Error taxonomy surfaced to callers. Controllers map these onto HTTP
// status codes; none of them are retried automatically.
var (
	// ErrUnauthorized: caller is neither a party to the collaboration nor admin.
	ErrUnauthorized = errors.New("caller is not authorized for this collaboration")

	// ErrInvalidState: requested transition is not legal from the current status.
	ErrInvalidState = errors.New("transition is not allowed from the current status")

	// ErrPreconditionFailed: transition is legal but a guard failed,
	// e.g. mark-complete with no deliverables.
	ErrPreconditionFailed = errors.New("transition precondition not met")

	// ErrNotFound: collaboration id does not resolve.
	ErrNotFound = errors.New("collaboration not found")

	// ErrUpstreamFailure: the contract or payment collaborator errored
	// before any state was written.
	ErrUpstreamFailure = errors.New("upstream provider error")

	// ErrConflict: the conditional status write matched zero rows, i.e.
	// another request transitioned the collaboration first.
	ErrConflict = errors.New("collaboration was modified concurrently")
)
