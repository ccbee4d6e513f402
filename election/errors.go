package election

import "errors"

// Sentinel errors for the election subsystem's error taxonomy. All are fatal only to
// the offending transaction, never to the containing block — callers
// decide how to react to errors.Is matches, package election never panics
// on bad input.
var (
	ErrInvalidSchema        = errors.New("election: invalid schema")
	ErrInvalidSignature     = errors.New("election: invalid signature")
	ErrMultipleInputs       = errors.New("election: multiple inputs or signers")
	ErrInvalidProposer      = errors.New("election: proposer is not a validator")
	ErrUnequalValidatorSet  = errors.New("election: outputs do not mirror the validator set")
	ErrDuplicateTransaction = errors.New("election: duplicate transaction id")
	ErrInvalidElectionID    = errors.New("election: id is not valid hex")
	ErrNotImplemented       = errors.New("election: subtype is missing an on-approval hook")
	ErrUnknownOperation     = errors.New("election: no catalogue entry for operation")
)
