package app

import (
	"errors"

	"gapnode/modules"
)

var (
	ErrFlowLocked         = errors.New("flow type can only be chosen on the first step of a new submission")
	ErrFlowUnset          = errors.New("flow type must be grant or program")
	ErrFirstStep          = errors.New("already at the first step")
	ErrLastStep           = errors.New("already at the last step")
	ErrIncomplete         = errors.New("wizard is not on its last step")
	ErrUnknownProgram     = errors.New("program does not belong to the selected community")
	ErrUnknownTrack       = errors.New("track does not belong to the selected program")
	ErrUnknownQuestion    = errors.New("question does not belong to the selected program")
	ErrMilestonesInvalid  = errors.New("every milestone must be saved before submitting")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrDuplicate          = errors.New("an equivalent grant already exists for this project")
	ErrNetworkMismatch    = errors.New("network mismatch")
	ErrSignatureRejected  = errors.New("signature rejected")
	ErrSubmission         = errors.New("submission failed")
	ErrIndexingTimeout    = errors.New("record not indexed in time")
)

// UserMessage turns any error returned by the wizard into text for the person filling it in.
func UserMessage(err error, flow modules.FlowType) string {
	var validationErr *modules.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return "Please check " + validationErr.Field + ": " + validationErr.Reason + "."
	case errors.Is(err, ErrDuplicate):
		return "This project already has an equivalent grant."
	case errors.Is(err, ErrMilestonesInvalid):
		return "Save or remove every milestone before submitting."
	case errors.Is(err, ErrSubmissionInFlight):
		return "A submission is already in progress."
	case errors.Is(err, ErrNetworkMismatch):
		return "Your wallet could not switch to the network this community uses."
	case errors.Is(err, ErrSignatureRejected):
		return "You declined to sign the transaction, nothing was submitted."
	case errors.Is(err, ErrIndexingTimeout):
		return "Your submission was sent but is taking longer than usual to show up."
	default:
		return flow.FailureMessage()
	}
}
