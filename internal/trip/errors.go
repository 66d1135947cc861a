package trip

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification attached to every
// user-visible failure.
type ErrorKind string

const (
	KindCityNotFound        ErrorKind = "CITY_NOT_FOUND"
	KindPOIDataInsufficient ErrorKind = "POI_DATA_INSUFFICIENT"
	KindEditValidation      ErrorKind = "EDIT_VALIDATION"
	KindSessionNotFound     ErrorKind = "SESSION_NOT_FOUND"
	KindCollaboratorTimeout ErrorKind = "COLLABORATOR_TIMEOUT"
	KindEvaluation          ErrorKind = "EVALUATION_FAILED"
)

// Error is a classified failure. Recoverable kinds are downgraded to warnings
// by the orchestrator; SESSION_NOT_FOUND and EVALUATION_FAILED abort the turn.
type Error struct {
	Kind        ErrorKind
	Message     string
	Suggestions []string // alternative cities for CITY_NOT_FOUND
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Recoverable reports whether the orchestrator may downgrade the error to a
// warning instead of aborting the turn.
func (e *Error) Recoverable() bool {
	return e.Kind != KindSessionNotFound && e.Kind != KindEvaluation
}

// NewCityNotFound reports a city with no POI data, with alternatives to suggest.
func NewCityNotFound(city string, suggestions []string) *Error {
	return &Error{
		Kind:        KindCityNotFound,
		Message:     fmt.Sprintf("no place data found for %q", city),
		Suggestions: suggestions,
	}
}

// NewPOIDataInsufficient reports fewer POIs than the pace requires.
func NewPOIDataInsufficient(city string, have, want int) *Error {
	return &Error{
		Kind:    KindPOIDataInsufficient,
		Message: fmt.Sprintf("limited data available for city %s: found %d places, wanted %d", city, have, want),
	}
}

// NewEditValidation reports an edit whose result diverged outside its locator.
func NewEditValidation(msg string) *Error {
	return &Error{Kind: KindEditValidation, Message: msg}
}

// NewSessionNotFound reports an unknown or expired session id.
func NewSessionNotFound(id string) *Error {
	return &Error{Kind: KindSessionNotFound, Message: fmt.Sprintf("session %s not found or expired", id)}
}

// NewCollaboratorTimeout wraps a timed-out collaborator call.
func NewCollaboratorTimeout(name string, err error) *Error {
	return &Error{Kind: KindCollaboratorTimeout, Message: fmt.Sprintf("%s did not answer in time", name), Err: err}
}

// NewEvaluationError reports an evaluator that itself failed to run.
func NewEvaluationError(name string, err error) *Error {
	return &Error{Kind: KindEvaluation, Message: fmt.Sprintf("%s evaluator failed", name), Err: err}
}

// KindOf extracts the ErrorKind from err, or empty when err is unclassified.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
