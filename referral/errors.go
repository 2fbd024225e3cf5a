package referral

import "errors"

// Error codes surfaced verbatim to callers of the registration entry point.
// Validation outcomes are deterministic, so these are never retried.
const (
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeNotFound      = "NOT_FOUND"
	CodeInactive      = "INACTIVE"
	CodeSelfReferral  = "SELF_REFERRAL"
)

// ValidationError is a deterministic rejection of a submitted referral code
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrInvalidFormat rejects codes that do not match prefix + restricted alphabet
	ErrInvalidFormat = &ValidationError{Code: CodeInvalidFormat, Message: "referral code format is invalid"}
	// ErrCodeNotFound rejects codes with no owner mapping
	ErrCodeNotFound = &ValidationError{Code: CodeNotFound, Message: "referral code does not exist"}
	// ErrCodeInactive rejects deactivated codes
	ErrCodeInactive = &ValidationError{Code: CodeInactive, Message: "referral code is no longer active"}
	// ErrSelfReferral rejects codes owned by the registering user
	ErrSelfReferral = &ValidationError{Code: CodeSelfReferral, Message: "users cannot refer themselves"}
)

// ErrCodeExhausted means the generator could not find a free code within its
// retry bound. The whole registration is safe to re-invoke.
var ErrCodeExhausted = errors.New("exhausted attempts to generate a unique referral code")

// AsValidation unwraps err into a ValidationError if it is one
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
