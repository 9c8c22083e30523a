package errors

import "fmt"

// ErrorCode represents a Kinsfolk error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrMissingCredential ErrorCode = "MISSING_CREDENTIAL" // 401
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrConflict          ErrorCode = "CONFLICT"           // 409
	ErrGenerationFailed  ErrorCode = "GENERATION_FAILED"  // 502
	ErrNoImageProduced   ErrorCode = "NO_IMAGE_PRODUCED"  // 502
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// KinError represents a structured error with code, status, and details.
type KinError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *KinError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *KinError {
	return &KinError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewMissingCredential creates a 401 error for when no AI credential is
// resolvable. Surfaced distinctly so callers can route the user to
// credential entry instead of showing a generic failure.
func NewMissingCredential() *KinError {
	return &KinError{
		Code:    ErrMissingCredential,
		Status:  401,
		Message: "no AI credential configured; add one in settings or set GEMINI_API_KEY",
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *KinError {
	return &KinError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for rejected duplicate work, e.g. a
// second send while a chat reply is still pending.
func NewConflict(msg string) *KinError {
	return &KinError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewGenerationFailed creates a 502 error for a failed backend call.
// The message is always a safe generic string; raw backend error text
// must never be passed in here.
func NewGenerationFailed(kind string) *KinError {
	return &KinError{
		Code:    ErrGenerationFailed,
		Status:  502,
		Message: fmt.Sprintf("the %s request could not be completed; please try again", kind),
		Details: map[string]any{"kind": kind},
	}
}

// NewNoImageProduced creates a 502 error for when the backend succeeded
// but returned zero images. Treated as a generation failure for display.
func NewNoImageProduced() *KinError {
	return &KinError{
		Code:    ErrNoImageProduced,
		Status:  502,
		Message: "no image was produced; please try a different prompt",
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *KinError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &KinError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a KinError with the given code.
func Is(err error, code ErrorCode) bool {
	if kErr, ok := err.(*KinError); ok {
		return kErr.Code == code
	}
	return false
}

// IsGenerationFailure reports whether err is a generation failure of any
// kind, including the zero-images case.
func IsGenerationFailure(err error) bool {
	return Is(err, ErrGenerationFailed) || Is(err, ErrNoImageProduced)
}
