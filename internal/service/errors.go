package service

// ErrorKind classifies a workflow failure; the handler layer owns the
// single mapping from kind to HTTP status.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindDuplicate
	KindAuthentication
	KindUnauthenticated
	KindInternal
)

// Error codes surfaced in the response envelope.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeIllegalArgument = "ILLEGAL_ARGUMENT"
	CodeUsernameExists  = "USERNAME_EXISTS"
	CodeEmailExists     = "EMAIL_EXISTS"
	CodeAuthFailed      = "AUTHENTICATION_FAILED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeInternalError   = "INTERNAL_SERVER_ERROR"
)

type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	// Fields carries per-field messages for KindValidation failures.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func newValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidationError,
		Message: "Validation failed",
		Fields:  fields,
	}
}

func newIllegalArgumentError(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeIllegalArgument, Message: message}
}

func newDuplicateError(code, message string) *Error {
	return &Error{Kind: KindDuplicate, Code: code, Message: message}
}

func newAuthError(message string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeAuthFailed, Message: message}
}

func ErrUnauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Code: CodeUnauthenticated, Message: "Authentication required"}
}

func newInternalError(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    CodeInternalError,
		Message: "An unexpected error occurred. Please try again later.",
		cause:   cause,
	}
}
