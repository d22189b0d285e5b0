package apperr

type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeValidation   Code = "VALIDATION"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInvalidState Code = "INVALID_STATE"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTransient    Code = "TRANSIENT"
)
