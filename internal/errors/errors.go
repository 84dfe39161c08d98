package errors

import "errors"

// Code identifies a structured error type used across the application.
type Code string

const (
	// Generic codes
	CodeUnknown Code = "unknown"

	// Retrieval errors
	CodeTransport      Code = "transport"
	CodeHTTP           Code = "http"
	CodeDownloadFailed Code = "download_failed"
	CodeAssetNotFound  Code = "asset_not_found"
	CodeParseFailed    Code = "parse_failed"

	// Local errors
	CodeConfigurationError    Code = "configuration_error"
	CodeConfirmationAmbiguous Code = "confirmation_ambiguous"
	CodeInstallFailed         Code = "install_failed"
	CodeHostVersion           Code = "host_version"
)

// Exit statuses reported by the command line tool.
const (
	ExitOK        = 0
	ExitDeclined  = 1
	ExitTransport = 2
	ExitHTTP      = 3
	ExitFailure   = 4
)

// Error represents a structured error with a machine-readable code plus message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ExitCode maps an error to the process exit status. A nil error is ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CodeOf(err) {
	case CodeTransport:
		return ExitTransport
	case CodeHTTP:
		return ExitHTTP
	case CodeConfirmationAmbiguous:
		return ExitDeclined
	default:
		return ExitFailure
	}
}
