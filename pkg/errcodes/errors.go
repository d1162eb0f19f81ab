package errcodes

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Codes for the failure classes surfaced by the notes core. Anything that
// isn't one of these is treated as unexpected and rendered as a 500.
const (
	CodeInvalidPath      = "invalid_path"
	CodeInvalidName      = "invalid_name"
	CodeInvalidExtension = "invalid_extension"
	CodeNotFound         = "not_found"
	CodeAlreadyExists    = "already_exists"
	CodeBinaryContent    = "binary_content"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// HasCode reports whether err (or anything it wraps) is an *Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// InvalidPath returns a 400 error for a path that is empty, attempts
// traversal, or resolves outside of the owner's root.
func InvalidPath(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		CodeInvalidPath,
	}
}

// InvalidName returns a 400 error for a file or folder name that fails the
// character rules.
func InvalidName(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		CodeInvalidName,
	}
}

// InvalidExtension returns a 400 error for a write to a non-markdown file.
func InvalidExtension() error {
	return &Error{
		http.StatusBadRequest,
		"File must have .md extension.",
		CodeInvalidExtension,
	}
}

// BinaryContent returns a 415 error for a write whose content isn't text.
func BinaryContent(mime string) error {
	return &Error{
		http.StatusUnsupportedMediaType,
		fmt.Sprintf("Content must be text, got %s.", mime),
		CodeBinaryContent,
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

// AlreadyExists returns a 409 error indicating the given resource is already
// present at the destination.
func AlreadyExists(resource string) error {
	return &Error{
		http.StatusConflict,
		resource + " already exists.",
		CodeAlreadyExists,
	}
}

func Unauthorized(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		"unauthorized",
	}
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		http.StatusForbidden,
		action + " is not allowed.",
		"forbidden",
	}
}

func TooManyRequests() error {
	return &Error{
		http.StatusTooManyRequests,
		"Too many requests.",
		"too_many_requests",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}
