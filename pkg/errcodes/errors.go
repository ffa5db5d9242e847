package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
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

// Unauthorized returns a 401 error with the given message.
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

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

// Unavailable returns a 409 error indicating the book has no copies left to
// borrow.
func Unavailable(title string) error {
	return &Error{
		http.StatusConflict,
		fmt.Sprintf("No copies of %q are available right now.", title),
		"unavailable",
	}
}

// AlreadyBorrowed returns a 409 error indicating the caller already has an
// active loan for the book.
func AlreadyBorrowed() error {
	return &Error{
		http.StatusConflict,
		"You already have this book borrowed.",
		"already_borrowed",
	}
}

// AlreadyReturned returns a 409 error indicating the borrowing was already
// returned.
func AlreadyReturned() error {
	return &Error{
		http.StatusConflict,
		"This book has already been returned.",
		"already_returned",
	}
}

// AlreadyReserved returns a 409 error indicating the caller already has an
// active reservation for the book.
func AlreadyReserved() error {
	return &Error{
		http.StatusConflict,
		"You already have a reservation for this book.",
		"already_reserved",
	}
}

// BookAvailable returns a 409 error indicating a reservation was attempted
// for a book that still has copies available.
func BookAvailable() error {
	return &Error{
		http.StatusConflict,
		"This book is currently available. Borrow it instead.",
		"book_available",
	}
}

// InvalidRating returns a 422 error indicating the review rating is outside
// the accepted range.
func InvalidRating() error {
	return &Error{
		http.StatusUnprocessableEntity,
		"Rating must be between 1 and 5.",
		"invalid_rating",
	}
}

// ScannerUnavailable returns a 503 error indicating no barcode decoder is
// configured in this deployment.
func ScannerUnavailable() error {
	return &Error{
		http.StatusServiceUnavailable,
		"Barcode scanning is not available in this deployment.",
		"scanner_unavailable",
	}
}

// NoCodeDetected returns a 422 error indicating the uploaded frame contained
// no readable barcode.
func NoCodeDetected() error {
	return &Error{
		http.StatusUnprocessableEntity,
		"No barcode detected. Try again.",
		"no_code_detected",
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
