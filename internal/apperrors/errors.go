package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes surfaced to API clients and job records.
const (
	CodeNotFound                = "NOT_FOUND"
	CodeNoAccessToken           = "NO_ACCESS_TOKEN"
	CodeDocumentNumberRequired  = "DOCUMENT_NUMBER_REQUIRED"
	CodeDuplicateDocumentNumber = "DUPLICATE_DOCUMENT_NUMBER"
	CodeInvoiceCreationFailed   = "INVOICE_CREATION_FAILED"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeFailedToSendEmail       = "FAILED_TO_SEND_EMAIL"
	CodeNoEmail                 = "NO_EMAIL"
	CodeInvalidAction           = "INVALID_ACTION"
	CodeInvalidInput            = "INVALID_INPUT"
)

// Error is an application error carrying an HTTP status and a machine
// readable code alongside the human message.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an application error.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// NotFound builds a 404 NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf(format, args...))
}

// BadRequest builds a 400 error with the given code.
func BadRequest(code, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Sprintf(format, args...))
}

// Internal builds a 500 error with the given code.
func Internal(code, format string, args ...any) *Error {
	return New(http.StatusInternalServerError, code, fmt.Sprintf(format, args...))
}

// From extracts the application error from err, wrapping unknown errors as
// 500 INTERNAL_ERROR so every failure has a status and a code.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(CodeInternalError, "%s", err.Error())
}

// CodeOf returns the machine code for err.
func CodeOf(err error) string {
	return From(err).Code
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	return From(err).Status
}
