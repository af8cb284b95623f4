// errors.go - Tagged error kinds for the HTTP boundary.
//
// Every handler failure is classified into one of the kinds below and
// written by a single helper, so the wire shape never depends on which
// code path produced the failure.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type errorKind int

const (
	errKindValidation errorKind = iota
	errKindConflict
	errKindInvalidCredentials
	errKindConfiguration
	errKindUnexpected
)

// invalidCredentialsMessage is deliberately the same for unknown users and
// wrong passwords so the response cannot be used for account enumeration.
const invalidCredentialsMessage = "Invalid credentials. Please try again."

// fieldError reports a single failed input constraint.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// apiError carries the error kind across handler code until it reaches
// writeAPIError at the response boundary.
type apiError struct {
	kind    errorKind
	message string
	fields  []fieldError
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func validationError(fields []fieldError) *apiError {
	return &apiError{kind: errKindValidation, message: "Invalid Data", fields: fields}
}

func conflictError(message string) *apiError {
	return &apiError{kind: errKindConflict, message: message}
}

func invalidCredentialsError() *apiError {
	return &apiError{kind: errKindInvalidCredentials, message: invalidCredentialsMessage}
}

func configurationError(message string) *apiError {
	return &apiError{kind: errKindConfiguration, message: message}
}

func unexpectedError(message string, cause error) *apiError {
	return &apiError{kind: errKindUnexpected, message: message, cause: cause}
}

func (e *apiError) status() int {
	switch e.kind {
	case errKindValidation, errKindInvalidCredentials:
		return http.StatusBadRequest
	case errKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the JSON body for failed requests. Errors is present only
// for validation failures, listing each violated field constraint.
type errorResponse struct {
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

// writeAPIError maps err to its HTTP status and JSON body. Errors that are
// not apiError values (driver faults, broken pipes) are treated as
// unexpected: logged with the request id, reported to the caller with a
// generic message only.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	if !errors.As(err, &ae) {
		ae = unexpectedError("An unexpected error occurred.", err)
	}

	if ae.kind == errKindUnexpected || ae.kind == errKindConfiguration {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s method=%s path=%s msg=request_failed err=%v", rid, r.Method, r.URL.Path, err)
	}

	body := errorResponse{Message: ae.message, Errors: ae.fields}
	if ae.kind == errKindUnexpected {
		// Never leak internal failure detail.
		body = errorResponse{Message: "An unexpected error occurred."}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.status())
	_ = json.NewEncoder(w).Encode(body)
}
