package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestWriteAPIErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", validationError([]fieldError{{Field: "email", Message: "bad"}}), http.StatusBadRequest},
		{"conflict", conflictError("Username already exists."), http.StatusConflict},
		{"invalid credentials", invalidCredentialsError(), http.StatusBadRequest},
		{"configuration", configurationError("secret missing"), http.StatusInternalServerError},
		{"unexpected", unexpectedError("db down", errors.New("conn refused")), http.StatusInternalServerError},
		{"untyped error", errors.New("raw failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			writeAPIError(rr, req, tt.err)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
		})
	}
}

func TestWriteAPIErrorValidationListsFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	writeAPIError(rr, req, validationError([]fieldError{
		{Field: "email", Message: "must be at least 13 characters long"},
		{Field: "password", Message: "must be at least 5 characters long"},
	}))

	body := decodeErrorBody(t, rr)
	if body.Message != "Invalid Data" {
		t.Fatalf("message = %q", body.Message)
	}
	if len(body.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %v", body.Errors)
	}
}

func TestWriteAPIErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	writeAPIError(rr, req, unexpectedError("insert failed", errors.New("dial tcp 10.0.0.5:5432: connection refused")))

	body := decodeErrorBody(t, rr)
	if strings.Contains(body.Message, "10.0.0.5") || strings.Contains(body.Message, "insert failed") {
		t.Fatalf("internal detail leaked: %q", body.Message)
	}
	if body.Message != "An unexpected error occurred." {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := unexpectedError("wrapper", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
}
