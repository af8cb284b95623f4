// register.go - User registration handler.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// registerRequest represents the JSON payload for user registration.
type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// registerResponse is the created identity record. The credential hash is
// never echoed back.
type registerResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// registerHandler handles POST /register. Validation short-circuits before
// any store access. The pre-insert lookup exists to pick the friendlier
// conflict message; a concurrent insert that slips past it is still caught
// by the unique indexes and mapped to the same 409.
func (cfg Config) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, r, validationError([]fieldError{{Field: "body", Message: "must be valid JSON"}}))
			return
		}

		req.Email = trimmed(req.Email)
		req.Username = trimmed(req.Username)
		req.Password = trimmed(req.Password)

		if errs := validateRegisterInput(req.Email, req.Username, req.Password); len(errs) > 0 {
			writeAPIError(w, r, validationError(errs))
			return
		}

		// Fast path: report which field collides. Username is checked first.
		existing, err := cfg.Users.FindByUsernameOrEmail(r.Context(), req.Username, req.Email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			writeAPIError(w, r, unexpectedError("registration lookup failed", err))
			return
		}
		if existing != nil {
			if existing.Username == req.Username {
				writeAPIError(w, r, conflictError("Username already exists."))
			} else {
				writeAPIError(w, r, conflictError("Email already exists."))
			}
			return
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			writeAPIError(w, r, unexpectedError("password hashing failed", err))
			return
		}

		user, err := cfg.Users.Create(r.Context(), req.Email, req.Username, hash)
		if err != nil {
			switch {
			case errors.Is(err, ErrDuplicateUsername):
				writeAPIError(w, r, conflictError("Username already exists."))
			case errors.Is(err, ErrDuplicateEmail):
				writeAPIError(w, r, conflictError("Email already exists."))
			default:
				writeAPIError(w, r, unexpectedError("user creation failed", err))
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(registerResponse{
			ID:       user.ID.String(),
			Email:    user.Email,
			Username: user.Username,
		})
	}
}
