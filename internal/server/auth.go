// auth.go - Credential hashing, token issuance, and the login handler.
//
// Tokens are HS256 JWTs carrying the identity claims {userId, email,
// username}, signed with a server-held secret and delivered via the
// "token" cookie.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for credential hashing.
const bcryptCost = 10

// AuthConfig holds the signing secret, token lifetime, and the identity
// store used by the login handler and the requireAuth middleware.
type AuthConfig struct {
	// Secret signs and verifies tokens. An empty secret fails each login
	// with a configuration error rather than crashing the process.
	Secret string
	// TokenTTL bounds token lifetime. Zero issues tokens without an
	// expiry claim.
	TokenTTL   time.Duration
	CookieName string
	Users      UserStore
}

func (a AuthConfig) cookieName() string {
	if a.CookieName == "" {
		return "token"
	}
	return a.CookieName
}

// Claims are the token claims for an authenticated identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// hashPassword computes the bcrypt hash of a plaintext credential.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword reports whether password matches the stored bcrypt hash.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// issueToken signs a token for u. The exp claim is set only when a TTL is
// configured; without one the token does not expire.
func (a AuthConfig) issueToken(u *User) (string, error) {
	claims := Claims{
		UserID:   u.ID.String(),
		Email:    u.Email,
		Username: u.Username,
	}
	if a.TokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(a.TokenTTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.Secret))
}

// verifyToken parses and validates a signed token, returning its claims.
// Expiry is enforced whenever the exp claim is present.
func (a AuthConfig) verifyToken(tok string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler handles POST /login. The username field accepts either a
// username or an email address. Lookup misses and hash mismatches produce
// byte-identical responses so callers cannot probe for existing accounts.
func (a AuthConfig) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, r, validationError([]fieldError{{Field: "body", Message: "must be valid JSON"}}))
			return
		}

		req.Username = trimmed(req.Username)
		req.Password = trimmed(req.Password)

		if errs := validateLoginInput(req.Username, req.Password); len(errs) > 0 {
			writeAPIError(w, r, validationError(errs))
			return
		}

		user, err := a.Users.FindByLogin(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				writeAPIError(w, r, invalidCredentialsError())
				return
			}
			writeAPIError(w, r, unexpectedError("login lookup failed", err))
			return
		}

		if !verifyPassword(req.Password, user.PasswordHash) {
			writeAPIError(w, r, invalidCredentialsError())
			return
		}

		if a.Secret == "" {
			writeAPIError(w, r, configurationError("Signing secret is not configured. Please contact the administrator."))
			return
		}

		tok, err := a.issueToken(user)
		if err != nil {
			writeAPIError(w, r, unexpectedError("token signing failed", err))
			return
		}

		cookie := &http.Cookie{
			Name:     a.cookieName(),
			Value:    tok,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if a.TokenTTL > 0 {
			cookie.Expires = time.Now().Add(a.TokenTTL)
		}
		http.SetCookie(w, cookie)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Login successful! You can now access your dashboard."))
	}
}

// requireAuth rejects requests without a valid token cookie.
func (a AuthConfig) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(a.cookieName())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := a.verifyToken(c.Value); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser extracts the authenticated identity claims from the token
// cookie, for handlers that need to attribute actions to a user.
func (a AuthConfig) currentUser(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(a.cookieName())
	if err != nil {
		return nil, errors.New("no token cookie")
	}
	return a.verifyToken(c.Value)
}
