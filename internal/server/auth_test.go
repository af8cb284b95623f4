package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testUser(t *testing.T, username, email, password string) *User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	return &User{ID: uuid.New(), Email: email, Username: username, PasswordHash: hash}
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("secret1")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash equals plaintext")
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("expected bcrypt cost 10 hash, got %q", hash)
	}
	if !verifyPassword("secret1", hash) {
		t.Fatal("correct password rejected")
	}
	if verifyPassword("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	cfg := AuthConfig{Secret: "test-secret"}

	tok, err := cfg.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	claims, err := cfg.verifyToken(tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if claims.UserID != u.ID.String() || claims.Email != u.Email || claims.Username != u.Username {
		t.Fatalf("claims = %+v, want identity of %+v", claims, u)
	}
	if claims.ExpiresAt != nil {
		t.Fatal("expected no expiry claim without a TTL")
	}
}

func TestIssueTokenWithTTL(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	cfg := AuthConfig{Secret: "test-secret", TokenTTL: time.Hour}

	tok, err := cfg.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	claims, err := cfg.verifyToken(tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expected future expiry, got %v", claims.ExpiresAt)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	cfg := AuthConfig{Secret: "test-secret", TokenTTL: -time.Hour}

	tok, err := cfg.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if _, err := cfg.verifyToken(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	tok, err := AuthConfig{Secret: "secret-a"}.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if _, err := (AuthConfig{Secret: "secret-b"}).verifyToken(tok); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestLoginHandlerSuccess(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{users: []*User{u}}}

	rr := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "alice123", Password: "secret1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Login successful") {
		t.Fatalf("body = %q", rr.Body.String())
	}

	res := rr.Result()
	var tokenCookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "token" {
			tokenCookie = c
		}
	}
	if tokenCookie == nil {
		t.Fatal("token cookie not set")
	}
	if !tokenCookie.HttpOnly {
		t.Fatal("token cookie must be HttpOnly")
	}

	claims, err := auth.verifyToken(tokenCookie.Value)
	if err != nil {
		t.Fatalf("cookie token does not verify: %v", err)
	}
	if claims.UserID != u.ID.String() || claims.Email != u.Email || claims.Username != u.Username {
		t.Fatalf("cookie claims = %+v", claims)
	}
}

func TestLoginHandlerWithEmail(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{users: []*User{u}}}

	rr := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "alice@example.com", Password: "secret1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandlerNoEnumerationLeak(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{users: []*User{u}}}

	unknown := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "nosuchuser", Password: "secret1"})
	wrongPw := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "alice123", Password: "not-it"})

	if unknown.Code != http.StatusBadRequest || wrongPw.Code != http.StatusBadRequest {
		t.Fatalf("statuses = %d / %d, want 400 / 400", unknown.Code, wrongPw.Code)
	}
	if unknown.Body.String() != wrongPw.Body.String() {
		t.Fatalf("response bodies differ:\n unknown user: %s\n wrong password: %s",
			unknown.Body.String(), wrongPw.Body.String())
	}
}

func TestLoginHandlerValidation(t *testing.T) {
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{}}

	rr := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "al", Password: "pw"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeErrorBody(t, rr)
	if body.Message != "Invalid Data" || len(body.Errors) != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestLoginHandlerMissingSecret(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "", Users: &memUserStore{users: []*User{u}}}

	// Correct credentials: the failure must still be a server-side 500,
	// distinct from a credential failure.
	rr := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "alice123", Password: "secret1"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := decodeErrorBody(t, rr)
	if body.Message == invalidCredentialsMessage {
		t.Fatal("configuration failure must not look like a credential failure")
	}
}

func TestLoginHandlerMethodNotAllowed(t *testing.T) {
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{}}
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()
	auth.loginHandler().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestLoginHandlerTrimsInput(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret", Users: &memUserStore{users: []*User{u}}}

	rr := postJSON(t, auth.loginHandler(), "/login", loginRequest{Username: "  alice123  ", Password: " secret1 "})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestRequireAuth(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret"}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := auth.requireAuth(next)

	// No cookie.
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/upload-file", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: status = %d", rr.Code)
	}

	// Garbage cookie.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload-file", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not.a.jwt"})
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad cookie: status = %d", rr.Code)
	}

	// Valid token.
	tok, err := auth.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/upload-file", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("valid cookie: status = %d", rr.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	u := testUser(t, "alice123", "alice@example.com", "secret1")
	auth := AuthConfig{Secret: "test-secret"}

	tok, err := auth.issueToken(u)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload-file", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})

	claims, err := auth.currentUser(req)
	if err != nil {
		t.Fatalf("currentUser: %v", err)
	}
	if claims.Username != "alice123" {
		t.Fatalf("claims.Username = %q", claims.Username)
	}

	if _, err := auth.currentUser(httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
		t.Fatal("expected error without a cookie")
	}
}

var _ UserStore = (*memUserStore)(nil)
