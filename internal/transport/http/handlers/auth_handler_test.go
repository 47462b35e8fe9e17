package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/dto"
	httperrors "github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/errors"
)

func TestRegisterThenLoginWithForm(t *testing.T) {
	store := newMemoryStore()
	handler := NewAuthHandler(newTestAuthService(t, store))

	body := `{"email":"alice@example.com","password":"s3cret-pass","is_superuser":true}`
	rr := httptest.NewRecorder()
	handler.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected register status: got %d body=%s", rr.Code, rr.Body.String())
	}
	var user dto.UserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if user.Email != "alice@example.com" || user.IsSuperuser || user.IsVerified || !user.IsActive {
		t.Fatalf("unexpected registered user: %+v", user)
	}

	form := url.Values{"username": {"alice@example.com"}, "password": {"s3cret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/jwt/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected login status: got %d body=%s", rr.Code, rr.Body.String())
	}
	var tokens dto.AuthTokensResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.TokenType != "bearer" || tokens.ExpiresInSec <= 0 {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestRegisterErrorsUseDetailCodes(t *testing.T) {
	handler := NewAuthHandler(newTestAuthService(t, newMemoryStore()))

	register := func(body string) (int, string) {
		rr := httptest.NewRecorder()
		handler.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
		var payload httperrors.APIError
		_ = json.Unmarshal(rr.Body.Bytes(), &payload)
		return rr.Code, payload.Detail
	}

	if code, _ := register(`{"email":"bob@example.com","password":"s3cret-pass"}`); code != http.StatusCreated {
		t.Fatalf("first register failed: %d", code)
	}
	if code, detail := register(`{"email":"BOB@example.com","password":"s3cret-pass"}`); code != http.StatusBadRequest || detail != "REGISTER_USER_ALREADY_EXISTS" {
		t.Fatalf("unexpected duplicate response: %d %q", code, detail)
	}
	if code, detail := register(`{"email":"carl@example.com","password":"short"}`); code != http.StatusBadRequest || detail != "REGISTER_INVALID_PASSWORD" {
		t.Fatalf("unexpected invalid password response: %d %q", code, detail)
	}
	if code, _ := register(`{"email":"carl@example.com","password":"s3cret-pass","nickname":"c"}`); code != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, got %d", code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	handler := NewAuthHandler(newTestAuthService(t, newMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/auth/jwt/login", strings.NewReader(`{"username":"ghost@example.com","password":"whatever-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	var payload httperrors.APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rr.Code != http.StatusBadRequest || payload.Detail != "LOGIN_BAD_CREDENTIALS" {
		t.Fatalf("unexpected response: %d %+v", rr.Code, payload)
	}
}

func TestRequestVerifyTokenAlwaysAccepted(t *testing.T) {
	handler := NewAuthHandler(newTestAuthService(t, newMemoryStore()))

	rr := httptest.NewRecorder()
	handler.RequestVerifyToken(rr, httptest.NewRequest(http.MethodPost, "/auth/request-verify-token", strings.NewReader(`{"email":"nobody@example.com"}`)))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.Verify(rr, httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"token":"nope"}`)))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "VERIFY_USER_BAD_TOKEN") {
		t.Fatalf("unexpected verify response: %d %s", rr.Code, rr.Body.String())
	}
}
