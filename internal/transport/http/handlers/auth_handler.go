package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/pkg/validate"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/dto"
	httperrors "github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
}

func NewAuthHandler(service *authsvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login accepts the OAuth2 password form (username, password) or the same
// fields as JSON.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeBadRequest(w, "invalid form body")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	if !validate.Required(req.Username, req.Password) {
		writeBadRequest(w, "username and password are required")
		return
	}

	res, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewUserResponse(user))
}

func (h *AuthHandler) RequestVerifyToken(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.RequestVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.RequestVerify(r.Context(), req.Email); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusAccepted, nil)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "auth service is unavailable")
		return
	}

	var req dto.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.Verify(r.Context(), req.Token)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func tokensResponse(res authsvc.AuthResult) dto.AuthTokensResponse {
	return dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		TokenType:    "bearer",
		RefreshToken: res.RefreshToken,
		ExpiresInSec: max(0, int64(time.Until(res.AccessExpires).Seconds())),
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrUserAlreadyExists):
		writeBadRequest(w, "REGISTER_USER_ALREADY_EXISTS")
	case errors.Is(err, authsvc.ErrInvalidPassword):
		writeBadRequest(w, "REGISTER_INVALID_PASSWORD")
	case errors.Is(err, authsvc.ErrBadCredentials):
		writeBadRequest(w, "LOGIN_BAD_CREDENTIALS")
	case errors.Is(err, authsvc.ErrVerifyBadToken):
		writeBadRequest(w, "VERIFY_USER_BAD_TOKEN")
	case errors.Is(err, authsvc.ErrAlreadyVerified):
		writeBadRequest(w, "VERIFY_USER_ALREADY_VERIFIED")
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "request validation failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w)
	default:
		writeInternal(w, "internal server error")
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Detail: "Unauthorized"})
}

func writeForbidden(w http.ResponseWriter, detail string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Detail: detail})
}

func writeNotFound(w http.ResponseWriter, detail string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Detail: detail})
}

func writeInternal(w http.ResponseWriter, detail string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Detail: detail})
}
