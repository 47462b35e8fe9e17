package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	userssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/users"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/dto"
	httperrors "github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/errors"
)

type UsersHandler struct {
	service *userssvc.Service
}

func NewUsersHandler(service *userssvc.Service) *UsersHandler {
	return &UsersHandler{service: service}
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	var req dto.UserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.UpdateMe(r.Context(), identity.UserID, userssvc.Patch{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		handleUsersError(w, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}
	httperrors.Write(w, http.StatusOK, dto.UsersListResponse{Users: items})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	var req dto.UserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := h.service.Update(r.Context(), id, userssvc.Patch{
		Email:       req.Email,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		IsVerified:  req.IsVerified,
	})
	if err != nil {
		handleUsersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "users service is unavailable")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleUsersError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func handleUsersError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrNotFound):
		writeNotFound(w, "Not Found")
	case errors.Is(err, userssvc.ErrEmailTaken):
		writeBadRequest(w, "UPDATE_USER_EMAIL_ALREADY_EXISTS")
	case errors.Is(err, userssvc.ErrInvalidPassword):
		writeBadRequest(w, "UPDATE_USER_INVALID_PASSWORD")
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, "request validation failed")
	case errors.Is(err, userssvc.ErrUserHasPosts):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{Detail: "USER_HAS_POSTS"})
	default:
		writeInternal(w, "internal server error")
	}
}
