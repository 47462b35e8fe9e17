package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/services/mediahost"
	postssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/posts"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/dto"
	httperrors "github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/errors"
)

const (
	defaultMaxUploadSize = 100 << 20 // 100 MiB
	multipartMemory      = 8 << 20
)

type PostsHandler struct {
	service       *postssvc.Service
	maxUploadSize int64
	logger        *zap.Logger
}

func NewPostsHandler(service *postssvc.Service, maxUploadSize int64, logger *zap.Logger) *PostsHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostsHandler{service: service, maxUploadSize: maxUploadSize, logger: logger}
}

func (h *PostsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if h.service == nil {
		writeInternal(w, "posts service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{Detail: "file too large"})
			return
		}
		writeBadRequest(w, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	post, err := h.service.Upload(r.Context(), postssvc.UploadInput{
		UserID:      identity.UserID,
		Caption:     r.FormValue("caption"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.handlePostsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewPostResponse(post))
}

func (h *PostsHandler) Feed(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if h.service == nil {
		writeInternal(w, "posts service is unavailable")
		return
	}

	views, err := h.service.Feed(r.Context(), identity.UserID)
	if err != nil {
		h.handlePostsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewFeedResponse(views))
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if h.service == nil {
		writeInternal(w, "posts service is unavailable")
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
	if err != nil {
		writeBadRequest(w, "invalid post id")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, postID); err != nil {
		h.handlePostsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DetailResponse{Detail: "Post deleted successfully"})
}

func (h *PostsHandler) handlePostsError(w http.ResponseWriter, err error) {
	var rateErr *postssvc.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Detail:        "too many uploads",
			RetryAfterSec: rateErr.RetryAfterSec,
		})
	case errors.Is(err, postssvc.ErrValidation):
		writeBadRequest(w, "invalid post request")
	case errors.Is(err, postssvc.ErrNotFound):
		writeNotFound(w, "Post not found")
	case errors.Is(err, postssvc.ErrForbidden):
		writeForbidden(w, "You don't have permission to delete this post")
	case errors.Is(err, postssvc.ErrUpstream):
		h.logger.Warn("media upload failed", zap.Error(err))
		writeInternal(w, upstreamDetail(err))
	default:
		h.logger.Error("posts request failed", zap.Error(err))
		writeInternal(w, "internal server error")
	}
}

// upstreamDetail surfaces the media host's status and message to the client.
func upstreamDetail(err error) string {
	var upErr *mediahost.UploadError
	if !errors.As(err, &upErr) {
		return "media upload failed"
	}
	msg := upErr.Message
	if msg == "" && upErr.Err != nil {
		msg = upErr.Err.Error()
	}
	if upErr.StatusCode > 0 {
		return fmt.Sprintf("media upload failed: status %d: %s", upErr.StatusCode, msg)
	}
	return "media upload failed: " + msg
}
