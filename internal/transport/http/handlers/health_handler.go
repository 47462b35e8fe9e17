package handlers

import (
	"net/http"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/dto"
	httperrors "github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/errors"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
