package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/enums"
)

type Post struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Caption   string          `json:"caption"`
	URL       string          `json:"url"`
	FileType  enums.MediaKind `json:"file_type"`
	FileName  string          `json:"file_name"`
	CreatedAt time.Time       `json:"createdate"`
}
