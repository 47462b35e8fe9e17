package dto

import (
	"time"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	postssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/posts"
)

type PostResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Caption    string `json:"caption"`
	URL        string `json:"url"`
	FileType   string `json:"file_type"`
	FileName   string `json:"file_name"`
	CreateDate string `json:"createdate"`
}

type PostViewResponse struct {
	PostResponse
	IsOwner bool   `json:"is_owner"`
	Email   string `json:"email"`
}

type FeedResponse struct {
	Posts []PostViewResponse `json:"posts"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

func NewPostResponse(post model.Post) PostResponse {
	return PostResponse{
		ID:         post.ID.String(),
		UserID:     post.UserID.String(),
		Caption:    post.Caption,
		URL:        post.URL,
		FileType:   string(post.FileType),
		FileName:   post.FileName,
		CreateDate: post.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewFeedResponse(views []postssvc.PostView) FeedResponse {
	posts := make([]PostViewResponse, 0, len(views))
	for _, v := range views {
		posts = append(posts, PostViewResponse{
			PostResponse: NewPostResponse(v.Post),
			IsOwner:      v.IsOwner,
			Email:        v.Email,
		})
	}
	return FeedResponse{Posts: posts}
}
