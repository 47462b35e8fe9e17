package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/enums"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
)

const postColumns = `id, user_id, COALESCE(caption, ''), url, file_type, file_name, createdate`

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post model.Post) (model.Post, error) {
	if r.pool == nil {
		return model.Post{}, fmt.Errorf("postgres pool is nil")
	}

	var created model.Post
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO posts (id, user_id, caption, url, file_type, file_name, createdate)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
RETURNING `+postColumns,
			post.ID, post.UserID, post.Caption, post.URL, string(post.FileType), post.FileName, nullableTime(post))

		var err error
		created, err = scanPost(row)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Post{}, err
	}

	return created, nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Post, error) {
	if r.pool == nil {
		return model.Post{}, fmt.Errorf("postgres pool is nil")
	}

	post, err := scanPost(r.pool.QueryRow(ctx, `
SELECT `+postColumns+`
FROM posts
WHERE id = $1
`, id))
	if err != nil {
		return model.Post{}, fmt.Errorf("get post by id: %w", mapError(err))
	}

	return post, nil
}

func (r *PostRepo) ListNewestFirst(ctx context.Context) ([]model.Post, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+postColumns+`
FROM posts
ORDER BY createdate DESC, id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate posts: %w", rows.Err())
	}

	return posts, nil
}

func (r *PostRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user posts: %w", err)
	}
	return count, nil
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		return nil
	})
}

func scanPost(row pgx.Row) (model.Post, error) {
	var (
		post     model.Post
		fileType string
	)
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Caption,
		&post.URL,
		&fileType,
		&post.FileName,
		&post.CreatedAt,
	)
	if err != nil {
		return model.Post{}, err
	}
	post.FileType = enums.MediaKind(fileType)
	post.CreatedAt = post.CreatedAt.UTC()
	return post, nil
}

func nullableTime(post model.Post) any {
	if post.CreatedAt.IsZero() {
		return nil
	}
	return post.CreatedAt.UTC()
}
