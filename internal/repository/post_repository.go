package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"online-shopping/internal/model"
)

const postViewColumns = "p.id, p.author_id, u.username, p.title, p.body, p.created_at"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post failed: %w", err)
	}
	return nil
}

// ListViews returns every post with its author, newest first.
func (r *PostRepository) ListViews(ctx context.Context) ([]model.PostView, error) {
	var views []model.PostView
	if err := r.views(ctx).Order("p.created_at DESC, p.id DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list posts failed: %w", err)
	}
	return views, nil
}

func (r *PostRepository) GetViewByID(ctx context.Context, id uint) (*model.PostView, error) {
	var views []model.PostView
	if err := r.views(ctx).Where("p.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("get post failed: %w", err)
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by id failed: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) Update(ctx context.Context, id uint, title, body string) error {
	err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "body": body}).Error
	if err != nil {
		return fmt.Errorf("update post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) UpdateBody(ctx context.Context, id uint, body string) error {
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Update("body", body).Error; err != nil {
		return fmt.Errorf("update post body failed: %w", err)
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postViewColumns).
		Joins("JOIN users AS u ON p.author_id = u.id")
}
