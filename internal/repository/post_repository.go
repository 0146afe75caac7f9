package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/instagallery/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// CreatePost inserts the post header and its media in one transaction.
// Media positions are taken from the slice order.
func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post, media []models.PostMedia) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := insertMedia(tx, post.ID, media); err != nil {
			return err
		}
		post.Media = media
		return nil
	})
}

// GetPostByID loads a post with its author and ordered media.
// Returns (nil, nil) when the post does not exist.
func (r *PostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := withDetails(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost applies fields to the post header. When replaceMedia is set the
// existing media rows are deleted and media inserted in their place, all in
// the same transaction. updated_at is always bumped.
func (r *PostRepository) UpdatePost(ctx context.Context, id uint, fields map[string]interface{}, replaceMedia bool, media []models.PostMedia) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		updates["updated_at"] = time.Now()

		if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if !replaceMedia {
			return nil
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostMedia{}).Error; err != nil {
			return err
		}
		return insertMedia(tx, id, media)
	})
}

// DeletePost removes the post and its media. Returns false if nothing was deleted.
func (r *PostRepository) DeletePost(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostMedia{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// DeleteAllPosts wipes every post and media row, returning the number of posts removed
func (r *PostRepository) DeleteAllPosts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.PostMedia{}).Error; err != nil {
			return err
		}
		res := all.Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	return count, err
}

// ListByAuthors returns posts written by any of authorIDs, newest first
func (r *PostRepository) ListByAuthors(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.list(ctx, offset, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id IN ?", authorIDs)
	})
}

// ListByVisibility returns posts with the given visibility, newest first
func (r *PostRepository) ListByVisibility(ctx context.Context, visibility models.Visibility, offset, limit int) ([]models.Post, error) {
	return r.list(ctx, offset, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("visibility = ?", visibility)
	})
}

// ListByAuthor returns one user's posts. With publicOnly set, only PUBLIC posts are included.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uint, publicOnly bool, offset, limit int) ([]models.Post, error) {
	return r.list(ctx, offset, limit, func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", authorID)
		if publicOnly {
			db = db.Where("visibility = ?", models.VisibilityPublic)
		}
		return db
	})
}

func (r *PostRepository) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}

func (r *PostRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *PostRepository) list(ctx context.Context, offset, limit int, scope func(*gorm.DB) *gorm.DB) ([]models.Post, error) {
	var posts []models.Post
	err := withDetails(r.db.WithContext(ctx)).
		Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func insertMedia(tx *gorm.DB, postID uint, media []models.PostMedia) error {
	if len(media) == 0 {
		return nil
	}
	for i := range media {
		media[i].ID = 0
		media[i].PostID = postID
		media[i].Position = i
	}
	return tx.Omit(clause.Associations).Create(&media).Error
}
