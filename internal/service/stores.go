package service

import (
	"context"
	"time"

	"github.com/Baaaki/instagallery/internal/feed"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/session"
)

// The interfaces below are satisfied by the repository and session
// packages. Services only see the methods they call.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, id uint) (bool, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post, media []models.PostMedia) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, fields map[string]interface{}, replaceMedia bool, media []models.PostMedia) error
	DeletePost(ctx context.Context, id uint) (bool, error)
	DeleteAllPosts(ctx context.Context) (int64, error)
	ListByAuthor(ctx context.Context, authorID uint, publicOnly bool, offset, limit int) ([]models.Post, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type FilterStore interface {
	ListFilters(ctx context.Context) ([]models.Filter, error)
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID uint, ip, device string, ttl time.Duration) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAll(ctx context.Context, userID uint) (int, error)
}

type FeedComposer interface {
	ComposeFeed(ctx context.Context, viewerID uint, page, size int) (*feed.Page, error)
	ComposeExplore(ctx context.Context, page, size int) (*feed.Page, error)
}
