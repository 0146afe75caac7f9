// Package feed builds the two paginated post listings: the personal feed
// (the viewer plus everyone they follow) and explore (all public posts).
// Both are read-only and order newest first with the post id as tie-break.
package feed

import (
	"context"
	"math"
	"time"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps page*size inside an int32 offset
	MaxPage = math.MaxInt32 / MaxPageSize
)

type FollowLister interface {
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type PostLister interface {
	ListByAuthors(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, error)
	ListByVisibility(ctx context.Context, visibility models.Visibility, offset, limit int) ([]models.Post, error)
}

// Page is one slice of a listing
type Page struct {
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Items []models.Post `json:"items"`
}

// ClampPage normalizes caller supplied paging. Pages are zero-based and
// capped at MaxPage; a size of 0 means the default.
func ClampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

type Composer struct {
	follows FollowLister
	posts   PostLister
}

func NewComposer(follows FollowLister, posts PostLister) *Composer {
	return &Composer{follows: follows, posts: posts}
}

// ComposeFeed returns posts written by viewerID or by anyone viewerID follows.
// Following someone is the access grant here, so non-public posts of
// followed users are included.
func (c *Composer) ComposeFeed(ctx context.Context, viewerID uint, page, size int) (*Page, error) {
	start := time.Now()
	page, size = ClampPage(page, size)

	following, err := c.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		logger.Log.Error("Failed to resolve following set",
			zap.Uint("viewer_id", viewerID),
			zap.Error(err),
		)
		return nil, err
	}

	authors := make([]uint, 0, len(following)+1)
	authors = append(authors, viewerID)
	for _, id := range following {
		if id != viewerID {
			authors = append(authors, id)
		}
	}

	posts, err := c.posts.ListByAuthors(ctx, authors, page*size, size)
	if err != nil {
		logger.Log.Error("Failed to list feed posts",
			zap.Uint("viewer_id", viewerID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Debug("Feed composed",
		zap.Uint("viewer_id", viewerID),
		zap.Int("authors", len(authors)),
		zap.Int("page", page),
		zap.Int("size", size),
		zap.Int("items", len(posts)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Page{Page: page, Size: size, Items: nonNil(posts)}, nil
}

// ComposeExplore returns public posts from everyone. No viewer is needed.
func (c *Composer) ComposeExplore(ctx context.Context, page, size int) (*Page, error) {
	page, size = ClampPage(page, size)

	posts, err := c.posts.ListByVisibility(ctx, models.VisibilityPublic, page*size, size)
	if err != nil {
		logger.Log.Error("Failed to list explore posts", zap.Error(err))
		return nil, err
	}

	return &Page{Page: page, Size: size, Items: nonNil(posts)}, nil
}

func nonNil(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	return posts
}
