package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Baaaki/instagallery/internal/audit"
	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/feed"
	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
)

const (
	maxCaptionLength  = 2200
	maxLocationLength = 255
	maxMediaPerPost   = 10
)

type MediaInput struct {
	MediaFileURL string           `json:"media_file_url"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	MediaType    models.MediaType `json:"media_type"`
	FilterID     *uint            `json:"filter_id"`
	Metadata     *string          `json:"metadata"`
}

type PostDraft struct {
	Caption    *string           `json:"caption"`
	Location   *string           `json:"location"`
	Visibility models.Visibility `json:"visibility"`
	Media      []MediaInput      `json:"media"`
}

// PostPatch is a partial update. Nil fields are left untouched; a non-nil
// Media list replaces every existing media item.
type PostPatch struct {
	Caption    *string            `json:"caption"`
	Location   *string            `json:"location"`
	Visibility *models.Visibility `json:"visibility"`
	Media      []MediaInput       `json:"media"`
}

type PostService struct {
	postRepo   PostStore
	userRepo   UserStore
	filterRepo FilterStore
	composer   FeedComposer
	journal    audit.Recorder
	policy     authz.Policy
}

func NewPostService(postRepo PostStore, userRepo UserStore, filterRepo FilterStore, composer FeedComposer, journal audit.Recorder, policy authz.Policy) *PostService {
	return &PostService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		filterRepo: filterRepo,
		composer:   composer,
		journal:    journal,
		policy:     policy,
	}
}

func (s *PostService) CreatePost(ctx context.Context, ownerID uint, draft PostDraft) (*PostResponse, error) {
	start := time.Now()

	// 1. Validate draft
	if draft.Visibility == "" {
		draft.Visibility = models.VisibilityPublic
	}
	if !draft.Visibility.Valid() {
		return nil, models.NewValidationError("invalid visibility")
	}
	if err := validateText(draft.Caption, draft.Location); err != nil {
		return nil, err
	}
	media, err := s.buildMedia(ctx, draft.Media)
	if err != nil {
		logger.Log.Warn("Post draft rejected",
			zap.Uint("owner_id", ownerID),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Persist post and media atomically
	post := &models.Post{
		UserID:     ownerID,
		Caption:    draft.Caption,
		Location:   draft.Location,
		Visibility: draft.Visibility,
	}
	if err := s.postRepo.CreatePost(ctx, post, media); err != nil {
		logger.Log.Error("Failed to create post",
			zap.Uint("owner_id", ownerID),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}

	// 3. Reload with author and media
	created, err := s.loadPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	metrics.PostsCreated.Inc()
	logger.Log.Info("Post created",
		zap.Uint("post_id", post.ID),
		zap.Uint("owner_id", ownerID),
		zap.Int("media_count", len(media)),
		zap.String("visibility", string(post.Visibility)),
		zap.Duration("total_duration", time.Since(start)),
	)

	resp := NewPostResponse(created)
	return &resp, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint, p authz.Principal) (*PostResponse, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !authz.CanView(post, p) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}

	resp := NewPostResponse(post)
	return &resp, nil
}

func (s *PostService) UpdatePost(ctx context.Context, postID uint, p authz.Principal, patch PostPatch) (*PostResponse, error) {
	start := time.Now()

	// 1. Fetch and authorize
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanMutate(authz.ActionUpdatePost, post.UserID, p) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	// 2. Validate patch
	fields := map[string]interface{}{}
	if err := validateText(patch.Caption, patch.Location); err != nil {
		return nil, err
	}
	if patch.Caption != nil {
		fields["caption"] = *patch.Caption
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.Visibility != nil {
		if !patch.Visibility.Valid() {
			return nil, models.NewValidationError("invalid visibility")
		}
		fields["visibility"] = *patch.Visibility
	}

	replaceMedia := patch.Media != nil
	var media []models.PostMedia
	if replaceMedia {
		if media, err = s.buildMedia(ctx, patch.Media); err != nil {
			return nil, err
		}
	}

	// 3. Apply in one transaction
	if err := s.postRepo.UpdatePost(ctx, postID, fields, replaceMedia, media); err != nil {
		logger.Log.Error("Failed to update post",
			zap.Uint("post_id", postID),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}

	updated, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Post updated",
		zap.Uint("post_id", postID),
		zap.Int("fields", len(fields)),
		zap.Bool("media_replaced", replaceMedia),
		zap.Duration("total_duration", time.Since(start)),
	)

	resp := NewPostResponse(updated)
	return &resp, nil
}

func (s *PostService) DeletePost(ctx context.Context, postID uint, p authz.Principal) (bool, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if !s.policy.CanMutate(authz.ActionDeletePost, post.UserID, p) {
		return false, models.NewForbiddenError("You can only delete your own posts")
	}

	deleted, err := s.postRepo.DeletePost(ctx, postID)
	if err != nil {
		logger.Log.Error("Failed to delete post",
			zap.Uint("post_id", postID),
			zap.Error(err),
		)
		return false, models.NewInternalError(err)
	}
	if !deleted {
		return false, models.NewNotFoundError("Post")
	}

	metrics.PostsDeleted.WithLabelValues("owner").Inc()
	logger.Log.Info("Post deleted",
		zap.Uint("post_id", postID),
		zap.Uint("owner_id", post.UserID),
	)
	return true, nil
}

// DeleteAllPosts wipes every post in the system. Admin only.
func (s *PostService) DeleteAllPosts(ctx context.Context, p authz.Principal) (int64, error) {
	start := time.Now()

	if !s.policy.CanMutate(authz.ActionDeleteAllPosts, 0, p) {
		logger.Log.Warn("Delete-all-posts denied")
		return 0, models.NewForbiddenError("Admin access required")
	}
	admin, _ := authz.AsUser(p)

	n, err := s.postRepo.DeleteAllPosts(ctx)
	if err != nil {
		logger.Log.Error("Failed to delete all posts", zap.Error(err))
		return 0, models.NewInternalError(err)
	}

	if err := s.journal.Record(audit.Entry{
		Action:   "delete_all_posts",
		ActorID:  admin.UserID,
		Affected: n,
	}); err != nil {
		logger.Log.Error("Failed to journal post purge", zap.Error(err))
	}

	metrics.PostsDeleted.WithLabelValues("purge").Add(float64(n))
	logger.Log.Warn("All posts deleted",
		zap.Uint("admin_id", admin.UserID),
		zap.Int64("deleted", n),
		zap.Duration("total_duration", time.Since(start)),
	)
	return n, nil
}

func (s *PostService) Feed(ctx context.Context, viewerID uint, page, size int) (*PageResponse, error) {
	result, err := s.composer.ComposeFeed(ctx, viewerID, page, size)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	resp := NewPageResponse(result.Page, result.Size, result.Items)
	return &resp, nil
}

func (s *PostService) Explore(ctx context.Context, page, size int) (*PageResponse, error) {
	result, err := s.composer.ComposeExplore(ctx, page, size)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	resp := NewPageResponse(result.Page, result.Size, result.Items)
	return &resp, nil
}

// ListUserPosts is the profile grid: the owner sees everything, anyone else
// only public posts
func (s *PostService) ListUserPosts(ctx context.Context, username string, p authz.Principal, page, size int) (*PageResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to get user", zap.String("username", username), zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}

	page, size = feed.ClampPage(page, size)
	publicOnly := !authz.SeesNonPublic(user.ID, p)

	posts, err := s.postRepo.ListByAuthor(ctx, user.ID, publicOnly, page*size, size)
	if err != nil {
		logger.Log.Error("Failed to list user posts", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, models.NewInternalError(err)
	}

	resp := NewPageResponse(page, size, posts)
	return &resp, nil
}

func (s *PostService) loadPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to get post", zap.Uint("post_id", id), zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post")
	}
	return post, nil
}

// buildMedia validates every item and returns rows in caller order
func (s *PostService) buildMedia(ctx context.Context, items []MediaInput) ([]models.PostMedia, error) {
	if len(items) > maxMediaPerPost {
		return nil, models.NewValidationError(fmt.Sprintf("a post can have at most %d media items", maxMediaPerPost))
	}

	var filterIDs []uint
	rows := make([]models.PostMedia, 0, len(items))
	for i, item := range items {
		url := strings.TrimSpace(item.MediaFileURL)
		if url == "" {
			return nil, models.NewValidationError(fmt.Sprintf("media[%d]: media_file_url is required", i))
		}
		if len(url) > 255 {
			return nil, models.NewValidationError(fmt.Sprintf("media[%d]: media_file_url too long", i))
		}
		if !item.MediaType.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("media[%d]: media_type must be IMAGE or VIDEO", i))
		}
		if item.FilterID != nil {
			filterIDs = append(filterIDs, *item.FilterID)
		}
		rows = append(rows, models.PostMedia{
			MediaFileURL: url,
			ThumbnailURL: item.ThumbnailURL,
			MediaType:    item.MediaType,
			FilterID:     item.FilterID,
			Metadata:     item.Metadata,
		})
	}

	if len(filterIDs) > 0 {
		existing, err := s.filterRepo.ExistingIDs(ctx, filterIDs)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		known := make(map[uint]bool, len(existing))
		for _, id := range existing {
			known[id] = true
		}
		for _, id := range filterIDs {
			if !known[id] {
				return nil, models.NewValidationError(fmt.Sprintf("unknown filter %d", id))
			}
		}
	}

	return rows, nil
}

func validateText(caption, location *string) error {
	if caption != nil && len(*caption) > maxCaptionLength {
		return models.NewValidationError("caption too long")
	}
	if location != nil && len(*location) > maxLocationLength {
		return models.NewValidationError("location too long")
	}
	return nil
}
