package service

import (
	"sort"
	"time"

	"github.com/Baaaki/instagallery/internal/models"
)

type AuthorSummary struct {
	ID                uint   `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type MediaResponse struct {
	ID           uint             `json:"id"`
	MediaFileURL string           `json:"media_file_url"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	MediaType    models.MediaType `json:"media_type"`
	Position     int              `json:"position"`
	FilterID     *uint            `json:"filter_id"`
	Metadata     *string          `json:"metadata"`
}

type PostResponse struct {
	ID           uint              `json:"id"`
	Caption      *string           `json:"caption"`
	Location     *string           `json:"location"`
	Visibility   models.Visibility `json:"visibility"`
	LikeCount    int               `json:"like_count"`
	CommentCount int               `json:"comment_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Author       *AuthorSummary    `json:"author"`
	Media        []MediaResponse   `json:"media"`
}

type PageResponse struct {
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Items []PostResponse `json:"items"`
}

// ProfileResponse is what the owner and admins see
type ProfileResponse struct {
	ID                uint            `json:"id"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	FullName          string          `json:"full_name"`
	ProfilePictureURL string          `json:"profile_picture_url"`
	Bio               string          `json:"bio"`
	Website           string          `json:"website"`
	Gender            string          `json:"gender"`
	PhoneNumber       string          `json:"phone_number"`
	DateOfBirth       *time.Time      `json:"date_of_birth"`
	Location          string          `json:"location"`
	UserType          models.UserType `json:"user_type"`
	Role              models.Role     `json:"role"`
	IsVerified        bool            `json:"is_verified"`
	CreatedAt         time.Time       `json:"created_at"`
	PostCount         int64           `json:"post_count"`
	FollowerCount     int64           `json:"follower_count"`
	FollowingCount    int64           `json:"following_count"`
}

// PublicProfileResponse never carries contact details
type PublicProfileResponse struct {
	ID                uint            `json:"id"`
	Username          string          `json:"username"`
	FullName          string          `json:"full_name"`
	ProfilePictureURL string          `json:"profile_picture_url"`
	Bio               string          `json:"bio"`
	Website           string          `json:"website"`
	Location          string          `json:"location"`
	UserType          models.UserType `json:"user_type"`
	IsVerified        bool            `json:"is_verified"`
	CreatedAt         time.Time       `json:"created_at"`
	PostCount         int64           `json:"post_count"`
	FollowerCount     int64           `json:"follower_count"`
	FollowingCount    int64           `json:"following_count"`
	IsFollowing       *bool           `json:"is_following,omitempty"`
}

type profileCounts struct {
	posts, followers, following int64
}

func NewPostResponse(post *models.Post) PostResponse {
	resp := PostResponse{
		ID:           post.ID,
		Caption:      post.Caption,
		Location:     post.Location,
		Visibility:   post.Visibility,
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
		Media:        make([]MediaResponse, 0, len(post.Media)),
	}

	if post.Author != nil {
		resp.Author = &AuthorSummary{
			ID:                post.Author.ID,
			Username:          post.Author.Username,
			ProfilePictureURL: post.Author.ProfilePictureURL,
		}
	}

	for _, m := range post.Media {
		resp.Media = append(resp.Media, MediaResponse{
			ID:           m.ID,
			MediaFileURL: m.MediaFileURL,
			ThumbnailURL: m.ThumbnailURL,
			MediaType:    m.MediaType,
			Position:     m.Position,
			FilterID:     m.FilterID,
			Metadata:     m.Metadata,
		})
	}
	sort.SliceStable(resp.Media, func(i, j int) bool {
		return resp.Media[i].Position < resp.Media[j].Position
	})

	return resp
}

func NewPageResponse(page, size int, posts []models.Post) PageResponse {
	items := make([]PostResponse, 0, len(posts))
	for i := range posts {
		items = append(items, NewPostResponse(&posts[i]))
	}
	return PageResponse{Page: page, Size: size, Items: items}
}

func newProfileResponse(user *models.User, counts profileCounts) ProfileResponse {
	return ProfileResponse{
		ID:                user.ID,
		Username:          user.Username,
		Email:             user.Email,
		FullName:          user.FullName,
		ProfilePictureURL: user.ProfilePictureURL,
		Bio:               user.Bio,
		Website:           user.Website,
		Gender:            user.Gender,
		PhoneNumber:       user.PhoneNumber,
		DateOfBirth:       user.DateOfBirth,
		Location:          user.Location,
		UserType:          user.UserType,
		Role:              user.Role,
		IsVerified:        user.IsVerified,
		CreatedAt:         user.CreatedAt,
		PostCount:         counts.posts,
		FollowerCount:     counts.followers,
		FollowingCount:    counts.following,
	}
}

func newPublicProfileResponse(user *models.User, counts profileCounts) PublicProfileResponse {
	return PublicProfileResponse{
		ID:                user.ID,
		Username:          user.Username,
		FullName:          user.FullName,
		ProfilePictureURL: user.ProfilePictureURL,
		Bio:               user.Bio,
		Website:           user.Website,
		Location:          user.Location,
		UserType:          user.UserType,
		IsVerified:        user.IsVerified,
		CreatedAt:         user.CreatedAt,
		PostCount:         counts.posts,
		FollowerCount:     counts.followers,
		FollowingCount:    counts.following,
	}
}
