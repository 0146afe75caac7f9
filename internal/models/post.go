package models

import (
	"time"
)

type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityPrivate     Visibility = "PRIVATE"
	VisibilityFriendsOnly Visibility = "FRIENDS_ONLY"
)

// Valid reports whether v is one of the known visibilities
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFriendsOnly:
		return true
	}
	return false
}

type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// Valid reports whether m is one of the known media types
func (m MediaType) Valid() bool {
	return m == MediaTypeImage || m == MediaTypeVideo
}

type Post struct {
	ID           uint       `gorm:"primaryKey"`
	UserID       uint       `gorm:"not null;index:idx_post_user_created,priority:1"`
	Caption      *string    `gorm:"type:text"`
	Location     *string    `gorm:"type:varchar(255)"`
	Visibility   Visibility `gorm:"type:varchar(30);not null;default:'PUBLIC';index"`
	LikeCount    int        `gorm:"not null;default:0"`
	CommentCount int        `gorm:"not null;default:0"`
	CreatedAt    time.Time  `gorm:"index:idx_post_user_created,priority:2"`
	UpdatedAt    time.Time

	// Foreign Key Relationships
	Author *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Media  []PostMedia `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// PostMedia is one attachment of a post. Position is unique per post and
// defines render order.
type PostMedia struct {
	ID           uint      `gorm:"primaryKey"`
	PostID       uint      `gorm:"not null;uniqueIndex:idx_post_media_position,priority:1"`
	MediaFileURL string    `gorm:"type:varchar(255);not null"`
	ThumbnailURL *string   `gorm:"type:varchar(255)"`
	MediaType    MediaType `gorm:"type:varchar(10);not null"`
	Position     int       `gorm:"not null;uniqueIndex:idx_post_media_position,priority:2"`
	FilterID     *uint     `gorm:"index"`
	Metadata     *string   `gorm:"type:text"`

	Filter *Filter `gorm:"foreignKey:FilterID;constraint:OnDelete:SET NULL"`
}

func (PostMedia) TableName() string {
	return "post_media"
}

type Filter struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
