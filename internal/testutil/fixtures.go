package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/utils"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every fixture user
const DefaultPassword = "Test123456"

// FastHashParams keeps password hashing cheap in tests
var FastHashParams = utils.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// BaseTime is a fixed instant fixtures count from, so ordering is deterministic
var BaseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// CreateTestUser persists a user with DefaultPassword and email <username>@example.com
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	hash, err := utils.HashPasswordWithParams(DefaultPassword, FastHashParams)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: hash,
		FullName:     "Test " + username,
		Role:         role,
		UserType:     models.UserTypeEnthusiast,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTestPost persists a post with mediaCount images, created offset
// minutes after BaseTime
func CreateTestPost(t *testing.T, db *gorm.DB, userID uint, visibility models.Visibility, offset int, mediaCount int) *models.Post {
	caption := fmt.Sprintf("post by %d at +%dm", userID, offset)
	post := &models.Post{
		UserID:     userID,
		Caption:    &caption,
		Visibility: visibility,
		CreatedAt:  BaseTime.Add(time.Duration(offset) * time.Minute),
		UpdatedAt:  BaseTime.Add(time.Duration(offset) * time.Minute),
	}
	if err := db.Omit("Author", "Media").Create(post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}

	for i := 0; i < mediaCount; i++ {
		m := models.PostMedia{
			PostID:       post.ID,
			MediaFileURL: fmt.Sprintf("https://cdn.example.com/%d/%d.jpg", post.ID, i),
			MediaType:    models.MediaTypeImage,
			Position:     i,
		}
		if err := db.Omit("Filter").Create(&m).Error; err != nil {
			t.Fatalf("Failed to create media: %v", err)
		}
		post.Media = append(post.Media, m)
	}
	return post
}

// CreateFollow makes followerID follow followingID
func CreateFollow(t *testing.T, db *gorm.DB, followerID, followingID uint) {
	if err := db.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		t.Fatalf("Failed to create follow: %v", err)
	}
}

// CountRows returns the row count of model's table
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
