// Package seed creates the bootstrap admin and optional demo content.
// Demo data is for development only.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/repository"
	"github.com/Baaaki/instagallery/internal/utils"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DemoPassword is shared by every generated demo user
const DemoPassword = "password123"

type Seeder struct {
	users   *repository.UserRepository
	posts   *repository.PostRepository
	follows *repository.FollowRepository
	faker   *gofakeit.Faker
	params  utils.Argon2Params
}

// NewSeeder seeds the faker with seed so runs are reproducible
func NewSeeder(db *gorm.DB, seed int64, params utils.Argon2Params) *Seeder {
	return &Seeder{
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		follows: repository.NewFollowRepository(db),
		faker:   gofakeit.New(seed),
		params:  params,
	}
}

// EnsureAdmin creates the admin account unless the email is already taken.
// It reports whether a new account was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	if username == "" || email == "" || password == "" {
		return nil, false, errors.New("admin username, email and password are required")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	hash, err := utils.HashPasswordWithParams(password, s.params)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		UserType:     models.UserTypeEnthusiast,
		Role:         models.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// DemoResult counts what SeedDemo created
type DemoResult struct {
	Users   int
	Posts   int
	Follows int
}

// SeedDemo creates users, each with postsPerUser posts, and follows each
// user to a handful of the others
func (s *Seeder) SeedDemo(ctx context.Context, userCount, postsPerUser int) (*DemoResult, error) {
	result := &DemoResult{}
	if userCount <= 0 {
		return result, nil
	}

	// One hash for everyone; argon2 is deliberately slow
	hash, err := utils.HashPasswordWithParams(DemoPassword, s.params)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	userTypes := []models.UserType{models.UserTypePhotographer, models.UserTypeClient, models.UserTypeEnthusiast}
	visibilities := []models.Visibility{models.VisibilityPublic, models.VisibilityPublic, models.VisibilityFriendsOnly, models.VisibilityPrivate}

	users := make([]*models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		u := &models.User{
			Username:          fmt.Sprintf("%s_%d", s.faker.Username(), i),
			Email:             fmt.Sprintf("demo%d.%s", i, s.faker.Email()),
			PasswordHash:      hash,
			FullName:          s.faker.Name(),
			Bio:               s.faker.Sentence(8),
			Location:          s.faker.City(),
			ProfilePictureURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
			UserType:          userTypes[i%len(userTypes)],
			Role:              models.RoleUser,
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return result, fmt.Errorf("create demo user: %w", err)
		}
		users = append(users, u)
		result.Users++
	}

	for _, u := range users {
		for j := 0; j < postsPerUser; j++ {
			caption := s.faker.Sentence(6)
			location := s.faker.City()
			post := &models.Post{
				UserID:     u.ID,
				Caption:    &caption,
				Location:   &location,
				Visibility: visibilities[s.faker.Number(0, len(visibilities)-1)],
			}

			media := make([]models.PostMedia, s.faker.Number(1, 3))
			for k := range media {
				media[k] = models.PostMedia{
					MediaFileURL: fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", s.faker.UUID()),
					MediaType:    models.MediaTypeImage,
				}
			}

			if err := s.posts.CreatePost(ctx, post, media); err != nil {
				return result, fmt.Errorf("create demo post: %w", err)
			}
			result.Posts++
		}
	}

	for i, u := range users {
		for step := 1; step <= 3 && step < len(users); step++ {
			target := users[(i+step)%len(users)]
			created, err := s.follows.Follow(ctx, u.ID, target.ID)
			if err != nil {
				return result, fmt.Errorf("create demo follow: %w", err)
			}
			if created {
				result.Follows++
			}
		}
	}

	logger.Log.Info("Demo data seeded",
		zap.Int("users", result.Users),
		zap.Int("posts", result.Posts),
		zap.Int("follows", result.Follows),
	)
	return result, nil
}
