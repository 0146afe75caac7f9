package service

import (
	"context"
	"time"

	"github.com/Baaaki/instagallery/internal/audit"
	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
)

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	FullName          *string    `json:"full_name"`
	Bio               *string    `json:"bio"`
	ProfilePictureURL *string    `json:"profile_picture_url"`
	Location          *string    `json:"location"`
	Website           *string    `json:"website"`
	Gender            *string    `json:"gender"`
	PhoneNumber       *string    `json:"phone_number"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
}

type UserService struct {
	userRepo   UserStore
	postRepo   PostStore
	followRepo FollowStore
	sessions   SessionStore
	journal    audit.Recorder
	policy     authz.Policy
}

func NewUserService(userRepo UserStore, postRepo PostStore, followRepo FollowStore, sessions SessionStore, journal audit.Recorder, policy authz.Policy) *UserService {
	return &UserService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		sessions:   sessions,
		journal:    journal,
		policy:     policy,
	}
}

// GetProfile returns the full profile of id. Only the owner and admins may read it.
func (s *UserService) GetProfile(ctx context.Context, id uint, p authz.Principal) (*ProfileResponse, error) {
	if !s.policy.CanMutate(authz.ActionViewProfile, id, p) {
		return nil, models.NewForbiddenError("You can only view your own profile")
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := newProfileResponse(user, counts)
	return &resp, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, p authz.Principal, patch ProfilePatch) (*ProfileResponse, error) {
	start := time.Now()

	// 1. Authorize
	if !s.policy.CanMutate(authz.ActionUpdateProfile, id, p) {
		return nil, models.NewForbiddenError("You can only update your own profile")
	}

	// 2. Validate patch
	fields, err := profileFields(patch)
	if err != nil {
		return nil, err
	}

	// 3. Make sure the target exists
	if _, err := s.loadUser(ctx, id); err != nil {
		return nil, err
	}

	// 4. Apply
	if len(fields) > 0 {
		if err := s.userRepo.UpdateUser(ctx, id, fields); err != nil {
			logger.Log.Error("Failed to update profile",
				zap.Uint("user_id", id),
				zap.Error(err),
			)
			return nil, models.NewInternalError(err)
		}
	}

	logger.Log.Info("Profile updated",
		zap.Uint("user_id", id),
		zap.Int("fields", len(fields)),
		zap.Duration("total_duration", time.Since(start)),
	)

	return s.GetProfile(ctx, id, p)
}

// DeleteUser removes the account with its sessions, follow edges, posts and media
func (s *UserService) DeleteUser(ctx context.Context, id uint, p authz.Principal) error {
	start := time.Now()

	// 1. Authorize
	if !s.policy.CanMutate(authz.ActionDeleteAccount, id, p) {
		return models.NewForbiddenError("You are not allowed to delete this account")
	}
	actor, _ := authz.AsUser(p)

	// 2. Make sure the target exists
	if _, err := s.loadUser(ctx, id); err != nil {
		return err
	}

	// 3. Delete user and everything hanging off it
	deleted, err := s.userRepo.DeleteUser(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete user",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return models.NewInternalError(err)
	}
	if !deleted {
		return models.NewNotFoundError("User")
	}

	// 4. Journal
	if err := s.journal.Record(audit.Entry{
		Action:   "delete_user",
		ActorID:  actor.UserID,
		TargetID: id,
		Affected: 1,
	}); err != nil {
		logger.Log.Error("Failed to journal user deletion",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
	}

	// 5. Revoke sessions. Tokens are not checked against the users table.
	revoked, err := s.sessions.RevokeAll(ctx, id)
	if err != nil {
		metrics.RedisErrors.WithLabelValues("revoke_all").Inc()
		logger.Log.Error("User deleted but sessions not revoked",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return models.NewInternalError(err)
	}

	logger.Log.Info("User deleted",
		zap.Uint("user_id", id),
		zap.Uint("actor_id", actor.UserID),
		zap.Int("sessions_revoked", revoked),
		zap.Duration("total_duration", time.Since(start)),
	)

	return nil
}

// GetPublicProfile needs no authentication. When the viewer is logged in the
// response also says whether they follow the user.
func (s *UserService) GetPublicProfile(ctx context.Context, username string, viewer authz.Principal) (*PublicProfileResponse, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	counts, err := s.counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := newPublicProfileResponse(user, counts)

	if v, ok := authz.AsUser(viewer); ok && v.UserID != user.ID {
		following, err := s.followRepo.IsFollowing(ctx, v.UserID, user.ID)
		if err != nil {
			logger.Log.Error("Failed to check follow relation", zap.Error(err))
			return nil, models.NewInternalError(err)
		}
		resp.IsFollowing = &following
	}

	return &resp, nil
}

// Follow is idempotent: following someone twice is not an error
func (s *UserService) Follow(ctx context.Context, p authz.Principal, username string) error {
	me, ok := authz.AsUser(p)
	if !ok {
		return models.NewUnauthenticatedError("Authentication required")
	}

	target, err := s.userByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == me.UserID {
		return models.NewValidationError("cannot follow yourself")
	}

	created, err := s.followRepo.Follow(ctx, me.UserID, target.ID)
	if err != nil {
		logger.Log.Error("Failed to follow user",
			zap.Uint("follower_id", me.UserID),
			zap.Uint("following_id", target.ID),
			zap.Error(err),
		)
		return models.NewInternalError(err)
	}

	logger.Log.Info("Follow",
		zap.Uint("follower_id", me.UserID),
		zap.Uint("following_id", target.ID),
		zap.Bool("created", created),
	)
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, p authz.Principal, username string) error {
	me, ok := authz.AsUser(p)
	if !ok {
		return models.NewUnauthenticatedError("Authentication required")
	}

	target, err := s.userByUsername(ctx, username)
	if err != nil {
		return err
	}

	removed, err := s.followRepo.Unfollow(ctx, me.UserID, target.ID)
	if err != nil {
		logger.Log.Error("Failed to unfollow user",
			zap.Uint("follower_id", me.UserID),
			zap.Uint("following_id", target.ID),
			zap.Error(err),
		)
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("Follow relationship")
	}

	logger.Log.Info("Unfollow",
		zap.Uint("follower_id", me.UserID),
		zap.Uint("following_id", target.ID),
	)
	return nil
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, p authz.Principal) ([]models.User, error) {
	u, ok := authz.AsUser(p)
	if !ok {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if u.Role != models.RoleAdmin {
		return nil, models.NewForbiddenError("Admin access required")
	}

	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		logger.Log.Error("Failed to fetch all users", zap.Error(err))
		return nil, models.NewInternalError(err)
	}

	logger.Log.Info("Fetched all users", zap.Int("count", len(users)))
	return users, nil
}

func (s *UserService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to get user", zap.Uint("user_id", id), zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return user, nil
}

func (s *UserService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to get user", zap.String("username", username), zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return user, nil
}

func (s *UserService) counts(ctx context.Context, userID uint) (profileCounts, error) {
	var c profileCounts
	var err error

	if c.posts, err = s.postRepo.CountByUser(ctx, userID); err != nil {
		return c, models.NewInternalError(err)
	}
	if c.followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return c, models.NewInternalError(err)
	}
	if c.following, err = s.followRepo.CountFollowing(ctx, userID); err != nil {
		return c, models.NewInternalError(err)
	}
	return c, nil
}

func profileFields(patch ProfilePatch) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	limits := []struct {
		column string
		value  *string
		max    int
	}{
		{"full_name", patch.FullName, 100},
		{"profile_picture_url", patch.ProfilePictureURL, 255},
		{"location", patch.Location, 255},
		{"website", patch.Website, 255},
		{"gender", patch.Gender, 10},
		{"phone_number", patch.PhoneNumber, 20},
	}
	for _, l := range limits {
		if l.value == nil {
			continue
		}
		if len(*l.value) > l.max {
			return nil, models.NewValidationError(l.column + " too long")
		}
		fields[l.column] = *l.value
	}

	if patch.Bio != nil {
		if len(*patch.Bio) > 2200 {
			return nil, models.NewValidationError("bio too long")
		}
		fields["bio"] = *patch.Bio
	}

	if patch.DateOfBirth != nil {
		if patch.DateOfBirth.After(time.Now()) {
			return nil, models.NewValidationError("date_of_birth cannot be in the future")
		}
		fields["date_of_birth"] = *patch.DateOfBirth
	}

	return fields, nil
}
