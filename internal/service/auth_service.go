package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/session"
	"github.com/Baaaki/instagallery/internal/utils"
	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	UserType models.UserType
}

// ClientInfo describes the device a session is opened from
type ClientInfo struct {
	IP     string
	Device string
}

type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresIn time.Duration
}

type AuthService struct {
	userRepo      UserStore
	sessions      SessionStore
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string
	hashParams    utils.Argon2Params
}

type AuthOption func(*AuthService)

// WithHashParams overrides the Argon2id cost used for new hashes
func WithHashParams(p utils.Argon2Params) AuthOption {
	return func(s *AuthService) {
		s.hashParams = p
	}
}

func NewAuthService(userRepo UserStore, sessions SessionStore, jwtSecret string, jwtExpiration time.Duration, environment string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		userRepo:      userRepo,
		sessions:      sessions,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
		hashParams:    utils.DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtExpiration
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*AuthResult, error) {
	start := time.Now()
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	logger.Log.Debug("Processing user registration",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
	)

	// 1. Validate input
	if err := validateRegisterInput(in); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("username", in.Username),
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check if email already exists
	existingUser, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}
	if existingUser != nil {
		logger.Log.Warn("Email already exists", zap.String("email", in.Email))
		return nil, models.NewConflictError("email already exists")
	}

	// 3. Check if username already exists
	existingUser, err = s.userRepo.GetUserByUsername(ctx, in.Username)
	if err != nil {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}
	if existingUser != nil {
		logger.Log.Warn("Username already exists", zap.String("username", in.Username))
		return nil, models.NewConflictError("username already exists")
	}

	// 4. Hash password (Argon2id)
	hashStart := time.Now()
	hashedPassword, err := utils.HashPasswordWithParams(in.Password, s.hashParams)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	hashDuration := time.Since(hashStart)

	// 5. Create user
	userType := in.UserType
	if userType == "" {
		userType = models.UserTypeEnthusiast
	}
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(in.FullName),
		UserType:     userType,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.NewConflictError("username or email already exists")
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}

	// 6. Open session and sign token
	token, err := s.issueToken(ctx, user, client)
	if err != nil {
		return nil, err
	}

	metrics.Registrations.Inc()
	logger.Log.Info("User registered successfully",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &AuthResult{User: user, Token: token, ExpiresIn: s.jwtExpiration}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	start := time.Now()
	email = strings.TrimSpace(email)

	logger.Log.Debug("Processing user login", zap.String("email", email))

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		logger.Log.Warn("Login failed: user not found", zap.String("email", email))
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.Uint("user_id", user.ID),
		)
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}

	// 3. Upgrade the stored hash if the cost settings changed
	if utils.NeedsRehash(user.PasswordHash, s.hashParams) {
		s.rehash(ctx, user, password)
	}

	// 4. Open session and sign token
	token, err := s.issueToken(ctx, user, client)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.Log.Info("User logged in successfully",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &AuthResult{User: user, Token: token, ExpiresIn: s.jwtExpiration}, nil
}

// Logout revokes the session the token was issued for
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return models.NewUnauthenticatedError("Invalid or expired token")
	}

	if err := s.sessions.Revoke(ctx, claims.SessionID()); err != nil {
		metrics.RedisErrors.WithLabelValues("revoke").Inc()
		logger.Log.Error("Failed to revoke session",
			zap.Uint("user_id", claims.UserID),
			zap.String("session_id", claims.SessionID()),
			zap.Error(err),
		)
		return models.NewInternalError(err)
	}

	logger.Log.Info("User logged out",
		zap.Uint("user_id", claims.UserID),
		zap.String("session_id", claims.SessionID()),
	)
	return nil
}

// Authenticate resolves a bearer token to a principal. Any failure, including
// a revoked session or an unreachable session store, yields NoPrincipal.
func (s *AuthService) Authenticate(ctx context.Context, token string) authz.Principal {
	if token == "" {
		return authz.Anonymous()
	}

	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		logger.Log.Debug("Token rejected", zap.Error(err))
		return authz.Anonymous()
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			metrics.RedisErrors.WithLabelValues("get").Inc()
			logger.Log.Error("Failed to load session",
				zap.String("session_id", claims.SessionID()),
				zap.Error(err),
			)
		}
		return authz.Anonymous()
	}
	if sess.UserID != claims.UserID {
		logger.Log.Warn("Session belongs to another user",
			zap.Uint("token_user_id", claims.UserID),
			zap.Uint("session_user_id", sess.UserID),
		)
		return authz.Anonymous()
	}

	return authz.User(claims.UserID, claims.Role)
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User, client ClientInfo) (string, error) {
	sess, err := s.sessions.Create(ctx, user.ID, client.IP, client.Device, s.jwtExpiration)
	if err != nil {
		metrics.RedisErrors.WithLabelValues("create").Inc()
		logger.Log.Error("Failed to create session",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return "", models.NewInternalError(err)
	}

	token, err := utils.GenerateToken(user, sess.ID, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		if rerr := s.sessions.Revoke(ctx, sess.ID); rerr != nil {
			logger.Log.Warn("Failed to revoke orphaned session", zap.Error(rerr))
		}
		return "", models.NewInternalError(err)
	}

	return token, nil
}

func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := utils.HashPasswordWithParams(password, s.hashParams)
	if err != nil {
		logger.Log.Warn("Failed to rehash password", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.userRepo.UpdateUser(ctx, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		logger.Log.Warn("Failed to store rehashed password", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
	logger.Log.Info("Password hash upgraded", zap.Uint("user_id", user.ID))
}

func validateRegisterInput(in RegisterInput) error {
	// Username validation
	if len(in.Username) < 3 {
		return models.NewValidationError("username must be at least 3 characters")
	}
	if len(in.Username) > 50 {
		return models.NewValidationError("username must be at most 50 characters")
	}
	if strings.ContainsAny(in.Username, " /\\@") {
		return models.NewValidationError("username contains invalid characters")
	}

	// Email validation (regex)
	if !emailRegex.MatchString(in.Email) {
		return models.NewValidationError("invalid email format")
	}
	if len(in.Email) > 100 {
		return models.NewValidationError("email too long")
	}

	// Password validation
	if len(in.Password) < 8 {
		return models.NewValidationError("password must be at least 8 characters")
	}
	if len(in.Password) > 128 {
		return models.NewValidationError("password too long")
	}

	if len(in.FullName) > 100 {
		return models.NewValidationError("full name too long")
	}
	if in.UserType != "" && !in.UserType.Valid() {
		return models.NewValidationError("invalid user type")
	}

	return nil
}
