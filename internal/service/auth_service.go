package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"receiptbook/api/internal/config"
	"receiptbook/api/internal/models"
	"receiptbook/api/internal/repository"
	"receiptbook/api/internal/security"
)

var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password. The two causes are deliberately indistinguishable.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInactiveAccount     = errors.New("account is inactive")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrRoleExists          = errors.New("role already exists")
)

const refreshTokenRetries = 3

// UserStore is the credential-store surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user models.User, roleNames []string) (int64, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateAccount(ctx context.Context, id int64, update repository.AccountUpdate) error
	GetRoles(ctx context.Context, userID int64) ([]string, error)
}

type RoleStore interface {
	Create(ctx context.Context, role models.Role) (models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
}

type TokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	FindActive(ctx context.Context, token string) (models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	users  UserStore
	roles  RoleStore
	tokens TokenStore
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users UserStore, roles RoleStore, tokens TokenStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

type UserSummary struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	IsActive    bool     `json:"is_active"`
	IsSuperuser bool     `json:"is_superuser"`
	Roles       []string `json:"roles"`
}

func summarize(user models.User, roles []string) UserSummary {
	if roles == nil {
		roles = []string{}
	}
	return UserSummary{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		Roles:       roles,
	}
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         UserSummary
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	// Only reached with a verified password, so leaking the disabled
	// state here is acceptable.
	if !user.IsActive {
		return LoginResult{}, ErrInactiveAccount
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTSecret, user.ID, user.Username, roles, s.cfg.Security.AccessTokenTTL,
	)
	if err != nil {
		return LoginResult{}, err
	}

	refreshToken, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Security.AccessTokenTTL.Seconds()),
		User:         summarize(user, roles),
	}, nil
}

// issueRefreshToken persists a fresh opaque token, retrying generation
// if the store rejects a duplicate value.
func (s *AuthService) issueRefreshToken(ctx context.Context, userID int64) (string, error) {
	for attempt := 0; attempt < refreshTokenRetries; attempt++ {
		token, err := security.GenerateRefreshToken(security.DefaultRefreshTokenBytes)
		if err != nil {
			return "", err
		}

		err = s.tokens.Create(ctx, models.RefreshToken{
			Token:     token,
			UserID:    userID,
			ExpiresAt: time.Now().Add(s.cfg.Security.RefreshTokenTTL),
		})
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrTokenExists) {
			return "", err
		}
		s.log.Warn().Int64("user_id", userID).Msg("refresh token collision, regenerating")
	}
	return "", fmt.Errorf("refresh token generation exhausted retries")
}

type RefreshResult struct {
	AccessToken string
	ExpiresIn   int
}

// Refresh mints a new access token against the user's current role
// assignments, not the login-time snapshot. The refresh token itself is
// reused until logout or expiry; it is not rotated here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	rt, err := s.tokens.FindActive(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return RefreshResult{}, ErrInvalidRefreshToken
		}
		return RefreshResult{}, err
	}

	user, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return RefreshResult{}, ErrInvalidRefreshToken
		}
		return RefreshResult{}, err
	}
	if !user.IsActive {
		return RefreshResult{}, ErrInactiveAccount
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return RefreshResult{}, err
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTSecret, user.ID, user.Username, roles, s.cfg.Security.AccessTokenTTL,
	)
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   int(s.cfg.Security.AccessTokenTTL.Seconds()),
	}, nil
}

// Logout revokes the refresh token. Revoking an unknown or already
// revoked token succeeds; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// CurrentUser re-reads the live user row rather than trusting token
// claims, so deactivation and role changes are visible immediately.
func (s *AuthService) CurrentUser(ctx context.Context, username string) (UserSummary, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return UserSummary{}, ErrUserNotFound
		}
		return UserSummary{}, err
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(user, roles), nil
}

// Register creates a self-service account with the default viewer role.
func (s *AuthService) Register(ctx context.Context, username, password string) (UserSummary, error) {
	return s.CreateUser(ctx, CreateUserInput{
		Username: username,
		Password: password,
		Roles:    []string{models.RoleUserDataViewer},
		IsActive: true,
	})
}

type CreateUserInput struct {
	Username    string
	Password    string
	Email       string
	Roles       []string
	IsActive    bool
	IsSuperuser bool
}

func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (UserSummary, error) {
	if len(input.Username) == 0 || len(input.Username) > 50 {
		return UserSummary{}, fmt.Errorf("username must be 1-50 characters")
	}

	hash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return UserSummary{}, err
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     input.IsActive,
		IsSuperuser:  input.IsSuperuser,
	}

	id, err := s.users.Create(ctx, user, input.Roles)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return UserSummary{}, ErrUsernameTaken
		}
		return UserSummary{}, err
	}
	user.ID = id

	roles, err := s.users.GetRoles(ctx, id)
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(user, roles), nil
}

type UpdateUserInput struct {
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	Roles       *[]string
}

func (s *AuthService) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (UserSummary, error) {
	update := repository.AccountUpdate{
		IsActive:    input.IsActive,
		IsSuperuser: input.IsSuperuser,
		Roles:       input.Roles,
	}

	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password, s.cfg.Security.BcryptCost)
		if err != nil {
			return UserSummary{}, err
		}
		update.PasswordHash = hash
	}

	if err := s.users.UpdateAccount(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return UserSummary{}, ErrUserNotFound
		}
		return UserSummary{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserSummary{}, err
	}
	roles, err := s.users.GetRoles(ctx, id)
	if err != nil {
		return UserSummary{}, err
	}
	return summarize(user, roles), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		roles, err := s.users.GetRoles(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(user, roles))
	}
	return summaries, nil
}

func (s *AuthService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

func (s *AuthService) CreateRole(ctx context.Context, name, description string) (models.Role, error) {
	role, err := s.roles.Create(ctx, models.Role{Name: name, Description: description})
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return models.Role{}, ErrRoleExists
		}
		return models.Role{}, err
	}
	return role, nil
}
