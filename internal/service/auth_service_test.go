package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"receiptbook/api/internal/config"
	"receiptbook/api/internal/models"
	"receiptbook/api/internal/repository"
	"receiptbook/api/internal/security"
)

type fakeUserStore struct {
	nextID int64
	users  map[int64]models.User
	roles  map[int64][]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[int64]models.User),
		roles: make(map[int64][]string),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User, roleNames []string) (int64, error) {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return 0, repository.ErrUsernameTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	s.roles[user.ID] = append([]string(nil), roleNames...)
	return user.ID, nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, id int64, update repository.AccountUpdate) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.IsSuperuser != nil {
		user.IsSuperuser = *update.IsSuperuser
	}
	if update.PasswordHash != nil {
		user.PasswordHash = update.PasswordHash
	}
	if update.Roles != nil {
		// Full replacement, mirroring the delete-then-insert the real
		// repository performs in one transaction.
		s.roles[id] = append([]string(nil), (*update.Roles)...)
	}
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) GetRoles(_ context.Context, userID int64) ([]string, error) {
	return append([]string(nil), s.roles[userID]...), nil
}

type fakeTokenStore struct {
	tokens map[string]models.RefreshToken
	// rejectCreates forces the next n Create calls to report a
	// duplicate, exercising the regeneration loop.
	rejectCreates int
	createCalls   int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]models.RefreshToken)}
}

func (s *fakeTokenStore) Create(_ context.Context, token models.RefreshToken) error {
	s.createCalls++
	if s.rejectCreates > 0 {
		s.rejectCreates--
		return repository.ErrTokenExists
	}
	if _, ok := s.tokens[token.Token]; ok {
		return repository.ErrTokenExists
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *fakeTokenStore) FindActive(_ context.Context, token string) (models.RefreshToken, error) {
	rt, ok := s.tokens[token]
	if !ok || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		return models.RefreshToken{}, repository.ErrTokenNotFound
	}
	return rt, nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, token string) error {
	if rt, ok := s.tokens[token]; ok {
		rt.Revoked = true
		s.tokens[token] = rt
	}
	return nil
}

type fakeRoleStore struct {
	roles map[string]models.Role
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: make(map[string]models.Role)}
}

func (s *fakeRoleStore) Create(_ context.Context, role models.Role) (models.Role, error) {
	if _, ok := s.roles[role.Name]; ok {
		return models.Role{}, repository.ErrRoleExists
	}
	role.ID = int64(len(s.roles) + 1)
	s.roles[role.Name] = role
	return role, nil
}

func (s *fakeRoleStore) List(_ context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:       "auth-service-test-secret",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 168 * time.Hour,
			BcryptCost:      bcrypt.MinCost,
		},
	}
}

type fixture struct {
	svc    *AuthService
	users  *fakeUserStore
	tokens *fakeTokenStore
	roles  *fakeRoleStore
	cfg    *config.AppConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	roles := newFakeRoleStore()
	cfg := testConfig()
	return &fixture{
		svc:    NewAuthService(users, roles, tokens, cfg, zerolog.Nop()),
		users:  users,
		tokens: tokens,
		roles:  roles,
		cfg:    cfg,
	}
}

func (f *fixture) seedUser(t *testing.T, username, password string, active, superuser bool, roles ...string) int64 {
	t.Helper()
	hash, err := security.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	id, err := f.users.Create(context.Background(), models.User{
		Username:     username,
		PasswordHash: hash,
		IsActive:     active,
		IsSuperuser:  superuser,
	}, roles)
	require.NoError(t, err)
	return id
}

func TestLoginRefreshLogoutFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "admin", "admin123", true, true, models.RoleAdmin)

	result, err := f.svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, 1800, result.ExpiresIn)
	assert.Equal(t, "admin", result.User.Username)
	assert.True(t, result.User.IsSuperuser)
	assert.Equal(t, []string{models.RoleAdmin}, result.User.Roles)

	claims, err := security.ParseAccessToken(result.AccessToken, f.cfg.Security.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, []string{models.RoleAdmin}, claims.Roles)

	refreshed, err := f.svc.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, f.svc.Logout(ctx, result.RefreshToken))

	_, err = f.svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "correct-horse", true, false)

	// Unknown username and wrong password produce the same error.
	_, err := f.svc.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "alice", "wrong-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Empty(t, f.tokens.tokens, "failed logins must not mint tokens")
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "dormant", "secret123", false, false, models.RoleUserDataViewer)

	_, err := f.svc.Login(ctx, "dormant", "secret123")
	assert.ErrorIs(t, err, ErrInactiveAccount)

	// Wrong password on an inactive account still reads as bad
	// credentials, not as an inactive account.
	_, err = f.svc.Login(ctx, "dormant", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshUsesLiveRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedUser(t, "bob", "secret123", true, false, models.RoleUserDataViewer)

	result, err := f.svc.Login(ctx, "bob", "secret123")
	require.NoError(t, err)

	// Reassign roles after login; the snapshot in the outstanding
	// access token is stale but the next refresh picks up the change.
	f.users.roles[id] = []string{models.RoleUserDataEditor}

	refreshed, err := f.svc.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)

	claims, err := security.ParseAccessToken(refreshed.AccessToken, f.cfg.Security.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUserDataEditor}, claims.Roles)
}

func TestRefreshDeactivatedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedUser(t, "carol", "secret123", true, false, models.RoleUserDataViewer)

	result, err := f.svc.Login(ctx, "carol", "secret123")
	require.NoError(t, err)

	inactive := false
	require.NoError(t, f.users.UpdateAccount(ctx, id, repository.AccountUpdate{IsActive: &inactive}))

	_, err = f.svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "dave", "secret123", true, false)

	result, err := f.svc.Login(ctx, "dave", "secret123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, result.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, "never-issued"))
}

func TestIssueRefreshTokenRetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "erin", "secret123", true, false)
	f.tokens.rejectCreates = 2

	result, err := f.svc.Login(ctx, "erin", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, 3, f.tokens.createCalls)
}

func TestIssueRefreshTokenExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "frank", "secret123", true, false)
	f.tokens.rejectCreates = refreshTokenRetries

	_, err := f.svc.Login(ctx, "frank", "secret123")
	assert.Error(t, err)
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.svc.Register(ctx, "newbie", "secret123")
	require.NoError(t, err)
	assert.True(t, summary.IsActive)
	assert.False(t, summary.IsSuperuser)
	assert.Equal(t, []string{models.RoleUserDataViewer}, summary.Roles)

	_, err = f.svc.Register(ctx, "newbie", "other-pass")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateUserValidatesUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, CreateUserInput{Username: "", Password: "x"})
	assert.Error(t, err)

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.CreateUser(ctx, CreateUserInput{Username: string(long), Password: "x"})
	assert.Error(t, err)
}

func TestUpdateUserReplacesRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedUser(t, "gina", "secret123", true, false, models.RoleUserDataViewer, models.RoleReceiptCreator)

	roles := []string{models.RoleReceiptReportViewer}
	summary, err := f.svc.UpdateUser(ctx, id, UpdateUserInput{Roles: &roles})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleReceiptReportViewer}, summary.Roles)

	// Applying the same set again leaves exactly one assignment.
	summary, err = f.svc.UpdateUser(ctx, id, UpdateUserInput{Roles: &roles})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleReceiptReportViewer}, summary.Roles)

	// An empty set strips every role.
	empty := []string{}
	summary, err = f.svc.UpdateUser(ctx, id, UpdateUserInput{Roles: &empty})
	require.NoError(t, err)
	assert.Empty(t, summary.Roles)
}

func TestUpdateUserPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedUser(t, "hank", "old-pass", true, false, models.RoleUserDataViewer)

	newPass := "new-pass-123"
	inactive := false
	summary, err := f.svc.UpdateUser(ctx, id, UpdateUserInput{Password: &newPass, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, summary.IsActive)
	// Untouched fields survive.
	assert.Equal(t, []string{models.RoleUserDataViewer}, summary.Roles)

	user, err := f.users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, security.VerifyPassword("new-pass-123", user.PasswordHash))
	assert.False(t, security.VerifyPassword("old-pass", user.PasswordHash))
}

func TestUpdateUserNotFound(t *testing.T) {
	f := newFixture(t)
	active := true
	_, err := f.svc.UpdateUser(context.Background(), 999, UpdateUserInput{IsActive: &active})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "ivy", "secret123", true, false, models.RoleAdmin)

	summary, err := f.svc.CurrentUser(ctx, "ivy")
	require.NoError(t, err)
	assert.Equal(t, "ivy", summary.Username)
	assert.Equal(t, []string{models.RoleAdmin}, summary.Roles)

	_, err = f.svc.CurrentUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.svc.CreateRole(ctx, "auditor", "read-only audit access")
	require.NoError(t, err)
	assert.Equal(t, "auditor", role.Name)

	_, err = f.svc.CreateRole(ctx, "auditor", "duplicate")
	assert.ErrorIs(t, err, ErrRoleExists)
}
