package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/auth"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Ledger#2024x"

type memoryRevoker struct {
	revoked map[string]time.Duration
}

func (m *memoryRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *memoryRevoker) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

type fixture struct {
	svc     *user.Service
	jwt     *auth.JWTManager
	revoker *memoryRevoker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Name: "finance-gestion"},
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
	db := testutil.NewDB(t, &user.User{})
	log, _ := testutil.NullLogger()
	jwt := auth.NewJWTManager(cfg)
	revoker := &memoryRevoker{revoked: map[string]time.Duration{}}
	return &fixture{
		svc:     user.NewService(db, jwt, auth.NewPasswordManager(cfg), revoker, log),
		jwt:     jwt,
		revoker: revoker,
	}
}

func (f *fixture) createUser(t *testing.T, email string, admin bool) *user.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), &user.CreateUserRequest{
		Email:     email,
		Password:  strongPassword,
		FirstName: "Mariam",
		LastName:  "Diallo",
		IsAdmin:   admin,
	})
	require.NoError(t, err)
	return u
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "  Staff@Example.com ", false)
	assert.Equal(t, "staff@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, strongPassword, u.Password)

	_, err := f.svc.CreateUser(ctx, &user.CreateUserRequest{Email: "staff@example.com", Password: strongPassword})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = f.svc.CreateUser(ctx, &user.CreateUserRequest{Email: "weak@example.com", Password: "short"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.WithClock(testutil.FixedClock(2024, time.March, 10))
	created := f.createUser(t, "staff@example.com", true)

	resp, err := f.svc.Login(ctx, &user.LoginRequest{Email: "STAFF@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.User.ID)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.Equal(t, 2024, resp.User.LastLoginAt.Year())

	claims, err := f.jwt.ValidateAccessToken(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	_, err = f.svc.Login(ctx, &user.LoginRequest{Email: "staff@example.com", Password: "Wrong#2024x"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.svc.Login(ctx, &user.LoginRequest{Email: "nobody@example.com", Password: strongPassword})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@example.com", true)
	staff := f.createUser(t, "staff@example.com", false)

	_, err := f.svc.SetActive(ctx, admin.ID, staff.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &user.LoginRequest{Email: "staff@example.com", Password: strongPassword})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "staff@example.com", false)

	login, err := f.svc.Login(ctx, &user.LoginRequest{Email: "staff@example.com", Password: strongPassword})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.svc.Refresh(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestLogoutRevokesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "staff@example.com", false)

	login, err := f.svc.Login(ctx, &user.LoginRequest{Email: "staff@example.com", Password: strongPassword})
	require.NoError(t, err)
	claims, err := f.jwt.ValidateAccessToken(login.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims, login.Tokens.RefreshToken))

	revoked, err := f.svc.IsRevoked(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Len(t, f.revoker.revoked, 2)
	assert.LessOrEqual(t, f.revoker.revoked[claims.ID], 15*time.Minute)

	_, err = f.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestLogoutWithoutRevoker(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Minute}}
	db := testutil.NewDB(t, &user.User{})
	log, hook := testutil.NullLogger()
	jwt := auth.NewJWTManager(cfg)
	svc := user.NewService(db, jwt, auth.NewPasswordManager(cfg), nil, log)

	claims := &auth.Claims{UserID: 3}
	require.NoError(t, svc.Logout(context.Background(), claims, ""))
	revoked, err := svc.IsRevoked(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, revoked)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "tokens stay valid")
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "staff@example.com", false)

	name := "Fatou"
	updated, err := f.svc.UpdateProfile(ctx, u.ID, &user.UpdateProfileRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Fatou", updated.FirstName)
	assert.Equal(t, "Diallo", updated.LastName)

	err = f.svc.ChangePassword(ctx, u.ID, &user.ChangePasswordRequest{CurrentPassword: "Wrong#2024x", NewPassword: "Stock!2025y"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = f.svc.ChangePassword(ctx, u.ID, &user.ChangePasswordRequest{CurrentPassword: strongPassword, NewPassword: "nouppercase1!"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, &user.ChangePasswordRequest{CurrentPassword: strongPassword, NewPassword: "Stock!2025y"}))
	_, err = f.svc.Login(ctx, &user.LoginRequest{Email: "staff@example.com", Password: "Stock!2025y"})
	assert.NoError(t, err)

	_, err = f.svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureAdmin(ctx, "Admin@Example.com", strongPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "admin@example.com", strongPassword)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := f.svc.ListUsers(ctx, &user.ListRequest{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.True(t, list.Users[0].IsAdmin)
}

func TestListUsersAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@example.com", true)
	staff := f.createUser(t, "clerk@example.com", false)

	list, err := f.svc.ListUsers(ctx, &user.ListRequest{ListRequest: shared.ListRequest{Search: "CLERK"}})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, staff.ID, list.Users[0].ID)

	list, err = f.svc.ListUsers(ctx, &user.ListRequest{Role: "staff"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)

	_, err = f.svc.SetActive(ctx, admin.ID, admin.ID, false)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.svc.SetActive(ctx, admin.ID, 999, false)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	updated, err := f.svc.SetActive(ctx, admin.ID, staff.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
