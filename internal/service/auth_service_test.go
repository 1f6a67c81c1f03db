package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clinova/praxis/internal/config"
	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
	logins  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return domain.ErrEmailTaken
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdatePermissions(_ context.Context, id uuid.UUID, perms domain.Permissions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Permissions = perms
	return nil
}

func (r *fakeUserRepo) RecordLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	r.logins++
	return nil
}

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "praxis-test",
	})
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *domain.User) {
	t.Helper()

	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testJWTManager(), nopAudit(), zap.NewNop())

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Email:        "dr@clinic.test",
		PasswordHash: string(hash),
		FirstName:    "Iris",
		LastName:     "Vega",
		Role:         domain.RoleDoctor,
		TenantID:     uuid.New(),
		Permissions:  domain.DefaultPermissions(domain.RoleDoctor),
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return svc, repo, user
}

func TestLogin(t *testing.T) {
	svc, repo, user := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "DR@clinic.test ", "correct horse battery", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 1, repo.logins)

	// The access token round-trips the full claim set.
	claims, err := testJWTManager().ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleDoctor, claims.Role)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.True(t, claims.Permissions.CanViewPrescriptions)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "dr@clinic.test", "wrong password", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts get the same answer as bad passwords.
	_, err = svc.Login(ctx, "nobody@clinic.test", "correct horse battery", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo, user := newAuthFixture(t)

	repo.mu.Lock()
	repo.users[user.ID].IsActive = false
	repo.mu.Unlock()

	_, err := svc.Login(context.Background(), "dr@clinic.test", "correct horse battery", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshTokenReflectsPermissionChanges(t *testing.T) {
	svc, repo, user := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "dr@clinic.test", "correct horse battery", "")
	require.NoError(t, err)

	// Permissions change between issue and refresh.
	perms := user.Permissions
	perms.CanViewPrescriptions = false
	require.NoError(t, repo.UpdatePermissions(ctx, user.ID, perms))

	fresh, err := svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := testJWTManager().ValidateAccessToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.Permissions.CanViewPrescriptions)

	// An access token is not accepted where a refresh token is expected.
	_, err = svc.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	admin := doctorCaller()
	admin.Permissions.CanManageSettings = true

	u, err := svc.CreateUser(ctx, "Desk@Clinic.Test", "a long enough password", "Mara", "Lince", domain.RoleAssistant, admin, "")
	require.NoError(t, err)
	assert.Equal(t, "desk@clinic.test", u.Email)
	assert.Equal(t, domain.DefaultPermissions(domain.RoleAssistant), u.Permissions)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "a long enough password", u.PasswordHash)

	// Taking the same email again is refused.
	_, err = svc.CreateUser(ctx, "desk@clinic.test", "a long enough password", "Mara", "Lince", domain.RoleAssistant, admin, "")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// Without the settings flag the operation is forbidden.
	_, err = svc.CreateUser(ctx, "x@clinic.test", "a long enough password", "X", "Y", domain.RoleAssistant, doctorCaller(), "")
	assert.Error(t, err)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	admin := doctorCaller()
	admin.Permissions.CanManageSettings = true

	_, err := svc.CreateUser(context.Background(), "not-an-address", "short", " ", "", "admin", admin, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"email format is invalid",
		"password must be at least 12 characters",
		"first_name is required",
		"last_name is required",
		"role must be doctor or assistant",
	}, verr.Fields)
}

func TestUpdatePermissions(t *testing.T) {
	svc, repo, user := newAuthFixture(t)
	ctx := context.Background()

	admin := doctorCaller()
	admin.Permissions.CanManageSettings = true

	perms := user.Permissions
	perms.CanDeletePatients = true
	require.NoError(t, svc.UpdatePermissions(ctx, user.ID, perms, admin, ""))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Permissions.CanDeletePatients)

	err = svc.UpdatePermissions(ctx, uuid.New(), perms, admin, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
