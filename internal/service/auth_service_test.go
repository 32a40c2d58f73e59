package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vanik/internal/config"
	"vanik/internal/domain"
	"vanik/internal/service"
	"vanik/mocks"
)

type authFixture struct {
	users *mocks.MockUserRepo
	orgs  *mocks.MockOrgRepo
	svc   service.AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users: new(mocks.MockUserRepo),
		orgs:  new(mocks.MockOrgRepo),
	}
	f.svc = service.NewAuthService(f.users, f.orgs, config.JWTConfig{
		Secret:             "test-secret-key",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "vanik",
	})
	return f
}

func activeUser(t *testing.T, orgID uuid.UUID, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		OrgID:        orgID,
		Email:        "ramesh@sharma.example",
		PasswordHash: string(hash),
		FullName:     "Ramesh Sharma",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	orgID := uuid.New()
	user := activeUser(t, orgID, "correct-horse-battery")

	f.orgs.On("GetBySlug", mock.Anything, "sharma-traders").
		Return(&domain.Organization{ID: orgID, Slug: "sharma-traders", IsActive: true}, nil)
	f.users.On("GetByEmail", mock.Anything, orgID, user.Email).Return(user, nil)

	pair, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "sharma-traders",
		Email:    user.Email,
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))

	claims, err := f.svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, orgID, claims.OrgID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture()
	orgID := uuid.New()
	user := activeUser(t, orgID, "correct-horse-battery")

	f.orgs.On("GetBySlug", mock.Anything, "sharma-traders").
		Return(&domain.Organization{ID: orgID, Slug: "sharma-traders", IsActive: true}, nil)
	f.users.On("GetByEmail", mock.Anything, orgID, user.Email).Return(user, nil)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "sharma-traders",
		Email:    user.Email,
		Password: "guess",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownOrgHidesExistence(t *testing.T) {
	f := newAuthFixture()
	f.orgs.On("GetBySlug", mock.Anything, "nobody").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "nobody",
		Email:    "a@b.example",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveOrg(t *testing.T) {
	f := newAuthFixture()
	f.orgs.On("GetBySlug", mock.Anything, "dormant").
		Return(&domain.Organization{ID: uuid.New(), Slug: "dormant", IsActive: false}, nil)

	_, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "dormant",
		Email:    "a@b.example",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, domain.ErrOrgInactive)
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newAuthFixture()
	orgID := uuid.New()
	user := activeUser(t, orgID, "correct-horse-battery")

	f.orgs.On("GetBySlug", mock.Anything, "sharma-traders").
		Return(&domain.Organization{ID: orgID, Slug: "sharma-traders", IsActive: true}, nil)
	f.users.On("GetByEmail", mock.Anything, orgID, user.Email).Return(user, nil)
	f.users.On("GetByID", mock.Anything, orgID, user.ID).Return(user, nil)

	pair, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "sharma-traders",
		Email:    user.Email,
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	fresh, err := f.svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture()
	orgID := uuid.New()
	user := activeUser(t, orgID, "correct-horse-battery")

	f.orgs.On("GetBySlug", mock.Anything, "sharma-traders").
		Return(&domain.Organization{ID: orgID, Slug: "sharma-traders", IsActive: true}, nil)
	f.users.On("GetByEmail", mock.Anything, orgID, user.Email).Return(user, nil)

	pair, err := f.svc.Login(context.Background(), service.LoginInput{
		OrgSlug:  "sharma-traders",
		Email:    user.Email,
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	// Access tokens must not be usable as refresh tokens.
	_, err = f.svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
