package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

const testCPF = "52998224725"

type mockInstructorRepo struct {
	stateLevel map[string]*models.Instructor
	siteLevel  map[string]*models.Instructor
	err        error
}

func (m *mockInstructorRepo) FindStateLevel(ctx context.Context, country, state, cpf string) (*models.Instructor, error) {
	if m.err != nil {
		return nil, m.err
	}
	if inst, ok := m.stateLevel[cpf]; ok {
		copy := *inst
		return &copy, nil
	}
	return nil, docstore.ErrNotFound
}

func (m *mockInstructorRepo) FindSiteLevel(ctx context.Context, site models.SiteRef, cpf string) (*models.Instructor, error) {
	if inst, ok := m.siteLevel[cpf]; ok {
		copy := *inst
		return &copy, nil
	}
	return nil, docstore.ErrNotFound
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(repo *mockInstructorRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "class-control",
	})
}

func loginRequest(password string) models.LoginRequest {
	return models.LoginRequest{
		CPF:      "529.982.247-25",
		Password: password,
		Country:  testSite.Country,
		State:    testSite.State,
		Site:     testSite.Site,
	}
}

func TestAuthServiceLoginPrefersStateLevel(t *testing.T) {
	repo := &mockInstructorRepo{
		stateLevel: map[string]*models.Instructor{
			testCPF: {CPF: testCPF, Name: "Ana", Role: models.RoleStateInstructor, PasswordHash: hashPassword(t, "pw-state")},
		},
		siteLevel: map[string]*models.Instructor{
			testCPF: {CPF: testCPF, Name: "Ana", Role: models.RoleSiteInstructor, PasswordHash: hashPassword(t, "pw-site")},
		},
	}
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), loginRequest("pw-state"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleStateInstructor, resp.Instructor.Role)
	assert.Empty(t, resp.Instructor.PasswordHash)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testCPF, claims.CPF)
	assert.Equal(t, testSite, claims.SiteRef())
}

func TestAuthServiceLoginFallsBackToSiteLevel(t *testing.T) {
	repo := &mockInstructorRepo{
		siteLevel: map[string]*models.Instructor{
			testCPF: {CPF: testCPF, Name: "Bia", Role: models.RoleSiteInstructor, PasswordHash: hashPassword(t, "pw")},
		},
	}
	resp, err := newTestAuthService(repo).Login(context.Background(), loginRequest("pw"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSiteInstructor, resp.Instructor.Role)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	repo := &mockInstructorRepo{
		siteLevel: map[string]*models.Instructor{
			testCPF: {CPF: testCPF, Role: models.RoleSiteInstructor, PasswordHash: hashPassword(t, "pw")},
		},
	}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), loginRequest("wrong"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	repo.siteLevel = nil
	_, err = svc.Login(context.Background(), loginRequest("pw"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := newTestAuthService(&mockInstructorRepo{})
	req := loginRequest("pw")
	req.CPF = "111.111.111-11"
	_, err := svc.Login(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginStoreFailure(t *testing.T) {
	svc := newTestAuthService(&mockInstructorRepo{err: errors.New("unavailable")})
	_, err := svc.Login(context.Background(), loginRequest("pw"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceExchangeToken(t *testing.T) {
	repo := &mockInstructorRepo{
		siteLevel: map[string]*models.Instructor{
			testCPF: {CPF: testCPF, Name: "Caio", Role: models.RoleSiteInstructor, PasswordHash: hashPassword(t, "pw")},
		},
	}
	svc := newTestAuthService(repo)
	first, err := svc.Login(context.Background(), loginRequest("pw"))
	require.NoError(t, err)

	resp, err := svc.Exchange(context.Background(), models.QRHandoffPayload{CPF: testCPF, Token: first.AccessToken, IsToken: true})
	require.NoError(t, err)
	assert.Equal(t, testSite, resp.Site)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Exchange(context.Background(), models.QRHandoffPayload{CPF: "39053344705", Token: first.AccessToken, IsToken: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	_, err := newTestAuthService(&mockInstructorRepo{}).ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
