package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/validation"
)

type authInstructorRepository interface {
	FindStateLevel(ctx context.Context, country, state, cpf string) (*models.Instructor, error)
	FindSiteLevel(ctx context.Context, site models.SiteRef, cpf string) (*models.Instructor, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	Audience          []string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authInstructorRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authInstructorRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates an instructor for the chosen site. State-level
// registrations win over site-level ones.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}
	site := models.SiteRef{Country: req.Country, State: req.State, Site: req.Site}
	instructor, err := s.findInstructor(ctx, site, validation.CleanCPF(req.CPF))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid cpf or password")
		}
		return nil, internalError(err, "failed to fetch instructor")
	}
	if instructor.PasswordHash == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid cpf or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(instructor.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid cpf or password")
	}
	s.logger.Info("instructor logged in",
		zap.String("role", string(instructor.Role)),
		zap.String("site", site.Path()),
	)
	return s.issue(*instructor, site)
}

// Exchange turns a QR handoff payload into a fresh session for the new device.
// Token payloads must carry a valid token for the same CPF.
func (s *AuthService) Exchange(ctx context.Context, payload models.QRHandoffPayload) (*models.LoginResponse, error) {
	cpf := validation.CleanCPF(payload.CPF)
	site := models.SiteRef{Country: payload.Country, State: payload.State, Site: payload.Site}
	if payload.IsToken {
		claims, err := s.ValidateToken(payload.Token)
		if err != nil {
			return nil, err
		}
		if validation.CleanCPF(claims.CPF) != cpf {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not belong to cpf")
		}
		if !site.Complete() {
			site = claims.SiteRef()
		}
	}
	if err := checkSite(site); err != nil {
		return nil, err
	}
	instructor, err := s.findInstructor(ctx, site, cpf)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "instructor not registered for site")
		}
		return nil, internalError(err, "failed to fetch instructor")
	}
	return s.issue(*instructor, site)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) findInstructor(ctx context.Context, site models.SiteRef, cpf string) (*models.Instructor, error) {
	instructor, err := s.repo.FindStateLevel(ctx, site.Country, site.State, cpf)
	if err == nil {
		return instructor, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	return s.repo.FindSiteLevel(ctx, site, cpf)
}

func (s *AuthService) issue(instructor models.Instructor, site models.SiteRef) (*models.LoginResponse, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		CPF:     instructor.CPF,
		Name:    instructor.Name,
		Role:    instructor.Role,
		Country: site.Country,
		State:   site.State,
		Site:    site.Site,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   instructor.CPF,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}
	instructor.PasswordHash = ""
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Instructor:  instructor,
		Site:        site,
		IssuedAt:    timestamp(issuedAt),
	}, nil
}
