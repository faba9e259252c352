package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/middleware"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// siteScope resolves the site a request acts on. State instructors may pick
// another site of their state with ?site=.
func siteScope(c *gin.Context) (models.SiteRef, *models.JWTClaims, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.SiteRef{}, nil, appErrors.ErrUnauthorized
	}
	site := claims.SiteRef()
	if override := strings.TrimSpace(c.Query("site")); override != "" && override != site.Site {
		if claims.Role != models.RoleStateInstructor {
			return models.SiteRef{}, nil, appErrors.Clone(appErrors.ErrForbidden, "site instructors are bound to their own site")
		}
		site.Site = override
	}
	return site, claims, nil
}

// requireConfirm guards irreversible operations behind ?confirm=true.
func requireConfirm(c *gin.Context) error {
	if ok, _ := strconv.ParseBool(c.Query("confirm")); ok {
		return nil
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, "this operation is irreversible, repeat it with confirm=true")
}

func fragmentQuery(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("fragment"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "fragment must be a non-negative integer")
	}
	return n, nil
}

func actorName(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	return claims.CPF
}
