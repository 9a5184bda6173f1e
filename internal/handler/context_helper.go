package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mitra-laporan-api/internal/middleware"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// scopedPartner resolves the partner a request addresses. Partner callers default to, and are
// limited to, their own partner.
func scopedPartner(c *gin.Context, requested string) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.IsAdmin() {
		return requested, nil
	}
	if requested == "" {
		return claims.PartnerName, nil
	}
	if !claims.CanActFor(requested) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "caller may not act for this partner")
	}
	return requested, nil
}
