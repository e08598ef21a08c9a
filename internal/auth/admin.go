package auth

import (
	"strings"

	"github.com/drawcard/drawcard/internal/config"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// AdminClaims are the claims expected on tokens guarding the admin surface
// (winner selection, participant export, draw history).
type AdminClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAdminToken validates the token signature and admin role.
func ParseAdminToken(tokenString, secret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired admin token").
			Mark(ierr.ErrPermissionDenied)
	}
	if claims.Role != "admin" {
		return nil, ierr.NewError("token does not carry the admin role").
			Mark(ierr.ErrPermissionDenied)
	}
	return claims, nil
}

// AdminMiddleware rejects requests without a valid admin bearer token and
// stamps the acting user onto the request context.
func AdminMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(types.HeaderAuthorization)
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(401, ierr.NewErrorResponse(
				ierr.NewError("missing bearer token").Mark(ierr.ErrPermissionDenied)))
			return
		}

		claims, err := ParseAdminToken(tokenString, cfg.Auth.AdminSecret)
		if err != nil {
			c.AbortWithStatusJSON(403, ierr.NewErrorResponse(err))
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
