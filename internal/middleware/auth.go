package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/auth"
	"github.com/01moynul/pharmastore-golang/internal/models"
)

// Context keys set by Auth.
const (
	KeyUserID     = "userID"
	KeyUserRole   = "userRole"
	KeyPharmacyID = "pharmacyID"
)

// UserLoader resolves the token subject to a current user record.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Auth validates the bearer token and loads the user, so a disabled account or a changed
// role takes effect without waiting for the token to expire.
func Auth(tokens *auth.Manager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, apperrors.Unauthorized("authorization header required"))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.Unauthorized("invalid token format (must be Bearer)"))
			return
		}

		userID, _, err := tokens.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, apperrors.Unauthorized("invalid or expired token"))
			return
		}
		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, apperrors.Unauthorized("invalid or expired token"))
			return
		}
		if !user.Active {
			abortWithError(c, apperrors.Forbidden("account is disabled"))
			return
		}

		c.Set(KeyUserID, user.ID)
		c.Set(KeyUserRole, user.Role)
		if user.PharmacyID != nil {
			c.Set(KeyPharmacyID, *user.PharmacyID)
		}
		c.Next()
	}
}

// RequireRole must run after Auth. Staff must also be bound to a pharmacy.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyUserRole)
		allowed := false
		for _, r := range roles {
			if r == role {
				allowed = true
				break
			}
		}
		if !allowed {
			abortWithError(c, apperrors.Forbidden("access denied: "+strings.Join(roles, " or ")+" role required"))
			return
		}
		if role == models.RoleStaff {
			if _, ok := c.Get(KeyPharmacyID); !ok {
				abortWithError(c, apperrors.Forbidden("staff account is not bound to a pharmacy"))
				return
			}
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err *apperrors.Error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err.Code), gin.H{"error": err.Message, "code": err.Code})
}
