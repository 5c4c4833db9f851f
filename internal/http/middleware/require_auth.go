package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kadik23/law-firm-web-app-sub002/internal/identity"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

const ctxKeyIdentity = "auth_identity"

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth verifies the bearer token (issued by the platform's auth
// service, not here) and stores the caller's Identity. Handlers pass
// that Identity explicitly into every operation.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if !strings.HasPrefix(raw, "Bearer ") {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		claims := &authClaims{}
		tok, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, "Bearer "), claims,
			func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
		if err != nil || !tok.Valid || claims.Subject == "" {
			Fail(c, apperr.UnauthorizedErr("Invalid or expired token."))
			return
		}

		role := claims.Role
		if role == "" {
			role = identity.RoleClient
		}
		c.Set(ctxKeyIdentity, identity.Identity{UserID: claims.Subject, Role: role})
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}
