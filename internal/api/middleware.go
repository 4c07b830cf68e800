package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/afowler-mm/support-reports/internal/auth"
)

const claimsContextKey = "session_claims"

// AuthMiddleware guards the API with the JWT session cookie. A bearer token
// in the Authorization header works too, for scripted use.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	cookieName string
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "session"
	}
	return &AuthMiddleware{jwtManager: jwtManager, cookieName: cookieName}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			unauthorized(c, "Missing session token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired session")
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequireAdmin runs after RequireAuth and rejects non-admin sessions.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := sessionClaims(c)
		if claims == nil || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func sessionClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
