package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// RoleAdmin sessions may run cross-client reports and exports; RoleClient
// sessions are pinned to their own client code.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Claims is the session payload carried in the JWT cookie.
type Claims struct {
	ClientCode string `json:"client_code"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session may access cross-client surfaces.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type JWTManager struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
}

func NewJWTManager(secretKey, issuer string, tokenDuration time.Duration) *JWTManager {
	if issuer == "" {
		issuer = "support-reports"
	}
	if tokenDuration == 0 {
		tokenDuration = 12 * time.Hour
	}
	return &JWTManager{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
	}
}

func (m *JWTManager) GenerateToken(clientCode, name, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientCode: clientCode,
		Name:       name,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   clientCode,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
