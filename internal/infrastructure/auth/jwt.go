package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

// Claims are the claims carried by session tokens. Only user_id is required.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager verifies HS256 session tokens. Signing is only used by tooling and tests;
// the session layer issues tokens in production.
type JWTManager struct {
	secretKey []byte
	parser    *jwt.Parser
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secretKey string) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
			jwt.WithExpirationRequired(),
		),
	}
}

// Generate signs a token for user valid for ttl.
func (m *JWTManager) Generate(user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// Verify checks the token signature and expiry and returns the caller.
// A token without a role is treated as a viewer.
func (m *JWTManager) Verify(tokenString string) (*domain.User, error) {
	claims := &Claims{}

	_, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, domain.ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = domain.RoleViewer
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return &domain.User{ID: userID, Email: claims.Email, Role: role}, nil
}
