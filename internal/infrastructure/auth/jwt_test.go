package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/auth"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()

	var key interface{} = []byte(secret)
	if method == jwt.SigningMethodNone {
		key = jwt.UnsafeAllowNoneSignatureType
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret")

	user := &domain.User{
		ID:    "user-123",
		Email: "teller@mimhaad.example",
		Role:  domain.RoleAccountant,
	}

	token, err := manager.Generate(user, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	got, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if *got != *user {
		t.Fatalf("expected user %+v, got %+v", user, got)
	}
}

func TestJWTManagerVerifyDefaults(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret")

	token := sign(t, "secret", jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})

	user, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if user.ID != "user-9" || user.Role != domain.RoleViewer {
		t.Fatalf("expected subject fallback and viewer role, got %+v", user)
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret")
	future := jwt.NewNumericDate(time.Now().Add(time.Minute))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name: "expired",
			token: sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{
				UserID:           "u-1",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
			}),
			want: domain.ErrExpiredToken,
		},
		{
			name:  "wrong secret",
			token: sign(t, "other", jwt.SigningMethodHS256, auth.Claims{UserID: "u-1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want:  domain.ErrInvalidToken,
		},
		{
			name:  "no expiry",
			token: sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{UserID: "u-1"}),
			want:  domain.ErrInvalidToken,
		},
		{
			name:  "alg none",
			token: sign(t, "", jwt.SigningMethodNone, auth.Claims{UserID: "u-1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want:  domain.ErrInvalidToken,
		},
		{
			name:  "missing user",
			token: sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want:  domain.ErrInvalidToken,
		},
		{
			name:  "unknown role",
			token: sign(t, "secret", jwt.SigningMethodHS256, auth.Claims{UserID: "u-1", Role: "root", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want:  domain.ErrInvalidToken,
		},
		{
			name:  "malformed",
			token: "not-a-token",
			want:  domain.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
