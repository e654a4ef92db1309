package domain

import (
	"context"
	"errors"
)

// User is the authenticated caller, as asserted by the session layer's token.
type User struct {
	ID    string
	Email string
	Role  Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin can manage the chart of accounts and reverse entries.
	RoleAdmin Role = "admin"

	// RoleAccountant can draft and post entries and run float sync.
	RoleAccountant Role = "accountant"

	// RoleViewer can only read balances and reports.
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleAccountant: 2,
	RoleAdmin:      3,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r grants at least the permissions of min.
func (r Role) Allows(min Role) bool {
	return roleRank[r] >= roleRank[min] && r.IsValid()
}

// SystemUserID is recorded when no user is attached to the context.
const SystemUserID = "system"

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

// UserIDFromContext returns the authenticated user ID or SystemUserID.
func UserIDFromContext(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok && user.ID != "" {
		return user.ID
	}
	return SystemUserID
}
