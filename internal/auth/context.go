// internal/auth/context.go
//
// Request-scoped identity helpers.
//
// Usage
// -----
//     // Attach user 123 after the bearer token verifies.
//     ctx = auth.WithUser(ctx, 123, "member")
//
//     // Downstream code retrieves the ID.
//     id, ok := auth.UserID(ctx)   // 123, true
//
// Notes
// -----
// • The role carried here comes from the token and is advisory.  ACL checks
//   re-read the role from the users table.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

type identity struct {
	id   int64
	role string
}

// WithUser returns a new context carrying the given user.
func WithUser(ctx context.Context, userID int64, role string) context.Context {
	return context.WithValue(ctx, userKey{}, identity{id: userID, role: role})
}

// UserID extracts the user ID from ctx.  It returns (0, false) if no user
// is set.
func UserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userKey{}).(identity)
	return v.id, ok
}

// Role returns the token role, or "" when unauthenticated.
func Role(ctx context.Context) string {
	v, _ := ctx.Value(userKey{}).(identity)
	return v.role
}
