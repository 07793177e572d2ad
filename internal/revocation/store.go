// Package revocation holds short-lived token revocation state: a per-user
// cutoff timestamp set on role change or block, checked against the iat of
// every access token. The store is an interface so a single-process memory
// store and a shared Redis store are interchangeable across deployments.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	// SetUserCutoff invalidates all access tokens for the user issued
	// before now. The entry may expire after ttl (the access-token
	// lifetime bounds how long the check matters).
	SetUserCutoff(ctx context.Context, userID string, ttl time.Duration) error

	// UserCutoff returns the cutoff for a user, or the zero time when no
	// revocation is recorded.
	UserCutoff(ctx context.Context, userID string) (time.Time, error)
}
