package utils

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 10

// PasswordHasher hashes and verifies passwords with bcrypt.
// At most `concurrency` bcrypt operations run at once; callers beyond that wait
// on their own context instead of a process-wide lock.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher creates a PasswordHasher. Out-of-range costs are clamped to bcrypt's limits.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Cost returns the bcrypt cost factor new hashes are created with.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// HashPassword returns a salted bcrypt digest of password.
func (h *PasswordHasher) HashPassword(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hashing slot unavailable: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash.
// A malformed hash is a mismatch, not an error; only context cancellation is returned as one.
func (h *PasswordHasher) CheckPasswordHash(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("hashing slot unavailable: %w", err)
	}
	defer h.sem.Release(1)

	// ErrHashTooShort and friends land here too: an unusable stored hash never matches.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}
