package repository

import (
	"context"
	"errors"
	"fmt"

	"phone_auth/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicatePhone is returned by Create when the phone is already taken.
// It is the authoritative duplicate signal: the unique constraint catches what a prior lookup can race past.
var ErrDuplicatePhone = errors.New("phone already exists")

// DBTX is the subset of *pgxpool.Pool the repository uses
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the store-assigned id and role
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (name, phone, password_hash, created_at)
            VALUES ($1, $2, $3, $4) RETURNING id, role`
	err := r.db.QueryRow(ctx, sql, user.Name, user.Phone, user.PasswordHash, user.CreatedAt).Scan(&user.ID, &user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByPhone retrieves a user by their phone number
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, name, phone, password_hash, role, created_at FROM users WHERE phone = $1`
	err := r.db.QueryRow(ctx, sql, phone).Scan(&user.ID, &user.Name, &user.Phone, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // not found is not an error here, the service decides what it means
		}
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, name, phone, password_hash, role, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&user.ID, &user.Name, &user.Phone, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
