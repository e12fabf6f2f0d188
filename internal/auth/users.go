package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/store"
)

// UserRepository stores shopper accounts in SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository migrates the users table and returns a repository over s.
func NewUserRepository(ctx context.Context, s *store.SQLiteStore) (*UserRepository, error) {
	if err := s.Migrate(ctx, "auth", userMigrations); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return &UserRepository{db: s.DB()}, nil
}

const userColumns = `id, name, email, username, password_hash, age, gender, created_at`

// Create inserts user, assigning an id and creation time when unset.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Username, user.PasswordHash,
		user.Age, user.Gender, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByUsername returns the account with the given username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by username %q: %w", username, err)
	}
	return u, nil
}

// Get returns the account with the given id.
func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %q: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.Age, &u.Gender, &u.CreatedAt)
	return u, err
}

var userMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create users table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE users (
					id            TEXT     PRIMARY KEY,
					name          TEXT     NOT NULL,
					email         TEXT     NOT NULL UNIQUE,
					username      TEXT     NOT NULL UNIQUE,
					password_hash TEXT     NOT NULL,
					age           INTEGER  NOT NULL,
					gender        TEXT     NOT NULL,
					created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			return err
		},
	},
}
