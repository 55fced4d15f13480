package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"journal/models"
)

// CreateUser hashes the password and inserts a new user row, returning the
// created user with its server-assigned id. A username or email collision,
// whether caught here or raced past the form's pre-check, comes back as
// ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	query, args, err := sq.Insert("users").
		Columns("username", "email", "password_hash").
		Values(username, email, hash).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if uniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	return models.User{ID: id, Username: username, Email: email, PasswordHash: hash}, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.userBy(ctx, sq.Eq{"email": email})
}

func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	return s.userBy(ctx, sq.Eq{"id": id})
}

func (s *Store) userBy(ctx context.Context, cond sq.Eq) (models.User, error) {
	query, args, err := sq.Select("id", "username", "email", "password_hash", "created_at").
		From("users").
		Where(cond).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// UsernameTaken and EmailTaken back the registration form's pre-checks.
// They are a UX nicety only; the UNIQUE constraints remain the actual
// correctness mechanism.

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.userExists(ctx, sq.Eq{"username": username})
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.userExists(ctx, sq.Eq{"email": email})
}

func (s *Store) userExists(ctx context.Context, cond sq.Eq) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("users").Where(cond).ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	return count > 0, nil
}
