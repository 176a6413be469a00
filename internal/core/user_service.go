package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lockout policy for repeated bad passwords.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

type userService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool, now: time.Now}
}

const userColumns = `id, first_name, last_name, birth_date, tax_id, role, email, password_hash,
	is_active, failed_logins, locked_until, last_login_at, created_by, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var role string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.BirthDate, &u.TaxID, &role, &u.Email, &u.PasswordHash,
		&u.IsActive, &u.FailedLogins, &u.LockedUntil, &u.LastLoginAt, &u.CreatedBy, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return u, nil
}

func (s *userService) Create(ctx context.Context, in NewUser) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, birth_date, tax_id, role, email, password_hash, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		in.FirstName, in.LastName, in.BirthDate, in.TaxID, string(in.Role), in.Email, hash, in.CreatedBy,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("user with that email or tax id %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if !u.IsActive {
		return nil, ErrUserInactive
	}
	if u.LockedUntil != nil && u.LockedUntil.After(now) {
		return nil, fmt.Errorf("%w until %s", ErrUserLocked, u.LockedUntil.Format(time.RFC3339))
	}

	if !CheckPassword(u.PasswordHash, password) {
		failed := u.FailedLogins + 1
		var lockUntil *time.Time
		if failed >= MaxFailedLogins {
			t := now.Add(LockoutDuration)
			lockUntil = &t
			failed = 0
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE users SET failed_logins = $1, locked_until = $2 WHERE id = $3`,
			failed, lockUntil, u.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to record failed login: %w", err)
		}
		if lockUntil != nil {
			return nil, fmt.Errorf("%w until %s", ErrUserLocked, lockUntil.Format(time.RFC3339))
		}
		return nil, ErrInvalidCredentials
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE users SET failed_logins = 0, locked_until = NULL, last_login_at = $1 WHERE id = $2`,
		now, u.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	u.FailedLogins = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user id=%d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user id=%d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user %q: %w", email, err)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userService) Delete(ctx context.Context, userID int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user id=%d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user id=%d: %w", userID, ErrNotFound)
	}
	return nil
}
