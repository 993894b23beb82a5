package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
				email, password_hash, nickname, bio, home_city,
				is_manager, is_blacklisted, last_activity, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Nickname,
		user.Bio,
		user.HomeCity,
		user.IsManager,
		user.IsBlacklisted,
		now,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.LastActivity = now
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

const userColumns = `id, email, password_hash, nickname, bio, home_city,
                     is_manager, is_blacklisted, last_activity, created_at, updated_at`

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return db.queryUser(ctx, query, email)
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) queryUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Bio, &u.HomeCity,
		&u.IsManager, &u.IsBlacklisted, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (db *DB) UpdateUserProfile(ctx context.Context, id int64, nickname, bio, homeCity string) error {
	query := `UPDATE users SET nickname = ?, bio = ?, home_city = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, nickname, bio, homeCity, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_activity = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	return nil
}

func (db *DB) SetUserBlacklisted(ctx context.Context, id int64, blacklisted bool) error {
	query := `UPDATE users SET is_blacklisted = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, blacklisted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set blacklist flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Bio, &u.HomeCity,
			&u.IsManager, &u.IsBlacklisted, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
