package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

func (db *DB) CreateDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error {
	query := `INSERT INTO diary_entries (user_id, stay_id, title, body, mood, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		entry.UserID, entry.StayID, entry.Title, entry.Body, entry.Mood, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create diary entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (db *DB) GetDiaryEntry(ctx context.Context, id int64) (*models.DiaryEntry, error) {
	query := `SELECT id, user_id, stay_id, title, body, mood, created_at, updated_at, deleted_at
              FROM diary_entries WHERE id = ? AND deleted_at IS NULL`
	var e models.DiaryEntry
	err := db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.StayID, &e.Title, &e.Body, &e.Mood, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query diary entry: %w", err)
	}
	return &e, nil
}

func (db *DB) UpdateDiaryEntry(ctx context.Context, id, userID int64, title, body, mood string) error {
	query := `UPDATE diary_entries SET title = ?, body = ?, mood = ?, updated_at = ?
              WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, title, body, mood, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update diary entry: %w", err)
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

func (db *DB) SoftDeleteDiaryEntry(ctx context.Context, id, userID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE diary_entries SET deleted_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
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

func (db *DB) GetDiaryEntries(ctx context.Context, userID int64, limit, offset int) ([]*models.DiaryEntry, error) {
	query := `SELECT id, user_id, stay_id, title, body, mood, created_at, updated_at, deleted_at
              FROM diary_entries
              WHERE user_id = ? AND deleted_at IS NULL
              ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query diary entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DiaryEntry
	for rows.Next() {
		var e models.DiaryEntry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.StayID, &e.Title, &e.Body, &e.Mood, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CreateAnswer stores a questionnaire answer. The unique user+question index
// rejects a second answer with ErrAlreadyAnswered.
func (db *DB) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	query := `INSERT INTO answers (question_id, user_id, body, created_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, answer.QuestionID, answer.UserID, answer.Body, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyAnswered
		}
		return fmt.Errorf("failed to create answer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	answer.ID = id
	answer.CreatedAt = now
	return nil
}

func (db *DB) GetAnswers(ctx context.Context, userID int64) ([]*models.Answer, error) {
	query := `SELECT id, question_id, user_id, body, created_at
              FROM answers WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []*models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.Body, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}
