package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

func (db *DB) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	query := `INSERT INTO chat_messages (id, guest_house_id, user_id, nickname, kind, card_id, body, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		msg.ID, msg.GuestHouseID, msg.UserID, msg.Nickname, msg.Kind, msg.CardID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (db *DB) GetChatMessage(ctx context.Context, id string) (*models.ChatMessage, error) {
	query := `SELECT id, guest_house_id, user_id, nickname, kind, card_id, body, created_at, deleted_at
              FROM chat_messages WHERE id = ?`
	var m models.ChatMessage
	err := db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.GuestHouseID, &m.UserID, &m.Nickname, &m.Kind, &m.CardID, &m.Body, &m.CreatedAt, &m.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat message: %w", err)
	}
	return &m, nil
}

// GetChatHistory pages backwards from `before` (zero time means now),
// newest first. Soft-deleted messages are excluded.
func (db *DB) GetChatHistory(ctx context.Context, guestHouseID int64, before time.Time, limit int) ([]*models.ChatMessage, error) {
	if before.IsZero() {
		before = time.Now().Add(time.Second)
	}
	query := `SELECT id, guest_house_id, user_id, nickname, kind, card_id, body, created_at, deleted_at
              FROM chat_messages
              WHERE guest_house_id = ? AND created_at < ? AND deleted_at IS NULL
              ORDER BY created_at DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, guestHouseID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(
			&m.ID, &m.GuestHouseID, &m.UserID, &m.Nickname, &m.Kind, &m.CardID, &m.Body, &m.CreatedAt, &m.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// SoftDeleteChatMessage marks a message deleted. Only the author may delete
// unless asManager is set.
func (db *DB) SoftDeleteChatMessage(ctx context.Context, id string, userID int64, asManager bool) error {
	var result sql.Result
	var err error
	if asManager {
		result, err = db.ExecContext(ctx,
			`UPDATE chat_messages SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
			time.Now(), id)
	} else {
		result, err = db.ExecContext(ctx,
			`UPDATE chat_messages SET deleted_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
			time.Now(), id, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
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
