package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

const dmRoomColumns = `id, requester_id, recipient_id, guest_house_id, status,
                       requested_at, responded_at, activated_at, ended_at, version`

func pairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateDMRoom inserts a pending room. The partial unique index on pair_key
// guarantees at most one open room per pair; a second request returns
// ErrDuplicateRequest.
func (db *DB) CreateDMRoom(ctx context.Context, room *models.DMRoom) error {
	if room.RequestedAt.IsZero() {
		room.RequestedAt = time.Now()
	}
	query := `INSERT INTO dm_rooms (id, requester_id, recipient_id, guest_house_id, pair_key, status, requested_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		room.ID, room.RequesterID, room.RecipientID, room.GuestHouseID,
		pairKey(room.RequesterID, room.RecipientID), models.DMPending, room.RequestedAt, 1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create dm room: %w", err)
	}
	room.Status = models.DMPending
	room.Version = 1
	return nil
}

func (db *DB) GetDMRoom(ctx context.Context, id string) (*models.DMRoom, error) {
	row := db.QueryRowContext(ctx, `SELECT `+dmRoomColumns+` FROM dm_rooms WHERE id = ?`, id)
	return scanDMRoomRow(row)
}

// RespondDMRoom resolves a pending room to accepted or rejected.
func (db *DB) RespondDMRoom(ctx context.Context, id string, version int64, accept bool) error {
	toStatus := models.DMRejected
	if accept {
		toStatus = models.DMAccepted
	}
	query := `UPDATE dm_rooms SET status = ?, responded_at = ?, version = version + 1
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, toStatus, time.Now(), id, version, models.DMPending)
	if err != nil {
		return fmt.Errorf("failed to respond to dm room: %w", err)
	}
	return db.checkDMTransition(ctx, result, id, models.DMPending)
}

// EndDMRoom terminates an active room.
func (db *DB) EndDMRoom(ctx context.Context, id string) error {
	query := `UPDATE dm_rooms SET status = ?, ended_at = ?, version = version + 1
              WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, models.DMEnded, time.Now(), id, models.DMActive)
	if err != nil {
		return fmt.Errorf("failed to end dm room: %w", err)
	}
	return db.checkDMTransition(ctx, result, id, models.DMActive)
}

func (db *DB) checkDMTransition(ctx context.Context, result sql.Result, id, fromStatus string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		room, getErr := db.GetDMRoom(ctx, id)
		if getErr != nil {
			return getErr
		}
		if room.Status != fromStatus {
			return ErrInvalidTransition
		}
		return ErrVersionConflict
	}
	return nil
}

// InsertDirectMessage stores a message and, when the room is still in
// accepted, flips it to active in the same transaction (the first message
// activates the conversation).
func (db *DB) InsertDirectMessage(ctx context.Context, msg *models.DirectMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	room, err := scanDMRoomRow(tx.QueryRowContext(ctx,
		`SELECT `+dmRoomColumns+` FROM dm_rooms WHERE id = ?`, msg.RoomID))
	if err != nil {
		return err
	}
	if room.Status != models.DMAccepted && room.Status != models.DMActive {
		return ErrInvalidTransition
	}

	if room.Status == models.DMAccepted {
		_, err = tx.ExecContext(ctx,
			`UPDATE dm_rooms SET status = ?, activated_at = ?, version = version + 1 WHERE id = ?`,
			models.DMActive, msg.CreatedAt, room.ID)
		if err != nil {
			return fmt.Errorf("failed to activate dm room: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dm_messages (id, room_id, sender_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomID, msg.SenderID, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert direct message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit direct message: %w", err)
	}
	return nil
}

func (db *DB) GetDMHistory(ctx context.Context, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error) {
	if before.IsZero() {
		before = time.Now().Add(time.Second)
	}
	query := `SELECT id, room_id, sender_id, body, created_at, deleted_at
              FROM dm_messages
              WHERE room_id = ? AND created_at < ? AND deleted_at IS NULL
              ORDER BY created_at DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, roomID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dm history: %w", err)
	}
	defer rows.Close()

	var messages []*models.DirectMessage
	for rows.Next() {
		var m models.DirectMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan direct message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (db *DB) SoftDeleteDirectMessage(ctx context.Context, id string, senderID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE dm_messages SET deleted_at = ? WHERE id = ? AND sender_id = ? AND deleted_at IS NULL`,
		time.Now(), id, senderID)
	if err != nil {
		return fmt.Errorf("failed to delete direct message: %w", err)
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

func (db *DB) GetDMRoomsForUser(ctx context.Context, userID int64) ([]*models.DMRoom, error) {
	query := `SELECT ` + dmRoomColumns + ` FROM dm_rooms
              WHERE requester_id = ? OR recipient_id = ?
              ORDER BY requested_at DESC`
	rows, err := db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dm rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.DMRoom
	for rows.Next() {
		room, err := scanDMRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// GetActiveDMRoomsForUserInHouse returns the user's open rooms scoped to a
// guest house. The checkout sweep ends them.
func (db *DB) GetActiveDMRoomsForUserInHouse(ctx context.Context, userID, guestHouseID int64) ([]*models.DMRoom, error) {
	query := `SELECT ` + dmRoomColumns + ` FROM dm_rooms
              WHERE (requester_id = ? OR recipient_id = ?)
              AND guest_house_id = ? AND status = ?`
	rows, err := db.QueryContext(ctx, query, userID, userID, guestHouseID, models.DMActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active dm rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.DMRoom
	for rows.Next() {
		room, err := scanDMRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanDMRoomRow(row *sql.Row) (*models.DMRoom, error) {
	var r models.DMRoom
	err := row.Scan(
		&r.ID, &r.RequesterID, &r.RecipientID, &r.GuestHouseID, &r.Status,
		&r.RequestedAt, &r.RespondedAt, &r.ActivatedAt, &r.EndedAt, &r.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dm room: %w", err)
	}
	return &r, nil
}

func scanDMRoom(rows *sql.Rows) (*models.DMRoom, error) {
	var r models.DMRoom
	err := rows.Scan(
		&r.ID, &r.RequesterID, &r.RecipientID, &r.GuestHouseID, &r.Status,
		&r.RequestedAt, &r.RespondedAt, &r.ActivatedAt, &r.EndedAt, &r.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan dm room: %w", err)
	}
	return &r, nil
}
