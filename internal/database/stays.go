package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

const stayColumns = `id, user_id, room_id, guest_house_id, check_in, check_out,
                     status, created_at, updated_at, version`

// activeStayStatuses occupy a bed: reserved and checked_in.
const activeStayStatuses = `'reserved', 'checked_in'`

// CreateStayWithLock re-checks room occupancy for the requested period
// inside a transaction before inserting, so a room is never overbooked.
func (db *DB) CreateStayWithLock(ctx context.Context, stay *models.RoomStay) error {
	room, ok := db.GetRoom(stay.RoomID)
	if !ok {
		return fmt.Errorf("room not found in catalog: %d", stay.RoomID)
	}
	stay.GuestHouseID = room.GuestHouseID

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Overlap: [check_in, check_out) intervals intersect.
	var occupied int64
	countQuery := `SELECT COUNT(*) FROM room_stays
                   WHERE room_id = ? AND status IN (` + activeStayStatuses + `)
                   AND check_in < ? AND check_out > ?`
	err = tx.QueryRowContext(ctx, countQuery, stay.RoomID, stay.CheckOut, stay.CheckIn).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("failed to check occupancy in tx: %w", err)
	}
	if occupied >= room.Capacity {
		return ErrNotAvailable
	}

	now := time.Now()
	insertQuery := `INSERT INTO room_stays (
				user_id, room_id, guest_house_id, check_in, check_out,
				status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insertQuery,
		stay.UserID,
		stay.RoomID,
		stay.GuestHouseID,
		stay.CheckIn,
		stay.CheckOut,
		models.StayReserved,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stay: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stay: %w", err)
	}

	stay.ID = id
	stay.Status = models.StayReserved
	stay.CreatedAt = now
	stay.UpdatedAt = now
	stay.Version = 1
	return nil
}

func (db *DB) GetStay(ctx context.Context, id int64) (*models.RoomStay, error) {
	row := db.QueryRowContext(ctx, `SELECT `+stayColumns+` FROM room_stays WHERE id = ?`, id)
	return scanStayRow(row)
}

// UpdateStayStatusWithVersion performs a guarded, optimistic transition.
func (db *DB) UpdateStayStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error {
	query := `UPDATE room_stays SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, toStatus, time.Now(), id, version, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to update stay status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a wrong source status.
		stay, getErr := db.GetStay(ctx, id)
		if getErr != nil {
			return getErr
		}
		if stay.Status != fromStatus {
			return ErrInvalidTransition
		}
		return ErrVersionConflict
	}
	return nil
}

func (db *DB) GetUserStays(ctx context.Context, userID int64) ([]*models.RoomStay, error) {
	query := `SELECT ` + stayColumns + ` FROM room_stays
              WHERE user_id = ? ORDER BY check_in DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays: %w", err)
	}
	defer rows.Close()
	return scanStays(rows)
}

// GetCheckedInStay returns the user's current checked_in stay at a guest
// house, or ErrNotFound.
func (db *DB) GetCheckedInStay(ctx context.Context, userID, guestHouseID int64) (*models.RoomStay, error) {
	query := `SELECT ` + stayColumns + ` FROM room_stays
              WHERE user_id = ? AND guest_house_id = ? AND status = 'checked_in'
              ORDER BY check_in DESC LIMIT 1`
	row := db.QueryRowContext(ctx, query, userID, guestHouseID)
	return scanStayRow(row)
}

// GetRoommates returns users with a checked_in stay at the guest house,
// excluding userID itself.
func (db *DB) GetRoommates(ctx context.Context, guestHouseID, userID int64) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
              WHERE id IN (
                  SELECT user_id FROM room_stays
                  WHERE guest_house_id = ? AND status = 'checked_in'
              ) AND id != ?
              ORDER BY id`
	rows, err := db.QueryContext(ctx, query, guestHouseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roommates: %w", err)
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
			return nil, fmt.Errorf("failed to scan roommate: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// AreCoLocated reports whether both users are checked in at the same guest
// house right now, and returns that guest house ID.
func (db *DB) AreCoLocated(ctx context.Context, userA, userB int64) (bool, int64, error) {
	query := `SELECT a.guest_house_id FROM room_stays a
              JOIN room_stays b ON a.guest_house_id = b.guest_house_id
              WHERE a.user_id = ? AND b.user_id = ?
              AND a.status = 'checked_in' AND b.status = 'checked_in'
              LIMIT 1`
	var houseID int64
	err := db.QueryRowContext(ctx, query, userA, userB).Scan(&houseID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to check co-location: %w", err)
	}
	return true, houseID, nil
}

// GetRoomAvailability returns per-date occupancy for a room over a period.
func (db *DB) GetRoomAvailability(ctx context.Context, roomID int64, startDate time.Time, days int) ([]*models.RoomAvailability, error) {
	room, ok := db.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room not found in catalog: %d", roomID)
	}

	out := make([]*models.RoomAvailability, 0, days)
	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i)
		next := date.AddDate(0, 0, 1)

		var booked int64
		query := `SELECT COUNT(*) FROM room_stays
                  WHERE room_id = ? AND status IN (` + activeStayStatuses + `)
                  AND check_in < ? AND check_out > ?`
		if err := db.QueryRowContext(ctx, query, roomID, next, date).Scan(&booked); err != nil {
			return nil, fmt.Errorf("failed to count occupancy: %w", err)
		}

		available := room.Capacity - booked
		if available < 0 {
			available = 0
		}
		out = append(out, &models.RoomAvailability{
			Date:      date,
			RoomID:    roomID,
			Booked:    booked,
			Available: available,
		})
	}
	return out, nil
}

// GetStaysByDateRange returns stays overlapping [start, end). Used by the
// schedule export and the Sheets mirror.
func (db *DB) GetStaysByDateRange(ctx context.Context, start, end time.Time) ([]*models.RoomStay, error) {
	query := `SELECT ` + stayColumns + ` FROM room_stays
              WHERE check_in < ? AND check_out > ? AND status != 'cancelled'
              ORDER BY check_in ASC`
	rows, err := db.QueryContext(ctx, query, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays by range: %w", err)
	}
	defer rows.Close()
	return scanStays(rows)
}

// GetExpiredStays returns checked_in stays whose check_out has passed.
func (db *DB) GetExpiredStays(ctx context.Context, now time.Time) ([]*models.RoomStay, error) {
	query := `SELECT ` + stayColumns + ` FROM room_stays
              WHERE status = 'checked_in' AND check_out <= ?`
	rows, err := db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired stays: %w", err)
	}
	defer rows.Close()
	return scanStays(rows)
}

func scanStayRow(row *sql.Row) (*models.RoomStay, error) {
	var s models.RoomStay
	err := row.Scan(
		&s.ID, &s.UserID, &s.RoomID, &s.GuestHouseID, &s.CheckIn, &s.CheckOut,
		&s.Status, &s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stay: %w", err)
	}
	return &s, nil
}

func scanStays(rows *sql.Rows) ([]*models.RoomStay, error) {
	var stays []*models.RoomStay
	for rows.Next() {
		var s models.RoomStay
		err := rows.Scan(
			&s.ID, &s.UserID, &s.RoomID, &s.GuestHouseID, &s.CheckIn, &s.CheckOut,
			&s.Status, &s.CreatedAt, &s.UpdatedAt, &s.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		stays = append(stays, &s)
	}
	return stays, rows.Err()
}
