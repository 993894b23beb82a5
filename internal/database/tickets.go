package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bezero/internal/models"
)

const ticketColumns = `id, user_id, airship_id, from_city_id, to_city_id, price,
                       status, departure_at, arrival_at, created_at, updated_at, version`

// PurchaseTicket charges the price from the ledger and inserts the ticket in
// a single transaction. The airship capacity for the departure slot is
// re-checked inside the transaction, so seats are never oversold.
func (db *DB) PurchaseTicket(ctx context.Context, ticket *models.Ticket) (*models.PointTransaction, error) {
	airship, ok := db.GetAirship(ticket.AirshipID)
	if !ok {
		return nil, fmt.Errorf("airship not found in catalog: %d", ticket.AirshipID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var sold int64
	countQuery := `SELECT COUNT(*) FROM tickets
                   WHERE airship_id = ? AND departure_at = ? AND status NOT IN (?)`
	err = tx.QueryRowContext(ctx, countQuery,
		ticket.AirshipID, ticket.DepartureAt, models.TicketCancelled,
	).Scan(&sold)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold seats: %w", err)
	}
	if sold >= airship.Capacity {
		return nil, ErrCapacityExceeded
	}

	now := time.Now()
	insertQuery := `INSERT INTO tickets (
				user_id, airship_id, from_city_id, to_city_id, price,
				status, departure_at, arrival_at, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insertQuery,
		ticket.UserID,
		ticket.AirshipID,
		ticket.FromCityID,
		ticket.ToCityID,
		ticket.Price,
		models.TicketPurchased,
		ticket.DepartureAt,
		ticket.ArrivalAt,
		now,
		now,
		1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry, err := appendLedgerTx(ctx, tx, ticket.UserID, models.PointSpend, ticket.Price,
		models.RefTicket, fmt.Sprintf("%d", id), "ticket purchase")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket purchase: %w", err)
	}

	ticket.ID = id
	ticket.Status = models.TicketPurchased
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.Version = 1
	return entry, nil
}

// CancelTicket flips a PURCHASED ticket to CANCELLED and refunds the price
// in the same transaction. The refund reference makes a replay harmless.
func (db *DB) CancelTicket(ctx context.Context, id, version int64) (*models.Ticket, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ticket, err := scanTicketRow(tx.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketPurchased {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ?, version = version + 1
         WHERE id = ? AND version = ?`,
		models.TicketCancelled, now, id, version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel ticket: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrVersionConflict
	}

	_, err = appendLedgerTx(ctx, tx, ticket.UserID, models.PointEarn, ticket.Price,
		models.RefTicketRefund, fmt.Sprintf("%d", ticket.ID), "ticket refund")
	if err != nil && !errors.Is(err, ErrDuplicateReference) {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket cancel: %w", err)
	}

	ticket.Status = models.TicketCancelled
	ticket.UpdatedAt = now
	ticket.Version = version + 1
	return ticket, nil
}

func (db *DB) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	return scanTicketRow(db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
}

func (db *DB) GetUserTickets(ctx context.Context, userID int64, limit, offset int) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
              WHERE user_id = ? ORDER BY departure_at DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// UpdateTicketStatus performs a guarded transition: the update applies only
// when the ticket is currently in fromStatus.
func (db *DB) UpdateTicketStatus(ctx context.Context, id int64, fromStatus, toStatus string) error {
	query := `UPDATE tickets SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, toStatus, time.Now(), id, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// GetTicketsDue returns tickets in the given status whose time field has
// passed. Used by the scheduler sweep.
func (db *DB) GetTicketsDue(ctx context.Context, status, timeField string, now time.Time) ([]*models.Ticket, error) {
	var query string
	switch timeField {
	case "departure_at":
		query = `SELECT ` + ticketColumns + ` FROM tickets WHERE status = ? AND departure_at <= ?`
	case "arrival_at":
		query = `SELECT ` + ticketColumns + ` FROM tickets WHERE status = ? AND arrival_at <= ?`
	default:
		return nil, fmt.Errorf("unsupported time field %q", timeField)
	}

	rows, err := db.QueryContext(ctx, query, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicketRow(row *sql.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID, &t.UserID, &t.AirshipID, &t.FromCityID, &t.ToCityID, &t.Price,
		&t.Status, &t.DepartureAt, &t.ArrivalAt, &t.CreatedAt, &t.UpdatedAt, &t.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	return &t, nil
}

func scanTickets(rows *sql.Rows) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	for rows.Next() {
		var t models.Ticket
		err := rows.Scan(
			&t.ID, &t.UserID, &t.AirshipID, &t.FromCityID, &t.ToCityID, &t.Price,
			&t.Status, &t.DepartureAt, &t.ArrivalAt, &t.CreatedAt, &t.UpdatedAt, &t.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}
