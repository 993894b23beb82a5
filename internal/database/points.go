package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bezero/internal/models"
)

// Earn appends an EARN entry to the ledger. A non-empty reference pair makes
// the call idempotent: a replay returns ErrDuplicateReference and leaves the
// ledger untouched.
func (db *DB) Earn(ctx context.Context, userID, amount int64, refType, refID, description string) (*models.PointTransaction, error) {
	return db.appendLedger(ctx, userID, models.PointEarn, amount, refType, refID, description)
}

// Spend appends a SPEND entry. Returns ErrInsufficientPoints when the
// balance cannot cover the amount.
func (db *DB) Spend(ctx context.Context, userID, amount int64, refType, refID, description string) (*models.PointTransaction, error) {
	return db.appendLedger(ctx, userID, models.PointSpend, amount, refType, refID, description)
}

func (db *DB) appendLedger(ctx context.Context, userID int64, txType string, amount int64, refType, refID, description string) (*models.PointTransaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	entry, err := appendLedgerTx(ctx, tx, userID, txType, amount, refType, refID, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}
	return entry, nil
}

// appendLedgerTx writes one ledger row inside an open transaction. The
// balance snapshot is read in the same transaction, so balance_after always
// equals balance_before +/- amount at commit time.
func appendLedgerTx(ctx context.Context, tx *sql.Tx, userID int64, txType string, amount int64, refType, refID, description string) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger amount must be positive, got %d", amount)
	}
	if txType != models.PointEarn && txType != models.PointSpend {
		return nil, fmt.Errorf("unknown ledger type %q", txType)
	}

	balance, err := balanceTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	after := balance + amount
	if txType == models.PointSpend {
		if balance < amount {
			return nil, ErrInsufficientPoints
		}
		after = balance - amount
	}

	now := time.Now()
	query := `INSERT INTO point_transactions (
				user_id, type, amount, balance_before, balance_after,
				reference_type, reference_id, description, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		userID, txType, amount, balance, after, refType, refID, description, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &models.PointTransaction{
		ID:            id,
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balance,
		BalanceAfter:  after,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
		CreatedAt:     now,
	}, nil
}

// GetBalance derives the balance from the full ledger.
func (db *DB) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN type = 'earn' THEN amount ELSE -amount END), 0)
              FROM point_transactions WHERE user_id = ?`
	var balance int64
	if err := db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func balanceTx(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN type = 'earn' THEN amount ELSE -amount END), 0)
              FROM point_transactions WHERE user_id = ?`
	var balance int64
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to get balance in tx: %w", err)
	}
	return balance, nil
}

const pointColumns = `id, user_id, type, amount, balance_before, balance_after,
                      reference_type, reference_id, description, created_at`

func (db *DB) GetPointTransactions(ctx context.Context, userID int64, limit, offset int) ([]*models.PointTransaction, error) {
	query := `SELECT ` + pointColumns + ` FROM point_transactions
              WHERE user_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query point transactions: %w", err)
	}
	defer rows.Close()
	return scanPointTransactions(rows)
}

// GetAllPointTransactions returns the whole ledger, oldest first. Used by
// the manager export and the Sheets mirror.
func (db *DB) GetAllPointTransactions(ctx context.Context) ([]*models.PointTransaction, error) {
	query := `SELECT ` + pointColumns + ` FROM point_transactions ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query point transactions: %w", err)
	}
	defer rows.Close()
	return scanPointTransactions(rows)
}

func scanPointTransactions(rows *sql.Rows) ([]*models.PointTransaction, error) {
	var entries []*models.PointTransaction
	for rows.Next() {
		var e models.PointTransaction
		err := rows.Scan(
			&e.ID, &e.UserID, &e.Type, &e.Amount, &e.BalanceBefore, &e.BalanceAfter,
			&e.ReferenceType, &e.ReferenceID, &e.Description, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
