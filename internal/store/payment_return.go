package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReturnRepo persists the pending payment-return reference. At most one
// reference is pending at a time, and reading it clears it, so a restarted
// client can never trigger the same settlement twice.
type ReturnRepo struct {
	db *sql.DB
}

// NewReturnRepo creates a ReturnRepo.
func NewReturnRepo(db *sql.DB) *ReturnRepo {
	return &ReturnRepo{db: db}
}

// SavePendingReturn stores the reference, replacing any previous one.
func (r *ReturnRepo) SavePendingReturn(reference string) error {
	query := `INSERT INTO payment_return (id, reference, saved_at)
		VALUES ('pending', ?, ?)
		ON CONFLICT(id) DO UPDATE
		SET reference = excluded.reference, saved_at = excluded.saved_at`
	_, err := r.db.Exec(query, reference, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving payment return: %w", err)
	}
	return nil
}

// ConsumePendingReturn returns the stored reference and deletes it in the
// same transaction. Returns "" when none is pending.
func (r *ReturnRepo) ConsumePendingReturn() (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting consume transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var reference string
	err = tx.QueryRow(`SELECT reference FROM payment_return WHERE id = 'pending'`).Scan(&reference)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading payment return: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM payment_return WHERE id = 'pending'`); err != nil {
		return "", fmt.Errorf("clearing payment return: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing consume: %w", err)
	}
	committed = true

	return reference, nil
}
