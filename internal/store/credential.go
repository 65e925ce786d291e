package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matiasbeltran/feria/internal/domain"
)

// Credential is the locally cached session: the bearer token and the
// account it was issued to.
type Credential struct {
	Token    string
	UserID   int
	UserName string
	Role     domain.Role
	SavedAt  time.Time
}

// CredentialRepo persists the single current credential.
type CredentialRepo struct {
	db *sql.DB
}

// NewCredentialRepo creates a CredentialRepo.
func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Save replaces the stored credential.
func (r *CredentialRepo) Save(c *Credential) error {
	query := `INSERT INTO credential (id, token, user_id, user_name, role, saved_at)
		VALUES ('current', ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE
		SET token = excluded.token, user_id = excluded.user_id,
		    user_name = excluded.user_name, role = excluded.role,
		    saved_at = excluded.saved_at`
	_, err := r.db.Exec(query,
		c.Token, c.UserID, c.UserName, string(c.Role),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Load returns the stored credential, or nil when none exists.
func (r *CredentialRepo) Load() (*Credential, error) {
	query := `SELECT token, user_id, user_name, role, saved_at FROM credential WHERE id = 'current'`
	var c Credential
	var role, savedAt string
	err := r.db.QueryRow(query).Scan(&c.Token, &c.UserID, &c.UserName, &role, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	c.Role = domain.Role(role)
	if t, parseErr := time.Parse(time.RFC3339, savedAt); parseErr == nil {
		c.SavedAt = t
	}
	return &c, nil
}

// Clear removes the stored credential. Called on logout and on any 401.
func (r *CredentialRepo) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM credential WHERE id = 'current'`); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// Token returns the stored token or "". Satisfies api.TokenSource via
// TokenSourceFunc in the wiring.
func (r *CredentialRepo) Token() string {
	c, err := r.Load()
	if err != nil || c == nil {
		return ""
	}
	return c.Token
}
