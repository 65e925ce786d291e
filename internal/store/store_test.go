package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasbeltran/feria/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepo_SaveLoadClear(t *testing.T) {
	repo := NewCredentialRepo(testDB(t))

	// Empty store yields nil, not an error.
	cred, err := repo.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, repo.Save(&Credential{
		Token:    "tok-1",
		UserID:   3,
		UserName: "Eva",
		Role:     domain.RoleOrganizer,
	}))

	cred, err = repo.Load()
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "tok-1", cred.Token)
	assert.Equal(t, 3, cred.UserID)
	assert.Equal(t, domain.RoleOrganizer, cred.Role)
	assert.False(t, cred.SavedAt.IsZero())

	require.NoError(t, repo.Clear())
	cred, err = repo.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialRepo_SaveReplaces(t *testing.T) {
	repo := NewCredentialRepo(testDB(t))

	require.NoError(t, repo.Save(&Credential{Token: "old", UserID: 1, Role: domain.RoleArtisan}))
	require.NoError(t, repo.Save(&Credential{Token: "new", UserID: 2, Role: domain.RoleAdmin}))

	cred, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", cred.Token)
	assert.Equal(t, 2, cred.UserID)
}

func TestCredentialRepo_Token(t *testing.T) {
	repo := NewCredentialRepo(testDB(t))
	assert.Empty(t, repo.Token())

	require.NoError(t, repo.Save(&Credential{Token: "tok-9", UserID: 1, Role: domain.RoleArtisan}))
	assert.Equal(t, "tok-9", repo.Token())
}

func TestReturnRepo_ConsumeIsExactlyOnce(t *testing.T) {
	repo := NewReturnRepo(testDB(t))

	require.NoError(t, repo.SavePendingReturn("ref-1"))

	ref, err := repo.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Equal(t, "ref-1", ref)

	// Consumed on read: the second consume finds nothing.
	ref, err = repo.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestReturnRepo_SaveReplacesPending(t *testing.T) {
	repo := NewReturnRepo(testDB(t))

	require.NoError(t, repo.SavePendingReturn("ref-old"))
	require.NoError(t, repo.SavePendingReturn("ref-new"))

	ref, err := repo.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Equal(t, "ref-new", ref)
}

func TestReturnRepo_EmptyConsume(t *testing.T) {
	repo := NewReturnRepo(testDB(t))

	ref, err := repo.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := testDB(t)
	// A second full run must not fail on existing tables.
	require.NoError(t, migrate(db))
}
