package user_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform/pkg/user"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);`

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func setupTestBadDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, password TEXT NOT NULL);`)
	require.NoError(t, err)

	return db
}

func TestMySQLRepo_CreateAndFind(t *testing.T) {
	repo := user.NewMySQLRepo(setupTestDB(t))

	u := &user.User{
		ID:       "user123",
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hashed_pass",
	}
	require.NoError(t, repo.Create(u))

	found, err := repo.FindByEmail("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, found)

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestMySQLRepo_Duplicates(t *testing.T) {
	repo := user.NewMySQLRepo(setupTestDB(t))

	require.NoError(t, repo.Create(&user.User{ID: "u1", Name: "A", Email: "a@example.com", Password: "x"}))

	err := repo.Create(&user.User{ID: "u2", Name: "B", Email: "a@example.com", Password: "y"})
	assert.ErrorIs(t, err, user.ErrUserExists)

	err = repo.Create(&user.User{ID: "u1", Name: "C", Email: "c@example.com", Password: "z"})
	assert.ErrorIs(t, err, user.ErrUserExists)
}

func TestMySQLRepo_BrokenSchema(t *testing.T) {
	repo := user.NewMySQLRepo(setupTestBadDB(t))

	_, err := repo.FindByEmail("whoever@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrNotFound)

	err = repo.Create(&user.User{ID: "u1", Name: "A", Email: "a@example.com", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrUserExists)
}
