package model_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    pwd TEXT,
    pwd_salt TEXT NOT NULL,
    token_salt TEXT NOT NULL
);`
	sqliteCreateTask = `CREATE TABLE task (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL
);`
)

func newTestManager(t *testing.T) *model.Manager {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateTask)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return model.NewManager(bunDB)
}
