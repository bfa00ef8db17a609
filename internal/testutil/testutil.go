// Package testutil provides a throwaway SQLite database and helpers for package tests.
package testutil

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

//go:embed schema_sqlite.sql
var schemaSQL string

// Logger returns a zap logger that writes through t.Log.
func Logger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// NewDB opens a fresh SQLite database in t.TempDir with the schema applied.
func NewDB(t testing.TB) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.Join(t.TempDir(), "bazaar.db"))
	sqlDB, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	d := db.Wrap(sqlDB, "sqlite3", Logger(t))
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.InitSchema(context.Background(), schemaSQL))
	return d
}

// InsertUser writes a user row directly and returns it.
func InsertUser(t testing.TB, d *db.DB, username string, role models.Role) *models.User {
	t.Helper()

	res, err := d.ExecContext(context.Background(),
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		username, "not-a-real-hash", string(role))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	return &models.User{ID: id, Username: username, Role: role}
}

// InsertShop writes a shop row directly and returns its id.
func InsertShop(t testing.TB, d *db.DB, ownerID int64, name, category, phone string, approved bool) int64 {
	t.Helper()

	res, err := d.ExecContext(context.Background(),
		"INSERT INTO shops (owner_id, name, category, phone, approved) VALUES (?, ?, ?, ?, ?)",
		ownerID, name, category, phone, approved)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertProduct writes a product row directly and returns its id.
func InsertProduct(t testing.TB, d *db.DB, shopID int64, name, price, category string) int64 {
	t.Helper()

	res, err := d.ExecContext(context.Background(),
		"INSERT INTO products (shop_id, name, price, category, status) VALUES (?, ?, ?, ?, ?)",
		shopID, name, price, category, string(models.ProductApproved))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
