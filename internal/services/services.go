package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
)

// QB builds ? placeholders, understood by both MySQL and SQLite.
var QB = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// store is the shared plumbing of every service: run a statement, record its metrics.
type store struct {
	db      *db.DB
	metrics *metrics.AppMetrics
	logger  *zap.Logger
}

func newStore(database *db.DB, m *metrics.AppMetrics, logger *zap.Logger) store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return store{db: database, metrics: m, logger: logger}
}

// queryer is satisfied by *db.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

func (s *store) get(ctx context.Context, q queryer, dest any, table string, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	start := time.Now()
	err = sqlx.GetContext(ctx, q, dest, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", table, query, start, err == nil || errors.Is(err, sql.ErrNoRows))
	return err
}

func (s *store) selectAll(ctx context.Context, q queryer, dest any, table string, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	start := time.Now()
	err = sqlx.SelectContext(ctx, q, dest, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", table, query, start, err == nil)
	return err
}

func (s *store) exec(ctx context.Context, q queryer, op, table string, b squirrel.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := q.ExecContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, op, table, query, start, err == nil)
	return res, err
}

func (s *store) insert(ctx context.Context, q queryer, table string, b squirrel.InsertBuilder) (int64, error) {
	res, err := s.exec(ctx, q, "INSERT", table, b)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isDuplicate reports a unique-key violation from MySQL or SQLite.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
