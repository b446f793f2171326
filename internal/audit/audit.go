// Copyright (c) 2026 SSHVault Team
// SSHVault - encrypted SSH public key store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package audit keeps an append-only log of store mutations in a
// relational database. The backend is chosen by DSN: SQLite by default,
// with PostgreSQL and MySQL supported for users who centralize their audit
// trails.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Entry is one audit log row.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Username  string
	Action    string
	Details   string
}

// entryModel maps the audit_log table for Bun.
type entryModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp,nullzero,notnull,default:current_timestamp"`
	Username      string    `bun:"username,notnull"`
	Action        string    `bun:"action,notnull"`
	Details       string    `bun:"details"`
}

// Log is an open audit database.
type Log struct {
	db *bun.DB
}

// Open connects to the audit database and creates the log table if it does
// not exist. dbType is "sqlite", "postgres" or "mysql".
func Open(dbType, dsn string) (*Log, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx"; map "postgres" to it.
	if dbType == "postgres" {
		driverName = "pgx"
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	// In-memory SQLite keeps one database per connection; force a single
	// connection so the schema stays visible. Tests rely on ":memory:".
	if dbType == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	l := &Log{db: newBunDB(sqlDB, dbType)}
	if err := l.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return l, nil
}

// newBunDB wraps a *sql.DB in the Bun dialect matching dbType.
func newBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

func (l *Log) migrate() error {
	ctx := context.Background()
	if _, err := l.db.NewCreateTable().Model((*entryModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create audit_log table: %w", err)
	}
	return nil
}

// LogAction inserts an audit entry attributed to the current OS user.
func (l *Log) LogAction(action, details string) error {
	ctx := context.Background()

	username := "unknown"
	if curUser, err := user.Current(); err == nil {
		username = curUser.Username
		// Strip a Windows DOMAIN\ prefix.
		if parts := strings.Split(username, `\`); len(parts) > 1 {
			username = parts[len(parts)-1]
		}
	}

	entry := entryModel{
		Timestamp: time.Now().UTC(),
		Username:  username,
		Action:    action,
		Details:   details,
	}
	if _, err := l.db.NewInsert().Model(&entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Entries returns all audit entries, newest first.
func (l *Log) Entries() ([]Entry, error) {
	ctx := context.Background()

	var rows []entryModel
	if err := l.db.NewSelect().Model(&rows).OrderExpr("timestamp DESC, id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{ID: r.ID, Timestamp: r.Timestamp, Username: r.Username, Action: r.Action, Details: r.Details})
	}
	return out, nil
}

// Close releases the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}
