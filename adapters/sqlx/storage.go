package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lingokit/core"
	"lingokit/engine"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Driver identifies the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for the given SQL dialect
func DefaultConfig(driver Driver) Config {
	dsn := "postgres://localhost/lingokit?sslmode=disable"
	if driver == DriverMySQL {
		dsn = "root@tcp(localhost:3306)/lingokit?parseTime=true"
	}
	return Config{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface over a SQL database. Records
// live in a single table: the full record as a JSON column plus a version
// column that guards conditional writes. The JSON column keeps the schema
// identical across Postgres and MySQL.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New connects and pings the database with the provided configuration
func New(config Config) (*Store, error) {
	db, err := sqlx.Connect(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Driver, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	return NewWithDB(db, config.Driver), nil
}

// NewWithDB creates a Store using an existing sqlx handle (useful for testing)
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the user_points table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	var ddl string
	switch s.driver {
	case DriverMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS user_points (
			user_name VARCHAR(255) PRIMARY KEY,
			record JSON NOT NULL,
			version BIGINT NOT NULL
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS user_points (
			user_name TEXT PRIMARY KEY,
			record JSONB NOT NULL,
			version BIGINT NOT NULL
		)`
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get reads the record and its version. A user with no row yields version 0.
func (s *Store) Get(ctx context.Context, user core.UserID) (core.PointRecord, uint64, error) {
	query := s.db.Rebind(`SELECT record, version FROM user_points WHERE user_name = ?`)
	var raw []byte
	var version uint64
	err := s.db.QueryRowxContext(ctx, query, user).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PointRecord{}, 0, nil
	}
	if err != nil {
		return core.PointRecord{}, 0, fmt.Errorf("failed to read record: %w", err)
	}
	var rec core.PointRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return core.PointRecord{}, 0, fmt.Errorf("corrupt record for %s: %w", user, err)
	}
	if rec.Badges == nil {
		rec.Badges = map[core.Badge]struct{}{}
	}
	return rec, version, nil
}

// Put writes the record under the version check. expected 0 inserts; any
// other value updates the row only while its version is unchanged.
func (s *Store) Put(ctx context.Context, user core.UserID, rec core.PointRecord, expected uint64) (uint64, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}

	if expected == 0 {
		query := s.db.Rebind(`INSERT INTO user_points (user_name, record, version) VALUES (?, ?, 1)`)
		if _, err := s.db.ExecContext(ctx, query, user, payload); err != nil {
			// Only a duplicate key means another writer created the row first;
			// transport failures must not be mistaken for a lost race.
			if isDuplicateKey(err) {
				return 0, fmt.Errorf("%w: insert for %s: %v", core.ErrConflict, user, err)
			}
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
		return 1, nil
	}

	query := s.db.Rebind(`UPDATE user_points SET record = ?, version = version + 1 WHERE user_name = ? AND version = ?`)
	res, err := s.db.ExecContext(ctx, query, payload, user, expected)
	if err != nil {
		return 0, fmt.Errorf("failed to update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("%w: expected version %d", core.ErrConflict, expected)
	}
	return expected + 1, nil
}

// List returns every stored record.
func (s *Store) List(ctx context.Context) ([]core.PointRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT record FROM user_points`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []core.PointRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec core.PointRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("corrupt record: %w", err)
		}
		if rec.Badges == nil {
			rec.Badges = map[core.Badge]struct{}{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// isDuplicateKey reports whether err is a unique-constraint violation
// (Postgres 23505, MySQL 1062).
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

var _ engine.Storage = (*Store)(nil)
