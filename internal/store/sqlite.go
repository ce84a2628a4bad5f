package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/facegate/facegate/pkg/models"
)

// SQLite is a Store backed by a local SQLite database. Records are stored as
// JSON documents alongside the key columns needed for lookup and sweeping.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the database under dataDir and runs migrations.
func NewSQLite(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "facegate.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS fg_users (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fg_face_profiles (
			user_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fg_clients (
			client_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fg_auth_codes (
			code TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_codes_user_id ON fg_auth_codes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_codes_expires_at ON fg_auth_codes(expires_at)`,
		`CREATE TABLE IF NOT EXISTS fg_tokens (
			value TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON fg_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_expires_at ON fg_tokens(expires_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func insertRow(ctx context.Context, db *sql.DB, query string, record interface{}, args ...interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = db.ExecContext(ctx, query, append(args, string(data))...)
	if err != nil {
		// Primary key violation maps onto ErrConflict.
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

func selectRow(ctx context.Context, db *sql.DB, query string, out interface{}, args ...interface{}) error {
	var data string
	err := db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *SQLite) PutUser(ctx context.Context, u *models.User) error {
	return insertRow(ctx, s.db, `INSERT INTO fg_users (id, data) VALUES (?, ?)`, u, u.ID)
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := selectRow(ctx, s.db, `SELECT data FROM fg_users WHERE id = ?`, &u, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLite) UpdateUser(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE fg_users SET data = ? WHERE id = ?`, string(data), u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) PutFaceProfile(ctx context.Context, p *models.FaceProfile) error {
	return insertRow(ctx, s.db, `INSERT INTO fg_face_profiles (user_id, data) VALUES (?, ?)`, p, p.UserID)
}

func (s *SQLite) GetFaceProfile(ctx context.Context, userID string) (*models.FaceProfile, error) {
	var p models.FaceProfile
	if err := selectRow(ctx, s.db, `SELECT data FROM fg_face_profiles WHERE user_id = ?`, &p, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLite) ListFaceProfiles(ctx context.Context) ([]models.FaceProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM fg_face_profiles ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FaceProfile
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p models.FaceProfile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) PutClient(ctx context.Context, c *models.OAuthClient) error {
	return insertRow(ctx, s.db, `INSERT INTO fg_clients (client_id, data) VALUES (?, ?)`, c, c.ClientID)
}

func (s *SQLite) GetClient(ctx context.Context, clientID string) (*models.OAuthClient, error) {
	var c models.OAuthClient
	if err := selectRow(ctx, s.db, `SELECT data FROM fg_clients WHERE client_id = ?`, &c, clientID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLite) PutCode(ctx context.Context, c *models.AuthorizationCode) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fg_auth_codes (code, user_id, expires_at, data) VALUES (?, ?, ?, ?)`,
		c.Code, c.UserID, c.ExpiresAt.Unix(), string(data))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ConsumeCode reads and deletes the code inside one transaction, so two
// concurrent redemptions of the same code see exactly one success.
func (s *SQLite) ConsumeCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	var c models.AuthorizationCode
	err := s.consume(ctx, `fg_auth_codes`, `code`, code, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLite) consume(ctx context.Context, table, keyCol, key string, out interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	var expiresAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT data, expires_at FROM `+table+` WHERE `+keyCol+` = ?`, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+keyCol+` = ?`, key); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if time.Unix(expiresAt, 0).Before(time.Now()) {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *SQLite) PutToken(ctx context.Context, t *models.Token) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fg_tokens (value, user_id, expires_at, data) VALUES (?, ?, ?, ?)`,
		t.Value, t.UserID, t.ExpiresAt.Unix(), string(data))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLite) GetToken(ctx context.Context, value string) (*models.Token, error) {
	var data string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM fg_tokens WHERE value = ?`, value).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Unix(expiresAt, 0).Before(time.Now()) {
		return nil, ErrNotFound
	}
	var t models.Token
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLite) ConsumeToken(ctx context.Context, value string) (*models.Token, error) {
	var t models.Token
	if err := s.consume(ctx, `fg_tokens`, `value`, value, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLite) DeleteToken(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fg_tokens WHERE value = ?`, value)
	return err
}

func (s *SQLite) DeleteSubjectCredentials(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fg_tokens WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM fg_auth_codes WHERE user_id = ?`, userID)
	return err
}

func (s *SQLite) Sweep(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fg_auth_codes WHERE expires_at < ?`, now.Unix()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM fg_tokens WHERE expires_at < ?`, now.Unix())
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
