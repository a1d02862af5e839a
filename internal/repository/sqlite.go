package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chatrelay/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT,
			current_session_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_active_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, last_active_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertUser inserts the user if absent and refreshes the username.
func (s *SQLiteStore) UpsertUser(ctx context.Context, userID, username string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, username) VALUES (?, ?)`,
		userID, username); err != nil {
		return err
	}
	if username == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ? WHERE user_id = ?`, username, userID)
	return err
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	var username, currentSessionID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, current_session_id, created_at FROM users WHERE user_id = ?`,
		userID).Scan(&user.UserID, &username, &currentSessionID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if username.Valid {
		user.Username = username.String
	}
	if currentSessionID.Valid {
		user.CurrentSessionID = currentSessionID.String
	}
	return &user, nil
}

// CreateSession inserts a session and points the owner's current-session
// pointer at it, atomically.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, title, model, created_at, last_active_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.UserID, session.Title, session.Model,
		session.CreatedAt, session.LastActiveAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET current_session_id = ? WHERE user_id = ?`,
		session.SessionID, session.UserID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, title, model, created_at, last_active_at
		 FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.Title,
		&session.Model, &session.CreatedAt, &session.LastActiveAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SetCurrentSession moves the user's current-session pointer after an
// ownership check.
func (s *SQLiteStore) SetCurrentSession(ctx context.Context, userID, sessionID string) error {
	if err := s.checkOwner(ctx, sessionID, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_session_id = ? WHERE user_id = ?`,
		sessionID, userID)
	return err
}

// TouchSession bumps the session's last_active_at.
func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_active_at = ? WHERE session_id = ?`,
		time.Now().UTC(), sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendMessage inserts a message and bumps the parent session's
// last_active_at. Both succeed or both fail.
func (s *SQLiteStore) AppendMessage(ctx context.Context, message *domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_active_at = ? WHERE session_id = ?`,
		message.CreatedAt, message.SessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, kind, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.Role, message.Kind,
		message.Content, message.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecentSessions returns the user's sessions, most recently active first.
func (s *SQLiteStore) ListRecentSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, title, model, created_at, last_active_at
		 FROM sessions WHERE user_id = ?
		 ORDER BY last_active_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.SessionID, &session.UserID, &session.Title,
			&session.Model, &session.CreatedAt, &session.LastActiveAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ListMessages returns the most recent limit messages of a session in
// ascending chronological order. The window is taken from the tail and
// re-ordered ascending; insertion order (rowid) breaks created_at ties.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, kind, content, created_at FROM messages
		 WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query = `SELECT message_id, session_id, role, kind, content, created_at FROM (
			SELECT message_id, session_id, role, kind, content, created_at, rowid AS rid
			FROM messages WHERE session_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		 ) ORDER BY created_at ASC, rid ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Kind,
			&msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// RenameSession sets the session title after an ownership check.
func (s *SQLiteStore) RenameSession(ctx context.Context, userID, sessionID, title string) error {
	if err := s.checkOwner(ctx, sessionID, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ? WHERE session_id = ?`, title, sessionID)
	return err
}

// RenameSessionIfPlaceholder sets the title only while it is still the
// placeholder, so an auto-name never clobbers a user-supplied title.
func (s *SQLiteStore) RenameSessionIfPlaceholder(ctx context.Context, sessionID, title string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ? WHERE session_id = ? AND title = ?`,
		title, sessionID, domain.PlaceholderTitle)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetSessionModel sets the active model after an ownership check. A model
// switch changes session metadata only; message history is untouched.
func (s *SQLiteStore) SetSessionModel(ctx context.Context, userID, sessionID, model string) error {
	if err := s.checkOwner(ctx, sessionID, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET model = ? WHERE session_id = ?`, model, sessionID)
	return err
}

func (s *SQLiteStore) checkOwner(ctx context.Context, sessionID, userID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE session_id = ?`, sessionID).Scan(&owner)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return domain.ErrNotOwner
	}
	return nil
}
