// Package storage provides sqlite-backed persistence for user accounts,
// summary patterns, and cached search results.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videorank/internal/models"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
)

// User is an account row, without the password hash.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Pattern is a user-defined summary style: a named prompt template,
// optionally shared with everyone.
type Pattern struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PromptTemplate string    `json:"prompt_template"`
	IsPublic       bool      `json:"is_public"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin INTEGER DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS patterns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	prompt_template TEXT NOT NULL,
	is_public INTEGER DEFAULT 0,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS searches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	query TEXT NOT NULL,
	results TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (user_id, query),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
`

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Store) CreateUser(username, password string, isAdmin bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO users (username, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?)`,
		username, string(hash), isAdmin, time.Now().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user id: %w", err)
	}
	return &User{ID: id, Username: username, IsAdmin: isAdmin}, nil
}

// Authenticate verifies a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Store) Authenticate(username, password string) (*User, error) {
	var (
		user User
		hash string
	)
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, is_admin FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.Username, &hash, &user.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// EnsureAdmin seeds the admin account when no users exist yet. A no-op
// when the password is empty or any account already exists.
func (s *Store) EnsureAdmin(password string) error {
	if password == "" {
		return nil
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err := s.CreateUser("admin", password, true)
	return err
}

// CreatePattern stores a pattern and fills in its ID and creation time.
func (s *Store) CreatePattern(p *Pattern) error {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO patterns (user_id, name, description, prompt_template, is_public, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.PromptTemplate, p.IsPublic, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create pattern %s: %w", p.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new pattern id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// PatternsVisibleTo returns the user's own patterns plus everyone's public
// ones, oldest first.
func (s *Store) PatternsVisibleTo(userID int64) ([]Pattern, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, description, prompt_template, is_public, created_at
		 FROM patterns WHERE user_id = ? OR is_public = 1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var (
			p         Pattern
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.PromptTemplate, &p.IsPublic, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}
	return patterns, nil
}

// DeletePattern removes one of the user's own patterns. Deleting someone
// else's pattern, or a missing one, reports ErrNotFound.
func (s *Store) DeletePattern(id, userID int64) error {
	res, err := s.db.Exec(`DELETE FROM patterns WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete pattern %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSearch caches a ranked result set for (user, query), replacing any
// previous entry for the same pair.
func (s *Store) SaveSearch(userID int64, query string, videos []models.RankedVideo) error {
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to encode search results: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO searches (user_id, query, results, created_at) VALUES (?, ?, ?, ?)`,
		userID, query, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save search for %q: %w", query, err)
	}
	return nil
}

// GetSearch returns the cached result set for (user, query) if one exists
// and is younger than maxAge; (nil, nil) otherwise. Expiry itself is the
// sweeper's job.
func (s *Store) GetSearch(userID int64, query string, maxAge time.Duration) ([]models.RankedVideo, error) {
	var (
		data      string
		createdAt int64
	)
	err := s.db.QueryRow(
		`SELECT results, created_at FROM searches WHERE user_id = ? AND query = ?`,
		userID, query,
	).Scan(&data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached search for %q: %w", query, err)
	}

	if time.Since(time.Unix(createdAt, 0)) >= maxAge {
		return nil, nil
	}

	var videos []models.RankedVideo
	if err := json.Unmarshal([]byte(data), &videos); err != nil {
		return nil, fmt.Errorf("failed to decode cached search for %q: %w", query, err)
	}
	return videos, nil
}

// PruneSearches deletes cache entries older than maxAge and reports how
// many were removed.
func (s *Store) PruneSearches(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.Exec(`DELETE FROM searches WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune searches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	return n, nil
}
