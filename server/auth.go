package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"videorank/shared/storage"
)

const userContextKey = "user"

// sessionStore maps bearer tokens to logged-in users. Sessions live in
// memory and do not survive a restart.
type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]*storage.User
}

func newSessionStore() *sessionStore {
	return &sessionStore{tokens: make(map[string]*storage.User)}
}

func (s *sessionStore) create(user *storage.User) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = user
	s.mu.Unlock()
	return token
}

func (s *sessionStore) lookup(token string) *storage.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token]
}

func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// busyTracker holds a per-user flag so only one search runs per user at a
// time.
type busyTracker struct {
	mu    sync.Mutex
	users map[int64]bool
}

func newBusyTracker() *busyTracker {
	return &busyTracker{users: make(map[int64]bool)}
}

func (b *busyTracker) acquire(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.users[userID] {
		return false
	}
	b.users[userID] = true
	return true
}

func (b *busyTracker) release(userID int64) {
	b.mu.Lock()
	delete(b.users, userID)
	b.mu.Unlock()
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
	}

	user, err := s.store.CreateUser(req.Username, req.Password, false)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "username already taken"})
		}
		return fmt.Errorf("creating user: %w", err)
	}

	token := s.sessions.create(user)
	return c.JSON(http.StatusCreated, map[string]any{"token": token, "user": user})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
		}
		return fmt.Errorf("authenticating: %w", err)
	}

	token := s.sessions.create(user)
	return c.JSON(http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleLogout(c echo.Context) error {
	s.sessions.revoke(bearerToken(c))
	return c.NoContent(http.StatusNoContent)
}

// requireAuth resolves the bearer token and stores the user on the
// request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		}
		user := s.sessions.lookup(token)
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired session"})
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c echo.Context) *storage.User {
	user, _ := c.Get(userContextKey).(*storage.User)
	return user
}
