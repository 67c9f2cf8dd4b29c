package auth

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInvalidArgumentType = errors.New("username and password must be strings")
	ErrEmptyCredential     = errors.New("username and password cannot be empty")
	ErrDuplicateUsername   = errors.New("user already exists")
)

const invalidCredentials = "Invalid username or password"

// AuthResult is the outcome of a login attempt. UserID is nil unless Success is set.
type AuthResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	UserID  *string `json:"user_id"`
}

type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Store holds plaintext username/password pairs in memory. Entries can be added
// but never removed or changed.
type Store struct {
	mu    sync.RWMutex
	users map[string]string
}

// DefaultSeed returns a fresh copy of the built-in credentials.
func DefaultSeed() map[string]string {
	return map[string]string{
		"admin":    "password123",
		"user1":    "pass1234",
		"testuser": "test@123",
	}
}

// New builds a store from seed. The seed map is copied.
func New(seed map[string]string) (*Store, error) {
	users := make(map[string]string, len(seed))
	for user, password := range seed {
		if user == "" {
			return nil, fmt.Errorf("seed: %w", ErrEmptyCredential)
		}
		users[user] = password
	}
	return &Store{users: users}, nil
}

func NewDefault() *Store {
	return &Store{users: DefaultSeed()}
}

func validate(user, password string) error {
	switch {
	case user == "":
		return fmt.Errorf("username: %w", ErrEmptyCredential)
	case password == "":
		return fmt.Errorf("password: %w", ErrEmptyCredential)
	}
	return nil
}

// Authenticate checks user and password against the store. A mismatch is a
// normal result; the message does not tell an unknown user from a bad password.
func (s *Store) Authenticate(user, password string) (AuthResult, error) {
	if err := validate(user, password); err != nil {
		return AuthResult{}, err
	}
	if !s.match(user, password) {
		return AuthResult{Message: invalidCredentials}, nil
	}
	return AuthResult{
		Success: true,
		Message: fmt.Sprintf("Login successful for user %s", user),
		UserID:  &user,
	}, nil
}

// Register adds a new credential pair. Empty input is rejected the same way
// Authenticate rejects it.
func (s *Store) Register(user, password string) (RegisterResult, error) {
	if err := validate(user, password); err != nil {
		return RegisterResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user]; ok {
		return RegisterResult{}, fmt.Errorf("user '%s': %w", user, ErrDuplicateUsername)
	}
	s.users[user] = password
	return RegisterResult{
		Success: true,
		Message: fmt.Sprintf("User %s created successfully", user),
	}, nil
}

func (s *Store) Exists(user string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[user]
	return ok
}

// Verify reports whether user and password match. Empty input is false.
func (s *Store) Verify(user, password string) bool {
	if validate(user, password) != nil {
		return false
	}
	return s.match(user, password)
}

func (s *Store) match(user, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pw, ok := s.users[user]
	return ok && pw == password
}
