package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"igaudit/pkg/config"
	"igaudit/pkg/logger"
)

// DefaultAccount names the session used when no account is given
const DefaultAccount = "default"

// Session holds the Instagram cookies the live provider authenticates with
type Session struct {
	Account   string    `json:"account"`
	SessionID string    `json:"session_id"`
	CSRFToken string    `json:"csrf_token"`
	UserAgent string    `json:"user_agent,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that both cookies are present
func (s *Session) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if s.SessionID == "" {
		return fmt.Errorf("%w: session ID is required", ErrInvalidSession)
	}
	if s.CSRFToken == "" {
		return fmt.Errorf("%w: CSRF token is required", ErrInvalidSession)
	}
	return nil
}

// Masked returns a copy with the cookie values hidden, for display
func (s *Session) Masked() *Session {
	masked := *s
	masked.SessionID = maskString(s.SessionID)
	masked.CSRFToken = maskString(s.CSRFToken)
	return &masked
}

// Store is a place sessions can be kept
type Store interface {
	Name() string
	Save(session *Session) error
	Load(account string) (*Session, error)
	Delete(account string) error
}

// Manager reads sessions from an ordered list of stores and writes to the
// first one that accepts the write
type Manager struct {
	stores []Store
	logger logger.Logger
}

// NewManager builds the standard chain: system keychain when available,
// then an encrypted file under dir, then IGAUDIT_* environment variables.
// An empty dir selects the per-user config directory.
func NewManager(dir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var stores []Store
	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	} else {
		log.DebugWithFields("system keychain unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if dir == "" {
		var err error
		if dir, err = configDir(); err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	fs, err := NewEncryptedFileStore(filepath.Join(dir, "sessions.enc"), filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fs, NewEnvironmentStore())

	return NewManagerWithStores(log, stores...), nil
}

// NewManagerWithStores builds a manager over explicit stores
func NewManagerWithStores(log logger.Logger, stores ...Store) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{stores: stores, logger: log}
}

func normaliseAccount(account string) string {
	if account == "" {
		return DefaultAccount
	}
	return account
}

// Save validates and stores a session, returning the name of the store used
func (m *Manager) Save(session *Session) (string, error) {
	if err := session.Validate(); err != nil {
		return "", err
	}
	session.Account = normaliseAccount(session.Account)
	session.UpdatedAt = time.Now()

	var errs []error
	for _, store := range m.stores {
		err := store.Save(session)
		if err == nil {
			m.logger.InfoWithFields("session stored", map[string]interface{}{
				"account": session.Account,
				"store":   store.Name(),
			})
			return store.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}

	if len(errs) == 0 {
		return "", ErrStoreUnavailable
	}
	return "", fmt.Errorf("failed to store session: %w", errors.Join(errs...))
}

// Load returns the session for account from the first store that has it
func (m *Manager) Load(account string) (*Session, error) {
	account = normaliseAccount(account)
	for _, store := range m.stores {
		session, err := store.Load(account)
		if err == nil && session != nil {
			m.logger.DebugWithFields("session loaded", map[string]interface{}{
				"account": account,
				"store":   store.Name(),
			})
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, account)
}

// Delete removes the session for account from every store holding it
func (m *Manager) Delete(account string) error {
	account = normaliseAccount(account)
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(account); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, account)
	}
	return nil
}

// Apply fills missing Instagram credentials in cfg from the stored session.
// Credentials already set through config, env or flags win.
func (m *Manager) Apply(cfg *config.InstagramConfig, account string) error {
	if cfg.SessionID != "" && cfg.CSRFToken != "" {
		return nil
	}

	session, err := m.Load(account)
	if err != nil {
		return err
	}

	if cfg.SessionID == "" {
		cfg.SessionID = session.SessionID
	}
	if cfg.CSRFToken == "" {
		cfg.CSRFToken = session.CSRFToken
	}
	if session.UserAgent != "" {
		cfg.UserAgent = session.UserAgent
	}
	return nil
}

// configDir returns the per-user igaudit configuration directory
func configDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "igaudit")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "igaudit")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "igaudit")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "igaudit")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
