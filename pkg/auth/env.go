package auth

import "os"

// EnvironmentStore reads a session from IGAUDIT_SESSION_ID and
// IGAUDIT_CSRF_TOKEN. It answers for any account name and cannot be written.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

func (e *EnvironmentStore) Save(session *Session) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Load(account string) (*Session, error) {
	session := &Session{
		Account:   account,
		SessionID: os.Getenv("IGAUDIT_SESSION_ID"),
		CSRFToken: os.Getenv("IGAUDIT_CSRF_TOKEN"),
		UserAgent: os.Getenv("IGAUDIT_USER_AGENT"),
	}
	if session.Validate() != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (e *EnvironmentStore) Delete(account string) error {
	return ErrStoreUnavailable
}
