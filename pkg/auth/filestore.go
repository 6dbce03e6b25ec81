package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore keeps all sessions in one AES-GCM encrypted file. The
// key is derived with PBKDF2 from IGAUDIT_PASSPHRASE, or from a random
// passphrase generated once and kept next to the file.
type EncryptedFileStore struct {
	path           string
	passphrasePath string
	mu             sync.Mutex
}

// sealedFile is the on-disk layout
type sealedFile struct {
	Version   int    `json:"version"`
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

// NewEncryptedFileStore creates a store at path, creating its directory
func NewEncryptedFileStore(path, passphrasePath string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrasePath: passphrasePath}, nil
}

func (e *EncryptedFileStore) Name() string { return "encrypted-file" }

func (e *EncryptedFileStore) Save(session *Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.load()
	if err != nil {
		return err
	}
	sessions[session.Account] = *session
	return e.save(sessions)
}

func (e *EncryptedFileStore) Load(account string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.load()
	if err != nil {
		return nil, err
	}
	session, ok := sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (e *EncryptedFileStore) Delete(account string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[account]; !ok {
		return ErrSessionNotFound
	}
	delete(sessions, account)

	if len(sessions) == 0 {
		return os.Remove(e.path)
	}
	return e.save(sessions)
}

// Accounts lists the account names held in the file
func (e *EncryptedFileStore) Accounts() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	return names, nil
}

// load decrypts the file; a missing file is an empty set
func (e *EncryptedFileStore) load() (map[string]Session, error) {
	content, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Session), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sealed sealedFile
	if err := json.Unmarshal(content, &sealed); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(sealed.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	key, err := e.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := decrypt(ciphertext, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session file: %w", err)
	}

	sessions := make(map[string]Session)
	if err := json.Unmarshal(plaintext, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return sessions, nil
}

// save encrypts sessions under a fresh salt and swaps the file in atomically
func (e *EncryptedFileStore) save(sessions map[string]Session) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := e.deriveKey(salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt sessions: %w", err)
	}

	content, err := json.MarshalIndent(sealedFile{
		Version:   1,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) deriveKey(salt []byte) ([]byte, error) {
	passphrase, err := e.passphrase()
	if err != nil {
		return nil, err
	}
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New), nil
}

// passphrase prefers IGAUDIT_PASSPHRASE, then the stored one, and generates
// and stores a new one on first use
func (e *EncryptedFileStore) passphrase() (string, error) {
	if pass := os.Getenv("IGAUDIT_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	if content, err := os.ReadFile(e.passphrasePath); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(e.passphrasePath, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

// encrypt seals plaintext with AES-GCM, prefixing the nonce
func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
