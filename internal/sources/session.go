package sources

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	// sessionMagicHeader identifies an encrypted session file.
	sessionMagicHeader = "MTGSESS1"

	// Argon2id parameters (RFC 9106 recommendations).
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	sessionSaltLength = 32
)

// SessionStore persists the site login cookies encrypted at rest with
// AES-256-GCM under an argon2id-derived key. Some tournament sites only
// publish decklists to logged-in users; the session outlives a single
// run so the login is not repeated per batch.
type SessionStore struct {
	path     string
	password string

	mu      sync.RWMutex
	cookies map[string]string
}

// NewSessionStore creates a store backed by the file at path. The file
// is created on first Save; a missing file loads as an empty session.
func NewSessionStore(path, password string) *SessionStore {
	return &SessionStore{
		path:     path,
		password: password,
		cookies:  make(map[string]string),
	}
}

// SetCookie records a cookie in memory. Save persists it.
func (s *SessionStore) SetCookie(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[name] = value
}

// Cookies returns the session cookies for attaching to a request.
func (s *SessionStore) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cookies := make([]*http.Cookie, 0, len(s.cookies))
	for name, value := range s.cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// Load reads and decrypts the session file. A missing file is not an
// error; the store is simply empty.
func (s *SessionStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session file: %w", err)
	}

	if len(data) < len(sessionMagicHeader) || string(data[:len(sessionMagicHeader)]) != sessionMagicHeader {
		return fmt.Errorf("session file %s is not in the expected format", s.path)
	}

	plaintext, err := decryptSession(data[len(sessionMagicHeader):], s.password)
	if err != nil {
		return fmt.Errorf("decrypt session: %w", err)
	}

	cookies := make(map[string]string)
	if err := json.Unmarshal(plaintext, &cookies); err != nil {
		return fmt.Errorf("parse session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = cookies
	return nil
}

// Save encrypts and writes the session file with owner-only permissions.
func (s *SessionStore) Save() error {
	s.mu.RLock()
	plaintext, err := json.Marshal(s.cookies)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	encrypted, err := encryptSession(plaintext, s.password)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}

	data := append([]byte(sessionMagicHeader), encrypted...)
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// deriveSessionKey derives the AES key from the password with argon2id.
func deriveSessionKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// encryptSession seals plaintext as salt || nonce || ciphertext.
func encryptSession(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("session password required")
	}

	salt := make([]byte, sessionSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveSessionKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// decryptSession reverses encryptSession.
func decryptSession(encrypted []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("session password required")
	}
	if len(encrypted) < sessionSaltLength {
		return nil, fmt.Errorf("encrypted session too short")
	}

	salt := encrypted[:sessionSaltLength]
	encrypted = encrypted[sessionSaltLength:]

	block, err := aes.NewCipher(deriveSessionKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	if len(encrypted) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted session too short for nonce")
	}
	nonce := encrypted[:gcm.NonceSize()]
	ciphertext := encrypted[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}
