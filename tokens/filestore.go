package tokens

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileStore is an encrypted-at-rest Store for CLI-style clients without OS
// keychain access. The record is sealed with AES-256-GCM under a
// caller-supplied 32-byte key; the nonce is prepended to the ciphertext.
type FileStore struct {
	mu   sync.Mutex
	path string
	aead cipher.AEAD
}

// NewFileStore opens a store at path with the given 32-byte key. The file
// is created on first Save with 0600 permissions.
func NewFileStore(path string, key []byte) (*FileStore, error) {
	if len(key) != 32 {
		return nil, errors.New("tokens: file store key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, aead: aead}, nil
}

// Load reads and decrypts the record, returning (nil, nil) when the file
// does not exist. A file that fails to decrypt or decode is an error; the
// Manager treats that the same as any other unusable local state.
func (s *FileStore) Load(ctx context.Context) (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New("tokens: sealed record too short")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("tokens: decrypt stored record: %w", err)
	}

	var t Tokens
	if err := json.Unmarshal(plain, &t); err != nil {
		return nil, fmt.Errorf("tokens: decode stored record: %w", err)
	}
	return &t, nil
}

// Save encrypts and writes the record.
func (s *FileStore) Save(ctx context.Context, t *Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := json.Marshal(t)
	if err != nil {
		return err
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := s.aead.Seal(nonce, nonce, plain, nil)

	return os.WriteFile(s.path, sealed, 0o600)
}

// Clear removes the file. Missing files are not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
