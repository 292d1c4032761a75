package cipherservice

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	errorvalues "github.com/limbo/prayerbot/internal/error_values"
)

// CipherService encrypts revelation text at rest. AES-256-GCM with a random
// nonce prepended to the ciphertext, base64-encoded for storage in a text
// column. The key is derived from the configured secret.
type CipherService struct {
	aead cipher.AEAD
}

func New(secret string) (*CipherService, error) {
	if secret == "" {
		return nil, errors.New("empty cipher secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.New("creating cipher error: " + err.Error())
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.New("creating gcm error: " + err.Error())
	}
	return &CipherService{aead: aead}, nil
}

func (s *CipherService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.New("generating nonce error: " + err.Error())
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt returns ErrDecryptFailed for anything that does not authenticate,
// so history listing can substitute a placeholder per entry.
func (s *CipherService) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errorvalues.ErrDecryptFailed
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errorvalues.ErrDecryptFailed
	}
	nonce, sealed := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errorvalues.ErrDecryptFailed
	}
	return string(plaintext), nil
}
