package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrDecrypt = errors.New("unable to decrypt sealed value")

// TokenBox seals OAuth tokens with XSalsa20-Poly1305 before they reach the database.
type TokenBox struct {
	key [32]byte
}

// NewTokenBox derives the 32-byte box key from secret with SHA-256.
func NewTokenBox(secret string) (*TokenBox, error) {
	if secret == "" {
		return nil, errors.New("token encryption key is empty")
	}
	return &TokenBox{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal encrypts plaintext into base64(nonce || box). Empty input stays empty.
func (b *TokenBox) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (b *TokenBox) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
