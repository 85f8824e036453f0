package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
)

// Tokens are encrypted at rest with AES-GCM when TOKEN_ENCRYPTION_KEY is set
// to a 32 byte key. Without a key the helpers pass values through unchanged,
// which keeps local development and tests free of key management.

var ErrInvalidKey = errors.New("TOKEN_ENCRYPTION_KEY must be exactly 32 bytes long")

func key() []byte {
	return []byte(env.GetEnv("TOKEN_ENCRYPTION_KEY", ""))
}

// Enabled reports whether a token encryption key is configured.
func Enabled() bool {
	return len(key()) > 0
}

// EncryptToken encrypts plaintext when a key is configured, otherwise it
// returns the input unchanged.
func EncryptToken(plaintext string) (string, error) {
	if !Enabled() || plaintext == "" {
		return plaintext, nil
	}
	return encrypt(plaintext, key())
}

// DecryptToken is the inverse of EncryptToken.
func DecryptToken(stored string) (string, error) {
	if !Enabled() || stored == "" {
		return stored, nil
	}
	return decrypt(stored, key())
}

func encrypt(plaintext string, k []byte) (string, error) {
	if len(k) != 32 {
		return "", ErrInvalidKey
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decrypt(stored string, k []byte) (string, error) {
	if len(k) != 32 {
		return "", ErrInvalidKey
	}

	ciphertext, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext shorter than nonce")
	}
	nonce, data := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
