package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters for passphrase-derived keys.
const (
	sealSaltSize  = 16
	sealTime      = 1
	sealMemoryKiB = 64 * 1024
	sealThreads   = 4
	sealKeySize   = 32 // AES-256
)

// CredentialSealerImpl implements ports.CredentialSealer with argon2id key
// derivation and AES-256-GCM. The passphrase never leaves this service and is
// never persisted; only the sealed blob is stored.
type CredentialSealerImpl struct{}

// NewCredentialSealer creates a new CredentialSealerImpl.
func NewCredentialSealer() *CredentialSealerImpl {
	return &CredentialSealerImpl{}
}

// Seal encrypts plaintext under a passphrase-derived key.
// Returns hex-encoded: salt(16) + nonce + ciphertext.
func (s *CredentialSealerImpl) Seal(plaintext, passphrase string) (string, error) {
	salt := make([]byte, sealSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	aesGCM, err := gcmForPassphrase(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := append(salt, aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)...)
	return hex.EncodeToString(sealed), nil
}

// Open decrypts a sealed blob. A wrong passphrase fails GCM authentication
// and returns an error without revealing anything about the plaintext.
func (s *CredentialSealerImpl) Open(sealed, passphrase string) (string, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding sealed credential: %w", err)
	}
	if len(raw) < sealSaltSize {
		return "", fmt.Errorf("sealed credential too short")
	}
	salt, rest := raw[:sealSaltSize], raw[sealSaltSize:]

	aesGCM, err := gcmForPassphrase(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(rest) < nonceSize {
		return "", fmt.Errorf("sealed credential too short")
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening credential: %w", err)
	}
	return string(plaintext), nil
}

func gcmForPassphrase(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, sealTime, sealMemoryKiB, sealThreads, sealKeySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aesGCM, nil
}
