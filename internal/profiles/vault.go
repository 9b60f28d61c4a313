package profiles

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/chacha20poly1305"
)

const devVaultSecret = "skillgap-dev-vault"

var errMissingVaultKey = errors.New("API_KEY_ENCRYPTION_KEY is required outside dev")

// KeyVault hashes and encrypts user API keys. The hash lets a key be verified
// without decrypting it; the ciphertext lets the requester use it.
type KeyVault struct {
	key []byte
}

// NewKeyVault derives a 32 byte XChaCha20-Poly1305 key from secret. A
// base64 secret of exactly 32 bytes is used as is.
func NewKeyVault(secret string, devLike bool) (*KeyVault, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if !devLike {
			return nil, errMissingVaultKey
		}
		secret = devVaultSecret
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == chacha20poly1305.KeySize {
		return &KeyVault{key: raw}, nil
	}
	sum := sha256.Sum256([]byte(secret))
	return &KeyVault{key: sum[:]}, nil
}

// Hash returns a bcrypt hash of the key's SHA-256 digest. bcrypt only reads
// 72 bytes, so the digest keeps long keys fully covered.
func (v *KeyVault) Hash(apiKey string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(digest(apiKey)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(out), nil
}

// Verify reports whether apiKey matches hash.
func (v *KeyVault) Verify(hash, apiKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(digest(apiKey))) == nil
}

// Encrypt seals apiKey and returns base64(nonce || ciphertext).
func (v *KeyVault) Encrypt(apiKey string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(apiKey)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(apiKey), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (v *KeyVault) Decrypt(encoded string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode api key: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("decrypt api key: ciphertext too short")
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt api key: %w", err)
	}
	return string(plain), nil
}

// KeyPrefix is the display form: the first 8 characters and an ellipsis.
func KeyPrefix(apiKey string) string {
	if len(apiKey) > 8 {
		return apiKey[:8] + "..."
	}
	return apiKey
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
