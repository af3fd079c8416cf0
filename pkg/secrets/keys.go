package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required size of both the app key and tenant keys.
	KeySize = 32

	// hkdfInfo separates keys derived here from any other HKDF use of the same inputs.
	hkdfInfo = "notifykit-integration-credentials-v1"
)

// ValidateKeys checks that both keys have the correct length.
// Both lengths are evaluated before returning.
func ValidateKeys(appKey, tenantKey []byte) error {
	validApp := len(appKey) == KeySize
	validTenant := len(tenantKey) == KeySize

	if !validApp {
		return ErrInvalidAppKey
	}
	if !validTenant {
		return ErrInvalidTenantKey
	}
	return nil
}

// GenerateKey returns a new random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ParseKey decodes a hex-encoded 32-byte key, as stored in APP_KEY.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyEncoding, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKeyEncoding
	}
	return key, nil
}

// deriveKey derives the compound key. Callers must clearBytes the result.
func deriveKey(appKey, tenantKey []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, appKey, tenantKey, []byte(hkdfInfo))

	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return derived, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
