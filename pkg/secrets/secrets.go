package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
)

// EncryptBytes seals data with the compound key of appKey and tenantKey.
// The result layout is nonce || ciphertext || tag.
func EncryptBytes(appKey, tenantKey, data []byte) ([]byte, error) {
	aead, err := newAEAD(appKey, tenantKey, ErrEncryptionFailed)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aead.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens a value produced by EncryptBytes.
func DecryptBytes(appKey, tenantKey, ciphertext []byte) ([]byte, error) {
	aead, err := newAEAD(appKey, tenantKey, ErrDecryptionFailed)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptString seals a string and returns it base64-encoded.
func EncryptString(appKey, tenantKey []byte, plaintext string) (string, error) {
	ciphertext, err := EncryptBytes(appKey, tenantKey, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString opens a base64-encoded value produced by EncryptString.
func DecryptString(appKey, tenantKey []byte, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := DecryptBytes(appKey, tenantKey, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptJSON marshals v and seals it. The result is base64-encoded.
func EncryptJSON(appKey, tenantKey []byte, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	defer clearBytes(data)

	ciphertext, err := EncryptBytes(appKey, tenantKey, data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptJSON opens a value produced by EncryptJSON into v.
func DecryptJSON(appKey, tenantKey []byte, ciphertext string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := DecryptBytes(appKey, tenantKey, raw)
	if err != nil {
		return err
	}
	defer clearBytes(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return errors.Join(ErrDecryptionFailed, err)
	}
	return nil
}

func newAEAD(appKey, tenantKey []byte, failure error) (cipher.AEAD, error) {
	if err := ValidateKeys(appKey, tenantKey); err != nil {
		return nil, err
	}

	key, err := deriveKey(appKey, tenantKey)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(failure, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(failure, err)
	}
	return aead, nil
}
