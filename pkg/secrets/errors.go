package secrets

import "errors"

var (
	ErrInvalidAppKey    = errors.New("invalid app key: must be 32 bytes")
	ErrInvalidTenantKey = errors.New("invalid tenant key: must be 32 bytes")

	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrInvalidKeyEncoding  = errors.New("invalid key encoding: expected 64 hex characters")
)
