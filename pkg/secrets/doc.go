// Package secrets seals and opens tenant-scoped integration credentials.
//
// A 32-byte compound key is derived from the application key and the tenant
// key with HKDF-SHA-256. The derived key encrypts the payload with AES-256-GCM;
// the nonce is prepended to the ciphertext so stored values are
// self-contained. String and JSON helpers base64-encode the result so it can
// live in a text column.
//
// # Usage
//
//	appKey, _ := secrets.ParseKey(os.Getenv("APP_KEY"))
//	tenantKey, _ := secrets.GenerateKey()
//
//	sealed, err := secrets.EncryptJSON(appKey, tenantKey, creds)
//	...
//	var out Credentials
//	err = secrets.DecryptJSON(appKey, tenantKey, sealed, &out)
//
// Every failure wraps one of the sentinel errors in errors.go; use errors.Is.
package secrets
