// Package secrets seals small payloads, such as persisted session credentials,
// with AES-256-GCM under a key derived by HKDF-SHA256.
//
// A Sealer is built from a 32 byte master key:
//
//	key, _ := secrets.ParseKey(os.Getenv("LIBRARY_CREDENTIAL_KEY"))
//	sealer, err := secrets.NewSealer(key)
//	box, err := sealer.SealString("eyJhbGciOi...")
//	token, err := sealer.OpenString(box)
//
// Sealed output is nonce || ciphertext || tag; the string helpers wrap it in
// standard base64. An optional context label passed to NewSealer separates
// keys for different purposes derived from the same master key.
package secrets
