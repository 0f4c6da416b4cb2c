// Package crypto provides the cryptographic primitives of the RootlessNet protocol.
//
// Primitives:
//   - Ed25519 signatures (32-byte seeds, 64-byte signatures)
//   - XChaCha20-Poly1305 AEAD with a fresh random 24-byte nonce per message
//   - BLAKE3-256 hashing for addressing and identifiers
//   - HKDF-SHA256 key derivation with domain-separated info strings
//   - X25519 key agreement, including Ed25519 to X25519 key conversion
//
// Every function is synchronous and safe for concurrent use. The only shared
// resource is crypto/rand.Reader.
package crypto
