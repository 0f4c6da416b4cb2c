// Package messaging implements end-to-end encrypted direct messages between
// identities.
//
// Every message gets a fresh X25519 ephemeral key. The shared secret between
// the ephemeral key and the recipient's exchange key is expanded with
// HKDF-SHA256, bound to the sender's DID, into an XChaCha20-Poly1305 key.
// The result is a JSON envelope carrying the sender's signing key, the
// ephemeral public key, the nonce-prefixed ciphertext, a timestamp and a
// message id.
//
// Two recipient key schemes exist. SchemeEdwards, the default, maps the
// recipient's Ed25519 key onto Curve25519. SchemeLegacyHKDF reproduces the
// older substitution where the exchange scalar is derived from the public
// key alone; anyone holding the recipient's public key can decrypt such
// messages, so it is only useful for reading old traffic.
package messaging
