package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestKeyPairGeneration(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if len(kp.PublicKey) != PublicKeySize || len(kp.PrivateKey) != PrivateKeySize {
		t.Fatalf("unexpected key sizes %d/%d", len(kp.PublicKey), len(kp.PrivateKey))
	}

	rebuilt, err := KeyPairFromPrivateKey(kp.PrivateKey)
	if err != nil {
		t.Fatalf("KeyPairFromPrivateKey: %v", err)
	}
	if !bytes.Equal(rebuilt.PublicKey, kp.PublicKey) {
		t.Fatalf("rebuilt public key mismatch")
	}

	if _, err := KeyPairFromPrivateKey(make([]byte, 31)); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	kp, _ := GenerateKeyPair()
	msg := []byte("Hello, RootlessNet!")

	sig, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Fatalf("signature length %d", len(sig))
	}
	again, _ := Sign(kp.PrivateKey, msg)
	if !bytes.Equal(sig, again) {
		t.Fatalf("signatures should be deterministic")
	}

	if err := Verify(kp.PublicKey, msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := Verify(kp.PublicKey, []byte("tampered"), sig); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}

	other, _ := GenerateKeyPair()
	if err := Verify(other.PublicKey, msg, sig); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed for other key, got %v", err)
	}
}

func TestVerifyMalformedInput(t *testing.T) {
	kp, _ := GenerateKeyPair()
	sig, _ := kp.Sign([]byte("m"))

	cases := []struct {
		name string
		pub  []byte
		sig  []byte
	}{
		{"short key", kp.PublicKey[:31], sig},
		{"nil key", nil, sig},
		{"short signature", kp.PublicKey, sig[:63]},
		{"long signature", kp.PublicKey, append(append([]byte{}, sig...), 0)},
	}
	for _, tc := range cases {
		if err := Verify(tc.pub, []byte("m"), tc.sig); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%s: expected ErrInvalidKey, got %v", tc.name, err)
		}
	}

	if _, err := Sign(make([]byte, 64), []byte("m")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for 64-byte private key, got %v", err)
	}
}

func TestAEADRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	aead, err := NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}

	plaintext := []byte("hello rootless secure channel")
	ad := []byte("additional data")

	ciphertext, err := aead.Seal(plaintext, ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(ciphertext) != len(plaintext)+aead.Overhead() {
		t.Fatalf("unexpected ciphertext length")
	}

	decrypted, err := aead.Open(ciphertext, ad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted != plaintext")
	}

	// Tamper with ciphertext
	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err = aead.Open(ciphertext, ad); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure on tampered ciphertext, got %v", err)
	}
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("authentication failure should be a decryption failure")
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	key := bytes.Repeat([]byte{42}, KeySize)
	a, err := Encrypt(key, []byte("Secret message"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, _ := Encrypt(key, []byte("Secret message"))
	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Fatalf("nonce reused across calls")
	}
	pt, err := Decrypt(key, a)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "Secret message" {
		t.Fatalf("plaintext mismatch")
	}
}

func TestDecryptTooShort(t *testing.T) {
	keys := [][]byte{
		bytes.Repeat([]byte{1}, KeySize),
		make([]byte, 3), // even an invalid key reports the length problem first
		nil,
	}
	for _, key := range keys {
		for _, n := range []int{0, 1, NonceSize - 1} {
			_, err := Decrypt(key, make([]byte, n))
			if !errors.Is(err, ErrCiphertextTooShort) {
				t.Fatalf("len %d: expected ErrCiphertextTooShort, got %v", n, err)
			}
		}
	}

	// Exactly a nonce and nothing else is long enough to parse but fails authentication.
	_, err := Decrypt(bytes.Repeat([]byte{1}, KeySize), make([]byte, NonceSize))
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAEADInvalidKey(t *testing.T) {
	if _, err := NewAEAD(make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := Encrypt(make([]byte, 31), []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("Hello")) != Hash([]byte("Hello")) {
		t.Fatalf("hash is not deterministic")
	}
	if Hash([]byte("Hello")) == Hash([]byte("World")) {
		t.Fatalf("distinct inputs hashed equal")
	}
	if got := ShortHash([]byte("Hello"), 16); len(got) != 16 {
		t.Fatalf("ShortHash length %d", len(got))
	}
	full := Hash([]byte("Hello"))
	if !bytes.Equal(ShortHash([]byte("Hello"), 16), full[:16]) {
		t.Fatalf("ShortHash must be a prefix of Hash")
	}
}

func TestDeriveKey(t *testing.T) {
	ikm := []byte("input key material")
	salt := []byte("salt")

	k1, err := DeriveKey(ikm, salt, []byte("context-a"), 32)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, _ := DeriveKey(ikm, salt, []byte("context-a"), 32)
	if !bytes.Equal(k1, k2) {
		t.Fatalf("derivation is not deterministic")
	}
	k3, _ := DeriveKey(ikm, salt, []byte("context-b"), 32)
	if bytes.Equal(k1, k3) {
		t.Fatalf("different contexts should give different keys")
	}
	long, _ := DeriveKey(ikm, salt, []byte("context-a"), 64)
	if len(long) != 64 {
		t.Fatalf("unexpected length %d", len(long))
	}

	for _, n := range []int{0, -1, 255*32 + 1} {
		if _, err := DeriveKey(ikm, salt, nil, n); !errors.Is(err, ErrKeyDerivationFailed) {
			t.Fatalf("length %d: expected ErrKeyDerivationFailed, got %v", n, err)
		}
	}
}

func TestHexAndBase58(t *testing.T) {
	kp, _ := GenerateKeyPair()
	enc := EncodeHex(kp.PublicKey)
	if enc != string(bytes.ToLower([]byte(enc))) {
		t.Fatalf("hex must be lowercase")
	}
	dec, err := DecodeKey(enc, PublicKeySize)
	if err != nil || !bytes.Equal(dec, kp.PublicKey) {
		t.Fatalf("DecodeKey round trip failed: %v", err)
	}
	if _, err := DecodeKey("zz", 1); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for bad hex, got %v", err)
	}
	if _, err := DecodeKey(enc[:62], PublicKeySize); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for short key, got %v", err)
	}

	b58 := EncodeBase58([]byte{0, 1, 2, 3})
	back, err := DecodeBase58(b58)
	if err != nil || !bytes.Equal(back, []byte{0, 1, 2, 3}) {
		t.Fatalf("base58 round trip failed: %v", err)
	}
}

func BenchmarkAEADSeal(b *testing.B) {
	key := make([]byte, 32)
	aead, _ := NewAEAD(key)
	plaintext := make([]byte, 64*1024) // 64 KB
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = aead.Seal(plaintext, nil)
	}
}

func BenchmarkAEADOpen(b *testing.B) {
	key := make([]byte, 32)
	aead, _ := NewAEAD(key)
	plaintext := make([]byte, 64*1024)
	ciphertext, _ := aead.Seal(plaintext, nil)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = aead.Open(ciphertext, nil)
	}
}

func BenchmarkHash(b *testing.B) {
	data := make([]byte, 4096)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		_ = Hash(data)
	}
}
