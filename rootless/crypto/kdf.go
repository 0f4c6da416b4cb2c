package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// maxDeriveLength is the HKDF-SHA256 output limit (255 blocks).
const maxDeriveLength = 255 * sha256.Size

// DeriveKey derives a key of the specified length using HKDF-SHA256.
// salt can be nil (uses zero salt), info provides context binding: distinct
// info strings give independent outputs for the same secret.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 || length > maxDeriveLength {
		return nil, fmt.Errorf("%w: invalid output length %d", ErrKeyDerivationFailed, length)
	}
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivationFailed, err)
	}
	return key, nil
}
