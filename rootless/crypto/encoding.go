package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// EncodeHex returns the lowercase hex form used for every byte field on the wire.
func EncodeHex(b []byte) string { return hex.EncodeToString(b) }

// DecodeHex accepts upper or lower case hex.
func DecodeHex(s string) ([]byte, error) { return hex.DecodeString(s) }

// DecodeKey decodes hex key material and checks its length.
func DecodeKey(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, size, len(b))
	}
	return b, nil
}

// EncodeBase58 uses the Bitcoin alphabet.
func EncodeBase58(b []byte) string { return base58.Encode(b) }

// DecodeBase58 is the inverse of EncodeBase58.
func DecodeBase58(s string) ([]byte, error) { return base58.Decode(s) }
