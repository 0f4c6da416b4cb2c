package crypto

import "lukechampine.com/blake3"

// HashSize is the digest length used for addressing.
const HashSize = 32

// Hash returns the BLAKE3-256 digest of data.
func Hash(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}

// ShortHash returns the first n bytes of Hash(data). Identifiers use n = 16.
func ShortHash(data []byte, n int) []byte {
	sum := Hash(data)
	if n > HashSize {
		n = HashSize
	}
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	copy(out, sum[:n])
	return out
}
