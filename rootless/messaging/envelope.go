package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

const messageIDLen = 16

// Envelope is the wire form of an encrypted message. All byte fields are
// lowercase hex.
type Envelope struct {
	SenderPublicKey    string `json:"sender_public_key"`
	EphemeralPublicKey string `json:"ephemeral_public_key"`
	Ciphertext         string `json:"ciphertext"`
	Timestamp          uint64 `json:"timestamp"`
	MessageID          string `json:"message_id"`
}

// ParseEnvelope decodes the JSON form. Field contents are checked on Open.
func ParseEnvelope(data string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", crypto.ErrDecryptionFailed, err)
	}
	return &env, nil
}

// Encode returns the compact JSON form.
func (e *Envelope) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MessageID is base58(BLAKE3(plaintext ":" timestamp)[:16]). It is a label
// only and carries no integrity guarantee.
func MessageID(plaintext string, timestamp uint64) string {
	return crypto.EncodeBase58(crypto.ShortHash([]byte(plaintext+":"+strconv.FormatUint(timestamp, 10)), messageIDLen))
}

// decodeEnvelopeKey fails with ErrDecryptionFailed when s is not hex and
// with ErrInvalidKey when it decodes to the wrong length.
func decodeEnvelopeKey(field, s string) ([32]byte, error) {
	var out [32]byte
	b, err := crypto.DecodeHex(s)
	if err != nil {
		return out, fmt.Errorf("%w: envelope %s is not hex", crypto.ErrDecryptionFailed, field)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("%w: envelope %s must be %d bytes, got %d", crypto.ErrInvalidKey, field, len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}
