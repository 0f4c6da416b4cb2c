package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

// DefaultNamespace is the DID method used by RootlessNet.
const DefaultNamespace = "rootless"

// didHashLen is how many hash bytes make it into the identifier.
const didHashLen = 16

var (
	ErrInvalidDID         = errors.New("identity: invalid DID")
	ErrIdentifierMismatch = errors.New("identity: identifier does not match public key")
)

// DeriveDID computes did:<namespace>:key:<base58(BLAKE3(publicKey)[:16])>.
// It is a pure function of the public key.
func DeriveDID(namespace string, publicKey []byte) string {
	return "did:" + namespace + ":key:" + crypto.EncodeBase58(crypto.ShortHash(publicKey, didHashLen))
}

// ParseDID splits a DID into its namespace and key fragment.
func ParseDID(did string) (namespace, fragment string, err error) {
	parts := strings.Split(did, ":")
	if len(parts) != 4 || parts[0] != "did" || parts[2] != "key" || parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	if _, err := crypto.DecodeBase58(parts[3]); err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidDID, did, err)
	}
	return parts[1], parts[3], nil
}

// MatchesPublicKey reports whether did is the identifier of publicKey under
// did's own namespace.
func MatchesPublicKey(did string, publicKey []byte) error {
	ns, _, err := ParseDID(did)
	if err != nil {
		return err
	}
	if DeriveDID(ns, publicKey) != did {
		return ErrIdentifierMismatch
	}
	return nil
}
