// Package directory maps DIDs to public identity records so that senders can
// find a recipient's key by identifier.
package directory

import (
	"errors"

	"github.com/RootlessNet/protocol/rootless/identity"
)

var (
	ErrNotFound = errors.New("directory: identity not found")
)

// Resolver is a generic identity directory.
// Implementations can be backed by a DHT, a ledger, a static file, etc.
// Publish must reject records whose identifier does not match their key.
type Resolver interface {
	Publish(rec identity.Public) error
	Resolve(identifier string) (identity.Public, error)
	List() ([]identity.Public, error)
}
