package service

import (
	"errors"
	"sync"

	"github.com/RootlessNet/protocol/rootless/identity"
)

// ErrUnknownIdentity means the DID has no private key in this keyring.
var ErrUnknownIdentity = errors.New("service: identity not in keyring")

// Keyring holds the identities whose private keys this daemon may use.
type Keyring struct {
	mu  sync.RWMutex
	ids map[string]*identity.Identity
}

func NewKeyring() *Keyring {
	return &Keyring{ids: map[string]*identity.Identity{}}
}

// Add stores id, replacing any identity with the same DID.
func (k *Keyring) Add(id *identity.Identity) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ids[id.Identifier()] = id
}

func (k *Keyring) Get(identifier string) (*identity.Identity, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	id, ok := k.ids[identifier]
	if !ok {
		return nil, ErrUnknownIdentity
	}
	return id, nil
}

func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.ids)
}
