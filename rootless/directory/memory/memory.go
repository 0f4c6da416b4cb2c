package memory

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/RootlessNet/protocol/rootless/directory"
	"github.com/RootlessNet/protocol/rootless/identity"
)

// DefaultCapacity bounds the store when no capacity is given.
const DefaultCapacity = 4096

// Store is a bounded in-memory directory. When full, the least recently
// resolved or published record is evicted.
type Store struct {
	records *lru.Cache[string, identity.Public]
}

var _ directory.Resolver = (*Store)(nil)

// New returns a Store holding at most capacity records.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, identity.Public](capacity)
	if err != nil {
		return nil, err
	}
	return &Store{records: c}, nil
}

// Publish stores rec after checking its identifier binding. A newer record
// for the same identifier replaces the old one; an older one is ignored.
func (s *Store) Publish(rec identity.Public) error {
	if err := rec.Verify(); err != nil {
		return fmt.Errorf("directory: publish: %w", err)
	}
	if old, ok := s.records.Peek(rec.Identifier); ok && old.CreatedAt > rec.CreatedAt {
		return nil
	}
	s.records.Add(rec.Identifier, rec)
	return nil
}

// Resolve returns directory.ErrNotFound for unknown identifiers.
func (s *Store) Resolve(identifier string) (identity.Public, error) {
	rec, ok := s.records.Get(identifier)
	if !ok {
		return identity.Public{}, directory.ErrNotFound
	}
	return rec, nil
}

// List returns all records ordered by identifier.
func (s *Store) List() ([]identity.Public, error) {
	out := s.records.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (s *Store) Len() int { return s.records.Len() }
