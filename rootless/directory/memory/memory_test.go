package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RootlessNet/protocol/rootless/directory"
	"github.com/RootlessNet/protocol/rootless/identity"
)

func newPublic(t *testing.T, name string) identity.Public {
	t.Helper()
	id, err := identity.New(name)
	require.NoError(t, err)
	return id.Public()
}

func TestStorePublishResolve(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	rec := newPublic(t, "Alice")
	require.NoError(t, s.Publish(rec))

	got, err := s.Resolve(rec.Identifier)
	require.NoError(t, err)
	require.Equal(t, rec, got)

	_, err = s.Resolve("did:rootless:key:missing")
	require.True(t, errors.Is(err, directory.ErrNotFound))
}

func TestStoreRejectsMismatchedRecords(t *testing.T) {
	s, _ := New(8)
	rec := newPublic(t, "Alice")
	other := newPublic(t, "Bob")

	rec.PublicKey = other.PublicKey
	err := s.Publish(rec)
	require.ErrorIs(t, err, identity.ErrIdentifierMismatch)
	require.Equal(t, 0, s.Len())

	rec.PublicKey = "zz"
	require.Error(t, s.Publish(rec))
}

func TestStoreKeepsNewestRecord(t *testing.T) {
	s, _ := New(8)
	rec := newPublic(t, "Alice")
	rec.CreatedAt = 200
	require.NoError(t, s.Publish(rec))

	stale := rec
	stale.DisplayName = "Old Alice"
	stale.CreatedAt = 100
	require.NoError(t, s.Publish(stale))
	got, _ := s.Resolve(rec.Identifier)
	require.Equal(t, "Alice", got.DisplayName)

	fresh := rec
	fresh.DisplayName = "New Alice"
	fresh.CreatedAt = 300
	require.NoError(t, s.Publish(fresh))
	got, _ = s.Resolve(rec.Identifier)
	require.Equal(t, "New Alice", got.DisplayName)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s, _ := New(2)
	a := newPublic(t, "a")
	b := newPublic(t, "b")
	c := newPublic(t, "c")

	require.NoError(t, s.Publish(a))
	require.NoError(t, s.Publish(b))
	_, err := s.Resolve(a.Identifier)
	require.NoError(t, err)
	require.NoError(t, s.Publish(c))

	require.Equal(t, 2, s.Len())
	_, err = s.Resolve(b.Identifier)
	require.ErrorIs(t, err, directory.ErrNotFound)
	_, err = s.Resolve(a.Identifier)
	require.NoError(t, err)
}

func TestStoreListSorted(t *testing.T) {
	s, _ := New(16)
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Publish(newPublic(t, n)))
	}
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		require.Less(t, list[i-1].Identifier, list[i].Identifier)
	}
}
