package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyUnreadCounts, map[string]int{"room-1": 3}))

	counts := map[string]int{}
	found, err := s.Get(ctx, KeyUnreadCounts, &counts)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]int{"room-1": 3}, counts)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()

	var ids []string
	found, err := s.Get(context.Background(), KeyJoinedRoomIDs, &ids)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, ids)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyHasJoinedRoom, map[string]bool{"room-1": true}))
	require.NoError(t, s.Delete(ctx, KeyHasJoinedRoom))

	flags := map[string]bool{}
	found, err := s.Get(ctx, KeyHasJoinedRoom, &flags)
	require.NoError(t, err)
	require.False(t, found)
}
