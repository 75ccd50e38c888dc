package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/record"
)

func TestListFiltersSortsAndPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(record.CollectionMessage,
		record.Record{"chat_id": 1, "content": "b", "timestamp": "2024-01-01T10:02:00Z"},
		record.Record{"chat_id": 2, "content": "x", "timestamp": "2024-01-01T10:00:00Z"},
		record.Record{"chat_id": 1, "content": "a", "timestamp": "2024-01-01T10:01:00Z"},
		record.Record{"chat_id": 1, "content": "c", "timestamp": "2024-01-01T10:03:00Z"},
	)

	got, err := s.List(ctx, record.CollectionMessage, record.Query{
		Where:   []record.Condition{record.Eq("chat_id", int64(1))},
		OrderBy: []record.Order{{Field: "timestamp", Dir: record.Asc}},
		Paging:  &record.Paging{Limit: 2, Offset: 1},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].String("content"))
	assert.Equal(t, "c", got[1].String("content"))
}

func TestListEmptyCollectionIsNotNil(t *testing.T) {
	got, err := New().List(context.Background(), record.CollectionPost, record.Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListContainsIsCaseInsensitiveAcrossOrGroup(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(record.CollectionPost,
		record.Record{"content": "Sunset in MIAMI", "username": "ana"},
		record.Record{"content": "coffee", "username": "miami_bob"},
		record.Record{"content": "tea", "username": "zed"},
	)
	got, err := s.List(ctx, record.CollectionPost, record.Query{
		WhereGroups: []record.Group{record.AnyOf(record.Like("content", "miami"), record.Like("username", "miami"))},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListMissingBoolEqualsFalse(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(record.CollectionNotification,
		record.Record{"content": "a", "is_read": true},
		record.Record{"content": "b"},
		record.Record{"content": "c", "is_read": false},
	)
	got, err := s.List(ctx, record.CollectionNotification, record.Query{Where: []record.Condition{record.Eq("is_read", false)}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDescendingSortIsStable(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(record.CollectionPost,
		record.Record{"Name": "T1", "timestamp": "2024-01-01T10:00:00Z"},
		record.Record{"Name": "T2", "timestamp": "2024-01-01T09:00:00Z"},
		record.Record{"Name": "T3", "timestamp": "2024-01-01T11:00:00Z"},
		record.Record{"Name": "T4", "timestamp": "2024-01-01T10:00:00Z"},
	)
	got, err := s.List(ctx, record.CollectionPost, record.Query{OrderBy: []record.Order{{Field: "timestamp", Dir: record.Desc}}})
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.String("Name"))
	}
	assert.Equal(t, []string{"T3", "T1", "T4", "T2"}, names)
}

func TestProjectionResolvesReferences(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Seed(record.CollectionUser, record.Record{"username": "ana", "bio": "x"})
	s.Seed(record.CollectionNotification, record.Record{"content": "hello", "recipient": users[0]})

	got, err := s.List(ctx, record.CollectionNotification, record.Query{Fields: []record.Field{
		{Name: "content"},
		{Name: "recipient", RefCollection: record.CollectionUser, RefField: "username"},
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	id, name := got[0].Ref("recipient", "username")
	assert.Equal(t, users[0], id)
	assert.Equal(t, "ana", name)
}

func TestWriteOutcomes(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	created, err := s.Write(ctx, record.CollectionChannel, record.Create, []record.Record{{"channel_name": "a"}, {"channel_name": "b"}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.True(t, created[0].Success)
	assert.Equal(t, int64(1), created[0].Record.ID())
	assert.Equal(t, int64(2), created[1].Record.ID())
	assert.Equal(t, record.FormatTime(now), created[0].Record.String(record.FieldCreatedOn))

	updated, err := s.Write(ctx, record.CollectionChannel, record.Update, []record.Record{
		{record.FieldID: int64(1), "description": "d"},
		{record.FieldID: int64(99), "description": "d"},
	})
	require.NoError(t, err)
	assert.True(t, updated[0].Success)
	assert.Equal(t, "a", updated[0].Record.String("channel_name"))
	assert.False(t, updated[1].Success)

	deleted, err := s.Write(ctx, record.CollectionChannel, record.Delete, []record.Record{{record.FieldID: int64(2)}})
	require.NoError(t, err)
	assert.True(t, deleted[0].Success)
	_, err = s.GetByID(ctx, record.CollectionChannel, 2, nil)
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestCanceledContextIsTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().List(ctx, record.CollectionPost, record.Query{})
	assert.ErrorIs(t, err, record.ErrTransport)
}
