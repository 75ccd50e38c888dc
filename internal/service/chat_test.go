package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

func TestChatService_GetAllByActivity(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(record.CollectionUser,
		record.Record{record.FieldID: 1, mapper.UserUsername: "ana"},
		record.Record{record.FieldID: 2, mapper.UserUsername: "bob"},
	)
	f.store.Seed(record.CollectionChat,
		record.Record{mapper.ChatName: "old", mapper.ChatParticipantIDs: "1,2", mapper.ChatCreatedAt: "2024-02-01T00:00:00Z"},
		record.Record{
			mapper.ChatName:                 "active",
			mapper.ChatParticipantIDs:       "2,1,77",
			mapper.ChatCreatedAt:            "2024-01-01T00:00:00Z",
			mapper.ChatLastMessageContent:   "yo",
			mapper.ChatLastMessageTimestamp: "2024-03-01T09:00:00Z",
		},
	)

	chats, err := f.svc.Chats.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "active", chats[0].Name)
	assert.Equal(t, "old", chats[1].Name)

	// Несуществующий участник 77 пропускается, порядок сохраняется.
	require.Len(t, chats[0].Participants, 2)
	assert.Equal(t, "bob", chats[0].Participants[0].Username)
	assert.Equal(t, "ana", chats[0].Participants[1].Username)
}

func TestChatService_CreateAddsViewer(t *testing.T) {
	f := newFixture(t)
	chat, err := f.svc.Chats.Create(context.Background(), viewer, model.ChatInput{ParticipantIDs: []string{"2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, chat.ParticipantIDs)
	assert.True(t, testNow.Equal(chat.CreatedAt))
	assert.Nil(t, chat.LastMessage)
}

func TestChatService_CreateNeedsTwoParticipants(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Chats.Create(context.Background(), viewer, model.ChatInput{ParticipantIDs: []string{"1"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.spy.Writes(record.CollectionChat))
}
