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

func channelNames(chs []model.Channel) []string {
	out := make([]string, 0, len(chs))
	for _, c := range chs {
		out = append(out, c.ChannelName)
	}
	return out
}

func TestChannelService_JoinLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionChannel, record.Record{mapper.ChannelName: "beach", mapper.ChannelJoinedBy: "2"})

	ch, err := f.svc.Channels.Join(ctx, ids[0], "1")
	require.NoError(t, err)
	assert.True(t, ch.IsJoined)
	assert.Equal(t, 2, ch.MemberCount)

	ch, err = f.svc.Channels.Join(ctx, ids[0], "1")
	require.NoError(t, err)
	assert.Equal(t, 2, ch.MemberCount)
	assert.Equal(t, 1, f.spy.Writes(record.CollectionChannel))

	ch, err = f.svc.Channels.Leave(ctx, ids[0], "1")
	require.NoError(t, err)
	assert.False(t, ch.IsJoined)
	assert.Equal(t, 1, ch.MemberCount)
}

func TestChannelService_Trending(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(record.CollectionChannel,
		record.Record{mapper.ChannelName: "A", mapper.ChannelIsActive: true, mapper.ChannelJoinedBy: "1,2", mapper.ChannelMessageCount: 1},
		record.Record{mapper.ChannelName: "B", mapper.ChannelIsActive: true, mapper.ChannelJoinedBy: "1,2,3"},
		record.Record{mapper.ChannelName: "C", mapper.ChannelIsActive: true, mapper.ChannelJoinedBy: "1,2", mapper.ChannelMessageCount: 9},
		record.Record{mapper.ChannelName: "off", mapper.ChannelIsActive: false, mapper.ChannelJoinedBy: "1,2,3,4"},
		record.Record{mapper.ChannelName: "D", mapper.ChannelIsActive: true},
	)
	got, err := f.svc.Channels.GetTrending(context.Background(), 3, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, channelNames(got))
	assert.True(t, got[0].IsJoined)
}

func TestChannelService_CreateJoinsCreator(t *testing.T) {
	f := newFixture(t)
	ch, err := f.svc.Channels.Create(context.Background(), viewer, model.ChannelInput{ChannelName: strPtr("sunset")})
	require.NoError(t, err)
	assert.True(t, ch.IsActive)
	assert.True(t, ch.IsJoined)
	assert.Equal(t, 1, ch.MemberCount)
	assert.Equal(t, 0, ch.MessageCount)
}
