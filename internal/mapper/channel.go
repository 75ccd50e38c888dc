package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

// Channel маппит канал с метриками из хранилища: участники — joined_by, IsJoined — относительно viewerID.
func Channel(rec record.Record, viewerID string) model.Channel {
	s := ChannelSchema
	s.check(rec)
	joined := rec.List(ChannelJoinedBy)
	c := model.Channel{
		ID:           rec.ID(),
		ChannelName:  s.str(rec, ChannelName),
		Description:  s.str(rec, ChannelDescription),
		CreatedOn:    s.timestamp(rec, record.FieldCreatedOn),
		MemberCount:  len(joined),
		MessageCount: s.integer(rec, ChannelMessageCount),
		IsActive:     s.boolean(rec, ChannelIsActive),
		IsJoined:     viewerID != "" && record.HasToken(joined, viewerID),
		JoinedBy:     joined,
	}
	if c.ChannelName == "" {
		c.ChannelName = s.str(rec, FieldName)
	}
	return c
}

func Channels(recs []record.Record, viewerID string) []model.Channel {
	out := make([]model.Channel, 0, len(recs))
	for _, r := range recs {
		out = append(out, Channel(r, viewerID))
	}
	return out
}

func ChannelRecord(in model.ChannelInput) record.Record {
	rec := record.Record{}
	if in.ChannelName != nil {
		rec[FieldName] = *in.ChannelName
		rec[ChannelName] = *in.ChannelName
	}
	if in.Description != nil {
		rec[ChannelDescription] = *in.Description
	}
	if in.IsActive != nil {
		rec[ChannelIsActive] = *in.IsActive
	}
	return rec
}
