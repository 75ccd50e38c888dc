package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

func Message(rec record.Record) model.Message {
	s := MessageSchema
	s.check(rec)
	return model.Message{
		ID:             rec.ID(),
		ChatID:         int64(s.integer(rec, MessageChatID)),
		SenderID:       s.str(rec, MessageSenderID),
		SenderUsername: s.str(rec, MessageSenderUsername),
		Content:        s.str(rec, MessageContent),
		Timestamp:      s.timestamp(rec, MessageTimestamp),
		ReadBy:         rec.List(MessageReadBy),
		Type:           model.MessageType(s.str(rec, MessageType)),
	}
}

func Messages(recs []record.Record) []model.Message {
	out := make([]model.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, Message(r))
	}
	return out
}

// MessageRecord — payload нового сообщения: отправитель сразу числится прочитавшим.
func MessageRecord(chatID int64, sender model.Viewer, in model.MessageInput, ts string) record.Record {
	typ := in.Type
	if typ == "" {
		typ = model.MessageTypeText
	}
	return record.Record{
		MessageChatID:         chatID,
		MessageSenderID:       sender.ID,
		MessageSenderUsername: sender.Username,
		MessageContent:        in.Content,
		MessageTimestamp:      ts,
		MessageReadBy:         record.JoinList([]string{sender.ID}),
		MessageType:           string(typ),
	}
}
