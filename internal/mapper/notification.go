package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

const unknownUsername = "unknown"

func Notification(rec record.Record) model.Notification {
	s := NotificationSchema
	s.check(rec)
	recipientID, username := rec.Ref(NotificationRecipient, UserUsername)
	n := model.Notification{
		ID:          rec.ID(),
		Type:        model.ParseNotificationType(s.str(rec, NotificationType)),
		Content:     s.str(rec, NotificationContent),
		IsRead:      s.boolean(rec, NotificationIsRead),
		Timestamp:   s.timestamp(rec, record.FieldCreatedOn),
		RecipientID: recipientID,
		Username:    username,
		AvatarURL:   AvatarURL(username),
	}
	if n.Username == "" {
		n.Username = unknownUsername
	}
	return n
}

func Notifications(recs []record.Record) []model.Notification {
	out := make([]model.Notification, 0, len(recs))
	for _, r := range recs {
		out = append(out, Notification(r))
	}
	return out
}

func NotificationRecord(in model.NotificationInput) record.Record {
	rec := record.Record{
		FieldName:           string(in.Type),
		NotificationType:    string(model.ParseNotificationType(string(in.Type))),
		NotificationContent: in.Content,
		NotificationIsRead:  false,
	}
	if in.RecipientID > 0 {
		rec[NotificationRecipient] = in.RecipientID
	}
	return rec
}
