package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

func User(rec record.Record) model.User {
	s := UserSchema
	s.check(rec)
	u := model.User{
		ID:             rec.ID(),
		Username:       s.str(rec, UserUsername),
		DisplayName:    s.str(rec, UserDisplayName),
		AvatarURL:      s.str(rec, UserAvatar),
		Bio:            s.str(rec, UserBio),
		FollowersCount: s.integer(rec, UserFollowersCount),
		FollowingCount: s.integer(rec, UserFollowingCount),
		IsOnline:       s.boolean(rec, UserIsOnline),
		IsFollowing:    s.boolean(rec, UserIsFollowing),
	}
	if u.AvatarURL == "" {
		u.AvatarURL = AvatarURL(u.Username)
	}
	return u
}

func Users(recs []record.Record) []model.User {
	out := make([]model.User, 0, len(recs))
	for _, r := range recs {
		out = append(out, User(r))
	}
	return out
}

// UserRecord — payload частичного обновления/создания: только заданные поля.
func UserRecord(in model.UserInput) record.Record {
	rec := record.Record{}
	if in.Username != nil {
		rec[FieldName] = *in.Username
		rec[UserUsername] = *in.Username
	}
	if in.DisplayName != nil {
		rec[UserDisplayName] = *in.DisplayName
	}
	if in.AvatarURL != nil {
		rec[UserAvatar] = *in.AvatarURL
	}
	if in.Bio != nil {
		rec[UserBio] = *in.Bio
	}
	if in.IsOnline != nil {
		rec[UserIsOnline] = *in.IsOnline
	}
	return rec
}
