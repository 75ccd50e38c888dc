package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

// Post маппит запись поста; комментарии в хранилище не лежат и всегда пусты.
func Post(rec record.Record) model.Post {
	s := PostSchema
	s.check(rec)
	return model.Post{
		ID:             rec.ID(),
		AuthorUsername: s.str(rec, PostUsername),
		DisplayName:    s.str(rec, PostDisplayName),
		Content:        s.str(rec, PostContent),
		ImageURL:       s.str(rec, PostImageURL),
		Likes:          rec.List(PostLikes),
		Comments:       []model.Comment{},
		Timestamp:      s.timestamp(rec, PostTimestamp),
		Hashtags:       rec.List(PostHashtags),
	}
}

func Posts(recs []record.Record) []model.Post {
	out := make([]model.Post, 0, len(recs))
	for _, r := range recs {
		out = append(out, Post(r))
	}
	return out
}

// PostRecord — payload по заданным полям. Хэштеги пересчитываются из content при каждой его записи.
func PostRecord(in model.PostInput) record.Record {
	rec := record.Record{}
	if in.Content != nil {
		rec[PostContent] = *in.Content
		rec[PostHashtags] = record.JoinList(ExtractHashtags(*in.Content))
	}
	if in.ImageURL != nil {
		rec[PostImageURL] = *in.ImageURL
	}
	return rec
}
