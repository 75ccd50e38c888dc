package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/record/cache"
	"github.com/miamiwave/internal/record/recordtest"
	memcache "github.com/miamiwave/internal/storage/memory"
)

func postContents(posts []model.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Content)
	}
	return out
}

func TestPostService_GetAllNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(record.CollectionPost,
		record.Record{mapper.PostContent: "T1", mapper.PostTimestamp: "2024-03-01T10:00:00Z"},
		record.Record{mapper.PostContent: "T2", mapper.PostTimestamp: "2024-03-01T09:00:00Z"},
		record.Record{mapper.PostContent: "T3", mapper.PostTimestamp: "2024-03-01T11:00:00Z"},
	)
	posts, err := f.svc.Posts.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"T3", "T1", "T2"}, postContents(posts))
}

func TestPostService_GetAllTiesKeepFetchOrder(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(record.CollectionPost,
		record.Record{mapper.PostContent: "first", mapper.PostTimestamp: "2024-03-01T10:00:00Z"},
		record.Record{mapper.PostContent: "second", mapper.PostTimestamp: "2024-03-01T10:00:00Z"},
	)
	posts, err := f.svc.Posts.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, postContents(posts))
}

func TestPostService_ToggleLikeIsInvolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionPost, record.Record{mapper.PostLikes: "u1,u2"})

	once, err := f.svc.Posts.ToggleLike(ctx, ids[0], "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, once.Likes)

	twice, err := f.svc.Posts.ToggleLike(ctx, ids[0], "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, twice.Likes)

	_, err = f.svc.Posts.ToggleLike(ctx, ids[0], "u1")
	require.NoError(t, err)
	back, err := f.svc.Posts.ToggleLike(ctx, ids[0], "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, back.Likes)
}

func TestPostService_ToggleLikeReadsPastCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionPost, record.Record{mapper.PostContent: "hi", mapper.PostLikes: ""})
	// два экземпляра со своими кэшами над одним хранилищем
	a := New(cache.New(f.store, memcache.New(), time.Minute))
	b := New(cache.New(f.store, memcache.New(), time.Minute))

	_, err := a.Posts.GetByID(ctx, ids[0])
	require.NoError(t, err)
	_, err = b.Posts.ToggleLike(ctx, ids[0], "u1")
	require.NoError(t, err)

	got, err := a.Posts.ToggleLike(ctx, ids[0], "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.Likes)
}

func TestPostService_ToggleLikeRemovesDuplicates(t *testing.T) {
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionPost, record.Record{mapper.PostLikes: "u1,u1,u2"})
	got, err := f.svc.Posts.ToggleLike(context.Background(), ids[0], "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.Likes)
}

func TestPostService_ToggleLikeNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Posts.ToggleLike(context.Background(), 42, "u1")
	assert.ErrorIs(t, err, record.ErrNotFound)
	assert.Equal(t, 0, f.spy.Writes(record.CollectionPost))
}

func TestPostService_CreateExtractsHashtags(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Posts.Create(context.Background(), viewer, model.PostInput{Content: strPtr("Sunset #miami #beach")})
	require.NoError(t, err)
	assert.Equal(t, []string{"#miami", "#beach"}, got.Hashtags)
	assert.Equal(t, "ana", got.AuthorUsername)
	assert.Equal(t, "Ana", got.DisplayName)
	assert.True(t, testNow.Equal(got.Timestamp))
	assert.Empty(t, got.Likes)
	assert.NotNil(t, got.Likes)
}

func TestPostService_CreateRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Posts.Create(context.Background(), viewer, model.PostInput{Content: strPtr("   ")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.spy.Writes(record.CollectionPost))
}

func TestPostService_UpdateRecomputesHashtagsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionPost, record.Record{
		mapper.PostContent:  "old #a",
		mapper.PostHashtags: "#a",
		mapper.PostImageURL: "img.png",
		mapper.PostLikes:    "u1",
	})
	got, err := f.svc.Posts.Update(ctx, ids[0], model.PostInput{Content: strPtr("new #b #c")})
	require.NoError(t, err)
	assert.Equal(t, []string{"#b", "#c"}, got.Hashtags)
	assert.Equal(t, "img.png", got.ImageURL)
	assert.Equal(t, []string{"u1"}, got.Likes)
}

func TestPostService_CommentsAreProcessLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.store.Seed(record.CollectionPost, record.Record{mapper.PostContent: "hello"})

	got, err := f.svc.Posts.AddComment(ctx, ids[0], viewer, "nice")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice", got.Comments[0].Content)
	assert.Equal(t, int64(1), got.Comments[0].ID)
	assert.Equal(t, 0, f.spy.Writes(record.CollectionPost))

	// Новый процесс (новый CommentStore) комментариев не видит.
	fresh := New(f.spy)
	post, err := fresh.Posts.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, post.Comments)

	require.NoError(t, f.svc.Posts.Delete(ctx, ids[0]))
	assert.Empty(t, f.svc.Comments.For(ids[0]))
}

func TestPostService_SearchMatchesAnyField(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(record.CollectionPost,
		record.Record{mapper.PostContent: "I love Miami", mapper.PostTimestamp: "2024-03-01T09:00:00Z"},
		record.Record{mapper.PostContent: "Beach day"},
		record.Record{mapper.PostContent: "x", mapper.PostHashtags: "#MiamiNights", mapper.PostTimestamp: "2024-03-01T10:00:00Z"},
	)
	got, err := f.svc.Posts.Search(context.Background(), "miami")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "I love Miami"}, postContents(got))
}

func TestPostService_SearchBlankQuerySkipsGateway(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Posts.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, f.spy.Calls(recordtest.OpList, recordtest.Any))
}
