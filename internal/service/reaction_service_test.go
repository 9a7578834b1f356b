package service

import (
	"context"
	"testing"
	"time"

	"fundboard/internal/models"
	"fundboard/internal/repository"
	"fundboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	posts    repository.PostRepository
	owner    *models.User
	reader   *models.User
	post     *models.Post
	inactive *models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)

	f := &fixture{
		db:     db,
		posts:  posts,
		owner:  &models.User{Username: "owner", Password: "x"},
		reader: &models.User{Username: "reader", Password: "x"},
	}
	require.NoError(t, users.Create(ctx, f.owner))
	require.NoError(t, users.Create(ctx, f.reader))

	newPost := func(title string) *models.Post {
		p := &models.Post{
			OwnerID:        f.owner.ID,
			Title:          title,
			Description:    "d",
			DueDate:        time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			RequiredAmount: 100,
			Active:         true,
		}
		require.NoError(t, posts.Create(ctx, p))
		return p
	}
	f.post = newPost("open")
	f.inactive = newPost("closed")
	_, err := posts.Toggle(ctx, f.inactive.ID)
	require.NoError(t, err)
	return f
}

func TestReactionService_LikeThenDislike(t *testing.T) {
	f := newFixture(t)
	svc := NewReactionService(f.posts, repository.NewReactionRepository(f.db))
	ctx := context.Background()

	counts, err := svc.Like(ctx, f.reader.ID, f.post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Likes)

	counts, err = svc.Like(ctx, f.reader.ID, f.post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Likes)

	counts, err = svc.Dislike(ctx, f.reader.ID, f.post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts.Likes)
	assert.EqualValues(t, 1, counts.Dislikes)

	state, err := svc.UserReaction(ctx, f.reader.ID, f.post.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.True(t, state.Disliked)

	counts, err = svc.RemoveDislike(ctx, f.reader.ID, f.post.ID)
	require.NoError(t, err)
	assert.Zero(t, counts.Dislikes)

	counts, err = svc.Counts(ctx, 0, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.ReactionCounts{PostID: f.post.ID}, counts)
}

func TestReactionService_InactivePost(t *testing.T) {
	f := newFixture(t)
	svc := NewReactionService(f.posts, repository.NewReactionRepository(f.db))
	ctx := context.Background()

	_, err := svc.Like(ctx, f.reader.ID, f.inactive.ID)
	assertForbiddenError(t, err)
	_, err = svc.Counts(ctx, 0, f.inactive.ID)
	assertForbiddenError(t, err)

	_, err = svc.Like(ctx, f.owner.ID, f.inactive.ID)
	assert.NoError(t, err)

	_, err = svc.Like(ctx, f.reader.ID, 9999)
	assertAppError(t, err, models.CodeNotFound)
}

func TestReactionService_ReactSpan(t *testing.T) {
	sr := recordSpans(t)
	f := newFixture(t)
	svc := NewReactionService(f.posts, repository.NewReactionRepository(f.db))

	_, err := svc.Dislike(context.Background(), f.reader.ID, f.post.ID)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ReactionService.React", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("reaction.kind", string(models.ReactionDislike)))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("reaction.add", true))
}

func TestCommentService_Flow(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(repository.NewCommentRepository(f.db), f.posts)
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: f.reader.ID, PostID: f.post.ID, Body: "  "})
	assertValidationError(t, err)

	c, err := svc.CreateComment(ctx, CreateCommentInput{UserID: f.reader.ID, PostID: f.post.ID, Body: "Good luck!"})
	require.NoError(t, err)
	assert.Equal(t, "reader", c.Username)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: f.reader.ID, PostID: f.inactive.ID, Body: "hidden"})
	assertForbiddenError(t, err)

	_, err = svc.DisableComment(ctx, DisableCommentInput{UserID: f.reader.ID, PostID: f.post.ID, CommentID: c.ID})
	assertForbiddenError(t, err)

	_, err = svc.DisableComment(ctx, DisableCommentInput{UserID: f.owner.ID, PostID: f.post.ID})
	assertValidationError(t, err)

	disabled, err := svc.DisableComment(ctx, DisableCommentInput{UserID: f.owner.ID, PostID: f.post.ID, CommentID: c.ID})
	require.NoError(t, err)
	assert.True(t, disabled.Disabled)

	list, err := svc.ListComments(ctx, 0, f.post.ID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListComments(ctx, f.reader.ID, f.inactive.ID, 50, 0)
	assertForbiddenError(t, err)
}
