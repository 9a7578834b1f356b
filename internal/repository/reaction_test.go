package repository

import (
	"context"
	"testing"

	"fundboard/internal/models"
	"fundboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionRepository_LikeAndDislikeAreExclusive(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewReactionRepository(db)
	owner := createUser(t, db, "owner")
	user := createUser(t, db, "user")
	post := createPost(t, db, owner, "exclusive")

	require.NoError(t, repo.Like(ctx, post.ID, user.ID))
	state, err := repo.UserReaction(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.UserReaction{PostID: post.ID, Liked: true}, state)

	require.NoError(t, repo.Dislike(ctx, post.ID, user.ID))
	state, err = repo.UserReaction(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.UserReaction{PostID: post.ID, Disliked: true}, state)

	counts, err := repo.Counts(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.ReactionCounts{PostID: post.ID, Likes: 0, Dislikes: 1}, counts)
}

func TestReactionRepository_LikeIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewReactionRepository(db)
	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner, "twice")

	require.NoError(t, repo.Like(ctx, post.ID, owner.ID))
	require.NoError(t, repo.Like(ctx, post.ID, owner.ID))

	var n int64
	db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestReactionRepository_Remove(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewReactionRepository(db)
	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner, "remove")

	// Removing what was never added is a no-op.
	require.NoError(t, repo.RemoveLike(ctx, post.ID, owner.ID))
	require.NoError(t, repo.RemoveDislike(ctx, post.ID, owner.ID))

	require.NoError(t, repo.Like(ctx, post.ID, owner.ID))
	require.NoError(t, repo.RemoveDislike(ctx, post.ID, owner.ID))
	state, err := repo.UserReaction(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)

	require.NoError(t, repo.RemoveLike(ctx, post.ID, owner.ID))
	state, err = repo.UserReaction(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.False(t, state.Disliked)
}
