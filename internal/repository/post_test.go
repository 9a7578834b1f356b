package repository

import (
	"context"
	"testing"
	"time"

	"fundboard/internal/models"
	"fundboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash", IsActive: true}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createPost(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		OwnerID:        owner.ID,
		Title:          title,
		Description:    "help " + title,
		DueDate:        time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
		RequiredAmount: 1000,
		Active:         true,
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func TestPostRepository_GetByID_Counts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	fan := createUser(t, db, "fan")
	critic := createUser(t, db, "critic")
	post := createPost(t, db, owner, "Roof repair")

	reactions := NewReactionRepository(db)
	require.NoError(t, reactions.Like(ctx, post.ID, fan.ID))
	require.NoError(t, reactions.Dislike(ctx, post.ID, critic.ID))

	comments := NewCommentRepository(db)
	visible := &models.Comment{PostID: post.ID, UserID: fan.ID, Body: "good luck"}
	hidden := &models.Comment{PostID: post.ID, UserID: critic.ID, Body: "spam"}
	require.NoError(t, comments.Create(ctx, visible))
	require.NoError(t, comments.Create(ctx, hidden))
	require.NoError(t, comments.Disable(ctx, post.ID, hidden.ID))

	got, err := NewPostRepository(db).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roof repair", got.Title)
	assert.EqualValues(t, 1, got.LikesCount)
	assert.EqualValues(t, 1, got.DislikesCount)
	assert.EqualValues(t, 1, got.CommentsCount)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "owner", got.Owner.Username)
	assert.Equal(t, "0.00", got.Progress)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := NewPostRepository(db).GetByID(context.Background(), 404)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPostRepository_ListShowsActiveOnly(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	owner := createUser(t, db, "owner")

	first := createPost(t, db, owner, "first")
	second := createPost(t, db, owner, "second")
	hidden := createPost(t, db, owner, "hidden")
	active, err := repo.Toggle(ctx, hidden.ID)
	require.NoError(t, err)
	require.False(t, active)

	posts, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	ids := []uint{posts[0].ID, posts[1].ID}
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, ids)

	inactive, err := repo.ListByOwner(ctx, owner.ID, false, 20, 0)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, hidden.ID, inactive[0].ID)

	stillActive, err := repo.ListByOwner(ctx, owner.ID, true, 20, 0)
	require.NoError(t, err)
	assert.Len(t, stillActive, 2)

	paged, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestPostRepository_Search(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	owner := createUser(t, db, "owner")

	createPost(t, db, owner, "School Fees")
	createPost(t, db, owner, "Medical bills")
	off := createPost(t, db, owner, "school trip")
	_, err := repo.Toggle(ctx, off.ID)
	require.NoError(t, err)

	posts, err := repo.Search(ctx, "SCHOOL", 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "School Fees", posts[0].Title)
}

func TestPostRepository_ToggleRoundTrip(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	post := createPost(t, db, createUser(t, db, "owner"), "toggle me")

	active, err := repo.Toggle(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = repo.Toggle(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = repo.Toggle(ctx, 999)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPostRepository_UpdateKeepsFlags(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	post := createPost(t, db, createUser(t, db, "owner"), "before")

	require.NoError(t, repo.Verify(ctx, post.ID, time.Now()))

	post.Title = "after"
	post.CollectedAmount = 250
	post.Active = false
	post.Verified = false
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.EqualValues(t, 250, got.CollectedAmount)
	assert.True(t, got.Active)
	assert.True(t, got.Verified)
	assert.NotNil(t, got.VerifiedAt)
	assert.Equal(t, "25.00", got.Progress)
}

func TestPostRepository_DeleteRemovesChildren(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner, "gone")

	require.NoError(t, NewReactionRepository(db).Like(ctx, post.ID, owner.ID))
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{PostID: post.ID, UserID: owner.ID, Body: "x"}))

	require.NoError(t, repo.Delete(ctx, post.ID))

	var likes, comments int64
	db.Model(&models.Like{}).Count(&likes)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	assertAppErrorCode(t, repo.Delete(ctx, post.ID), models.CodeNotFound)
}
