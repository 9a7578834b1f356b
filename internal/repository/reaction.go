package repository

import (
	"context"

	"fundboard/internal/cache"
	"fundboard/internal/models"
	"fundboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository manages likes and dislikes. A user holds at most one of
// the two on any post.
type ReactionRepository interface {
	Like(ctx context.Context, postID, userID uint) error
	Dislike(ctx context.Context, postID, userID uint) error
	RemoveLike(ctx context.Context, postID, userID uint) error
	RemoveDislike(ctx context.Context, postID, userID uint) error
	Counts(ctx context.Context, postID uint) (*models.ReactionCounts, error)
	UserReaction(ctx context.Context, postID, userID uint) (*models.UserReaction, error)
}

type reactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, log: observability.NewRepoLogger("reactions")}
}

func (r *reactionRepository) Like(ctx context.Context, postID, userID uint) error {
	return r.react(ctx, &models.Like{PostID: postID, UserID: userID}, &models.Dislike{}, postID, userID)
}

func (r *reactionRepository) Dislike(ctx context.Context, postID, userID uint) error {
	return r.react(ctx, &models.Dislike{PostID: postID, UserID: userID}, &models.Like{}, postID, userID)
}

// react removes the opposite reaction and inserts row in one transaction. The
// insert is a no-op when the user already holds this reaction.
func (r *reactionRepository) react(ctx context.Context, row, opposite any, postID, userID uint) error {
	defer observability.TrackQuery("insert", "reactions")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(opposite).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(row).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "react")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	r.log.LogCreate(ctx, map[string]any{"post_id": postID, "user_id": userID})
	return nil
}

func (r *reactionRepository) RemoveLike(ctx context.Context, postID, userID uint) error {
	return r.remove(ctx, &models.Like{}, postID, userID)
}

func (r *reactionRepository) RemoveDislike(ctx context.Context, postID, userID uint) error {
	return r.remove(ctx, &models.Dislike{}, postID, userID)
}

// remove deletes the user's reaction. Removing a reaction that does not exist is not an error.
func (r *reactionRepository) remove(ctx context.Context, model any, postID, userID uint) error {
	defer observability.TrackQuery("delete", "reactions")()
	if err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(model).Error; err != nil {
		r.log.LogError(ctx, err, "remove")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	r.log.LogDelete(ctx, map[string]any{"post_id": postID, "user_id": userID})
	return nil
}

func (r *reactionRepository) Counts(ctx context.Context, postID uint) (*models.ReactionCounts, error) {
	counts := models.ReactionCounts{PostID: postID}
	err := cache.Aside(ctx, cache.ReactionsKey(postID), &counts, cache.ReactionsTTL, func() error {
		defer observability.TrackQuery("select", "reactions")()
		db := r.db.WithContext(ctx)
		if err := db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&counts.Likes).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Dislike{}).Where("post_id = ?", postID).Count(&counts.Dislikes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *reactionRepository) UserReaction(ctx context.Context, postID, userID uint) (*models.UserReaction, error) {
	defer observability.TrackQuery("select", "reactions")()
	db := r.db.WithContext(ctx)
	var likes, dislikes int64
	if err := db.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&likes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Dislike{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&dislikes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.UserReaction{PostID: postID, Liked: likes > 0, Disliked: dislikes > 0}, nil
}
