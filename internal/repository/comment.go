package repository

import (
	"context"

	"fundboard/internal/cache"
	"fundboard/internal/models"
	"fundboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListEnabledByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Disable(ctx context.Context, postID, commentID uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) withUsername(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("comments.*, users.username AS username").
		Joins("JOIN users ON users.id = comments.user_id")
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comment models.Comment
	if err := r.withUsername(r.db.WithContext(ctx)).Where("comments.id = ?", id).First(&comment).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// ListEnabledByPost returns the post's comments that were never disabled, oldest first.
func (r *commentRepository) ListEnabledByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	comments := []*models.Comment{}
	err := r.withUsername(r.db.WithContext(ctx)).
		Where("comments.post_id = ? AND comments.disabled = ?", postID, false).
		Order("comments.created_at ASC, comments.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Disable hides a comment of the given post. There is no inverse operation.
func (r *commentRepository) Disable(ctx context.Context, postID, commentID uint) error {
	defer observability.TrackQuery("update", "comments")()
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", commentID, postID).
		UpdateColumn("disabled", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	cache.InvalidatePost(ctx, postID)
	r.log.LogUpdate(ctx, map[string]any{"id": commentID, "disabled": true})
	return nil
}
