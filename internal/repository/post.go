package repository

import (
	"context"
	"strings"
	"time"

	"fundboard/internal/cache"
	"fundboard/internal/models"
	"fundboard/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByOwner(ctx context.Context, ownerID uint, active bool, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Toggle(ctx context.Context, id uint) (bool, error)
	Verify(ctx context.Context, id uint, at time.Time) error
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// writableColumns are the post columns an owner may change through update.
var writableColumns = []string{"title", "due_date", "description", "required_amount", "collected_amount"}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()
	if err := r.db.WithContext(ctx).Omit("Owner").Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	post.ComputeProgress()
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "owner_id": post.OwnerID})
	return nil
}

// GetByID loads a post regardless of its active flag. Visibility is decided by the caller.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		defer observability.TrackQuery("select", "posts")()
		if err := r.applyPostDetails(r.db.WithContext(ctx)).
			Preload("Owner").
			First(&post, id).Error; err != nil {
			return notFoundOr(err, "Post", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.active = ?", true)
	}, limit, offset)
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint, active bool, limit, offset int) ([]*models.Post, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.owner_id = ? AND posts.active = ?", ownerID, active)
	}, limit, offset)
}

// Search matches title or description case-insensitively among active posts.
func (r *postRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	like := "%" + strings.ToLower(query) + "%"
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.active = ?", true).
			Where("LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ?", like, like)
	}, limit, offset)
}

func (r *postRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()
	posts := []*models.Post{}
	err := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("Owner").
		Scopes(scope).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds subqueries to fetch counts in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select("posts.*, "+
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, "+
		"(SELECT COUNT(*) FROM dislikes WHERE dislikes.post_id = posts.id) AS dislikes_count, "+
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.disabled = ?) AS comments_count",
		false)
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select(writableColumns).
		Updates(map[string]any{
			"title":            post.Title,
			"due_date":         post.DueDate,
			"description":      post.Description,
			"required_amount":  post.RequiredAmount,
			"collected_amount": post.CollectedAmount,
		})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	cache.InvalidatePost(ctx, post.ID)
	r.log.LogUpdate(ctx, map[string]any{"id": post.ID})
	return nil
}

// Delete removes the post together with its reactions and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.Like{}, &models.Dislike{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	if affected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

// Toggle flips the active flag in one statement and returns the new value.
func (r *postRepository) Toggle(ctx context.Context, id uint) (bool, error) {
	defer observability.TrackQuery("update", "posts")()
	var active bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("active", gorm.Expr("NOT active"))
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		var current models.Post
		if err := tx.Select("id", "active").First(&current, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		active = current.Active
		return nil
	})
	if err != nil {
		return false, err
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogUpdate(ctx, map[string]any{"id": id, "active": active})
	return active, nil
}

func (r *postRepository) Verify(ctx context.Context, id uint, at time.Time) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"verified": true, "verified_at": at})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogUpdate(ctx, map[string]any{"id": id, "verified": true})
	return nil
}
