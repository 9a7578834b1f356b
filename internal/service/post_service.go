package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fundboard/internal/models"
	"fundboard/internal/observability"
	"fundboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 50000
)

type PostService struct {
	postRepo repository.PostRepository
	now      func() time.Time
}

// PostInput is the client-writable part of a post. Full updates require every
// field create requires; partial updates apply only the fields present.
type PostInput struct {
	Title           *string `json:"title"`
	DueDate         *string `json:"due_date"`
	Description     *string `json:"description"`
	RequiredAmount  *int64  `json:"required_amount"`
	CollectedAmount *int64  `json:"collected_amount"`
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo, now: time.Now}
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.postRepo.Search(ctx, query, limit, offset)
}

// ListOwnPosts returns the owner's posts whose active flag equals active.
func (s *PostService) ListOwnPosts(ctx context.Context, ownerID uint, active bool, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.ListByOwner(ctx, ownerID, active, limit, offset)
}

func (s *PostService) CreatePost(ctx context.Context, ownerID uint, in PostInput) (_ *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.CreatePost", attribute.Int("user.id", int(ownerID)))
	defer func() { finish(err) }()

	post := &models.Post{OwnerID: ownerID, Active: true}
	if err := applyPostInput(post, in, false); err != nil {
		return nil, err
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a post the viewer may see. viewerID is 0 for anonymous requests.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return visiblePost(ctx, s.postRepo, id, viewerID)
}

func (s *PostService) UpdatePost(ctx context.Context, ownerID, id uint, in PostInput, partial bool) (_ *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.UpdatePost", attribute.Int("post.id", int(id)))
	defer func() { finish(err) }()

	post, err := ownedPost(ctx, s.postRepo, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := applyPostInput(post, in, partial); err != nil {
		return nil, err
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) DeletePost(ctx context.Context, ownerID, id uint) (err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.DeletePost", attribute.Int("post.id", int(id)))
	defer func() { finish(err) }()

	if _, err := ownedPost(ctx, s.postRepo, id, ownerID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, id)
}

// TogglePost flips the post's active flag and returns the updated post.
func (s *PostService) TogglePost(ctx context.Context, ownerID, id uint) (_ *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.TogglePost", attribute.Int("post.id", int(id)))
	defer func() { finish(err) }()

	if _, err := ownedPost(ctx, s.postRepo, id, ownerID); err != nil {
		return nil, err
	}
	active, err := s.postRepo.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	observability.PostsToggled.WithLabelValues(strconv.FormatBool(active)).Inc()
	return s.postRepo.GetByID(ctx, id)
}

// VerifyPost marks a post as vetted. It is an administrative action without an owner check.
func (s *PostService) VerifyPost(ctx context.Context, id uint) (_ *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.VerifyPost", attribute.Int("post.id", int(id)))
	defer func() { finish(err) }()

	if err := s.postRepo.Verify(ctx, id, s.now()); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, id)
}

// visiblePost loads a post and hides inactive posts from everyone but their owner.
func visiblePost(ctx context.Context, repo repository.PostRepository, id, viewerID uint) (*models.Post, error) {
	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewerID) {
		return nil, models.NewForbiddenError("This post is not active")
	}
	return post, nil
}

func ownedPost(ctx context.Context, repo repository.PostRepository, id, userID uint) (*models.Post, error) {
	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(userID) {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

func applyPostInput(p *models.Post, in PostInput, partial bool) error {
	if !partial {
		switch {
		case in.Title == nil:
			return models.NewValidationError("Title is required")
		case in.Description == nil:
			return models.NewValidationError("Description is required")
		case in.DueDate == nil:
			return models.NewValidationError("Due date is required")
		case in.RequiredAmount == nil:
			return models.NewValidationError("Required amount is required")
		}
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.NewValidationError("Title is required")
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return models.NewValidationError("Title too long (max 200 characters)")
		}
		p.Title = title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return models.NewValidationError("Description is required")
		}
		if utf8.RuneCountInString(desc) > maxDescriptionLen {
			return models.NewValidationError("Description too long (max 50000 characters)")
		}
		p.Description = desc
	}
	if in.DueDate != nil {
		due, err := time.Parse(models.DateLayout, strings.TrimSpace(*in.DueDate))
		if err != nil {
			return models.NewValidationError("Due date must be a date in YYYY-MM-DD format")
		}
		p.DueDate = due
	}
	if in.RequiredAmount != nil {
		if *in.RequiredAmount <= 0 {
			return models.NewValidationError("Required amount must be greater than zero")
		}
		p.RequiredAmount = *in.RequiredAmount
	}
	switch {
	case in.CollectedAmount != nil:
		if *in.CollectedAmount < 0 {
			return models.NewValidationError("Collected amount cannot be negative")
		}
		p.CollectedAmount = *in.CollectedAmount
	case !partial:
		p.CollectedAmount = 0
	}
	p.ComputeProgress()
	return nil
}
