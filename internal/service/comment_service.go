package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"fundboard/internal/models"
	"fundboard/internal/observability"
	"fundboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Body   string
}

type DisableCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// ListComments returns the enabled comments of a post the viewer can see.
func (s *CommentService) ListComments(ctx context.Context, viewerID, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := visiblePost(ctx, s.postRepo, postID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListEnabledByPost(ctx, postID, limit, offset)
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.Comment, err error) {
	ctx, finish := observability.StartSpan(ctx, "CommentService.CreateComment", attribute.Int("post.id", int(in.PostID)))
	defer func() { finish(err) }()

	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, models.NewValidationError("Comment body is required")
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if _, err := visiblePost(ctx, s.postRepo, in.PostID, in.UserID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: in.PostID, UserID: in.UserID, Body: body}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DisableComment hides a comment on the caller's own post. Disabled comments
// cannot be restored.
func (s *CommentService) DisableComment(ctx context.Context, in DisableCommentInput) (_ *models.Comment, err error) {
	ctx, finish := observability.StartSpan(ctx, "CommentService.DisableComment",
		attribute.Int("post.id", int(in.PostID)),
		attribute.Int("comment.id", int(in.CommentID)),
	)
	defer func() { finish(err) }()

	if in.CommentID == 0 {
		return nil, models.NewValidationError("comment_id is required")
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(in.UserID) {
		return nil, models.NewForbiddenError("Only the post owner can disable comments")
	}
	if err := s.commentRepo.Disable(ctx, in.PostID, in.CommentID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, in.CommentID)
}
