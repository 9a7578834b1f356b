package service

import (
	"context"

	"fundboard/internal/models"
	"fundboard/internal/observability"
	"fundboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ReactionService applies likes and dislikes to posts the user can see.
type ReactionService struct {
	postRepo     repository.PostRepository
	reactionRepo repository.ReactionRepository
}

func NewReactionService(postRepo repository.PostRepository, reactionRepo repository.ReactionRepository) *ReactionService {
	return &ReactionService{postRepo: postRepo, reactionRepo: reactionRepo}
}

// React adds (add=true) or removes a reaction of the given kind and returns the new counts.
func (s *ReactionService) React(ctx context.Context, userID, postID uint, kind models.ReactionKind, add bool) (_ *models.ReactionCounts, err error) {
	ctx, finish := observability.StartSpan(ctx, "ReactionService.React",
		attribute.Int("post.id", int(postID)),
		attribute.String("reaction.kind", string(kind)),
		attribute.Bool("reaction.add", add),
	)
	defer func() { finish(err) }()

	if _, err := visiblePost(ctx, s.postRepo, postID, userID); err != nil {
		return nil, err
	}

	switch {
	case kind == models.ReactionLike && add:
		err = s.reactionRepo.Like(ctx, postID, userID)
	case kind == models.ReactionLike:
		err = s.reactionRepo.RemoveLike(ctx, postID, userID)
	case kind == models.ReactionDislike && add:
		err = s.reactionRepo.Dislike(ctx, postID, userID)
	case kind == models.ReactionDislike:
		err = s.reactionRepo.RemoveDislike(ctx, postID, userID)
	default:
		return nil, models.NewValidationError("Unknown reaction")
	}
	if err != nil {
		return nil, err
	}

	action := "remove"
	if add {
		action = "add"
	}
	observability.ReactionsTotal.WithLabelValues(string(kind), action).Inc()
	return s.reactionRepo.Counts(ctx, postID)
}

func (s *ReactionService) Like(ctx context.Context, userID, postID uint) (*models.ReactionCounts, error) {
	return s.React(ctx, userID, postID, models.ReactionLike, true)
}

func (s *ReactionService) RemoveLike(ctx context.Context, userID, postID uint) (*models.ReactionCounts, error) {
	return s.React(ctx, userID, postID, models.ReactionLike, false)
}

func (s *ReactionService) Dislike(ctx context.Context, userID, postID uint) (*models.ReactionCounts, error) {
	return s.React(ctx, userID, postID, models.ReactionDislike, true)
}

func (s *ReactionService) RemoveDislike(ctx context.Context, userID, postID uint) (*models.ReactionCounts, error) {
	return s.React(ctx, userID, postID, models.ReactionDislike, false)
}

// Counts returns like and dislike totals. viewerID is 0 for anonymous requests.
func (s *ReactionService) Counts(ctx context.Context, viewerID, postID uint) (*models.ReactionCounts, error) {
	if _, err := visiblePost(ctx, s.postRepo, postID, viewerID); err != nil {
		return nil, err
	}
	return s.reactionRepo.Counts(ctx, postID)
}

// UserReaction reports whether the user currently likes or dislikes the post.
func (s *ReactionService) UserReaction(ctx context.Context, userID, postID uint) (*models.UserReaction, error) {
	if _, err := visiblePost(ctx, s.postRepo, postID, userID); err != nil {
		return nil, err
	}
	return s.reactionRepo.UserReaction(ctx, postID, userID)
}
