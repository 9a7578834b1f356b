package server

import (
	"fundboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
// @Summary Like post
// @Description Replaces any dislike by the caller; liking twice is a no-op
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 202 {object} models.ReactionCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.react(c, models.ReactionLike, true)
}

// RemoveLike handles POST /api/posts/:id/removelike
// @Summary Remove like
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 202 {object} models.ReactionCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/removelike [post]
func (s *Server) RemoveLike(c *fiber.Ctx) error {
	return s.react(c, models.ReactionLike, false)
}

// DislikePost handles POST /api/posts/:id/dislike
// @Summary Dislike post
// @Description Replaces any like by the caller; disliking twice is a no-op
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 202 {object} models.ReactionCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/dislike [post]
func (s *Server) DislikePost(c *fiber.Ctx) error {
	return s.react(c, models.ReactionDislike, true)
}

// RemoveDislike handles POST /api/posts/:id/removedislike
// @Summary Remove dislike
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 202 {object} models.ReactionCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/removedislike [post]
func (s *Server) RemoveDislike(c *fiber.Ctx) error {
	return s.react(c, models.ReactionDislike, false)
}

func (s *Server) react(c *fiber.Ctx, kind models.ReactionKind, add bool) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := s.reactionService.React(c.UserContext(), userID(c), postID, kind, add)
	if err != nil {
		return s.respondErr(c, err)
	}
	if post, perr := s.postRepo.GetByID(c.UserContext(), postID); perr == nil {
		s.publishPostEvent(c.UserContext(), post, EventPostReactionUpdated, counts)
	}
	return c.Status(fiber.StatusAccepted).JSON(counts)
}

// LikeCount handles GET /api/posts/:id/likecount
// @Summary Reaction counts
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/likecount [get]
func (s *Server) LikeCount(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)
	counts, err := s.reactionService.Counts(c.UserContext(), viewerID, postID)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(counts)
}

// UserPostLike handles GET /api/posts/:id/userpostlike
// @Summary Caller's reaction
// @Tags reactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.UserReaction
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/userpostlike [get]
func (s *Server) UserPostLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.reactionService.UserReaction(c.UserContext(), userID(c), postID)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(state)
}
