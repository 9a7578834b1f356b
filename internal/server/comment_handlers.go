package server

import (
	"fundboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:id/comment
// @Summary List comments
// @Description Enabled comments of a visible post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/comment [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)
	page := parsePagination(c, 50)
	comments, err := s.commentService.ListComments(c.UserContext(), viewerID, postID, page.Limit, page.Offset)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comment
// @Summary Comment on post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{body=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: userID(c),
		PostID: postID,
		Body:   req.Body,
	})
	if err != nil {
		return s.respondErr(c, err)
	}
	if post, perr := s.postRepo.GetByID(c.UserContext(), postID); perr == nil {
		s.publishPostEvent(c.UserContext(), post, EventCommentCreated, comment)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DisableComment handles POST /api/posts/:id/disablecomment
// @Summary Disable comment
// @Description Post owner only. Disabled comments cannot be re-enabled.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{comment_id=int} true "Comment to disable"
// @Success 202 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/disablecomment [post]
func (s *Server) DisableComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		CommentID uint `json:"comment_id"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.DisableComment(c.UserContext(), service.DisableCommentInput{
		UserID:    userID(c),
		PostID:    postID,
		CommentID: req.CommentID,
	})
	if err != nil {
		return s.respondErr(c, err)
	}
	if post, perr := s.postRepo.GetByID(c.UserContext(), postID); perr == nil {
		s.publishPostEvent(c.UserContext(), post, EventCommentDisabled,
			fiber.Map{"id": comment.ID, "post": comment.PostID})
	}
	return c.Status(fiber.StatusAccepted).JSON(comment)
}
