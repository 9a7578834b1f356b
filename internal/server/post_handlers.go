package server

import (
	"fundboard/internal/featureflags"
	"fundboard/internal/models"
	"fundboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts
// @Summary List active posts
// @Description Active posts only, newest first
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search
// @Summary Search active posts
// @Description Case-insensitive match on title and description
// @Tags posts
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	if !s.featureFlags.Enabled(featureflags.PostSearch, viewerID) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			&models.AppError{Code: models.CodeNotFound, Message: "Post search is not available"})
	}
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(posts)
}

// ListActivePosts handles GET /api/posts/active
// @Summary Own active posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /posts/active [get]
func (s *Server) ListActivePosts(c *fiber.Ctx) error {
	return s.listOwnPosts(c, true)
}

// ListDisabledPosts handles GET /api/posts/disabled
// @Summary Own inactive posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /posts/disabled [get]
func (s *Server) ListDisabledPosts(c *fiber.Ctx) error {
	return s.listOwnPosts(c, false)
}

func (s *Server) listOwnPosts(c *fiber.Ctx, active bool) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListOwnPosts(c.UserContext(), userID(c), active, page.Limit, page.Offset)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description The caller becomes the owner; new posts are active and unverified
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PostInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.CreatePost(c.UserContext(), userID(c), req)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.publishPostEvent(c.UserContext(), post, EventPostCreated, post)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Description Inactive posts are visible to their owner only
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)
	post, err := s.postService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Replace post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.PostInput true "Post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	return s.writePost(c, false)
}

// PatchPost handles PATCH /api/posts/:id
// @Summary Update post fields
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.PostInput true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) PatchPost(c *fiber.Ctx) error {
	return s.writePost(c, true)
}

func (s *Server) writePost(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.PostInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.UpdatePost(c.UserContext(), userID(c), id, req, partial)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.publishPostEvent(c.UserContext(), post, EventPostUpdated, post)
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), userID(c), id); err != nil {
		return s.respondErr(c, err)
	}
	s.publishBroadcastEvent(c.UserContext(), EventPostDeleted, fiber.Map{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// TogglePost handles POST /api/posts/:id/toggle
// @Summary Toggle post active flag
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 202 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/{id}/toggle [post]
func (s *Server) TogglePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.TogglePost(c.UserContext(), userID(c), id)
	if err != nil {
		return s.respondErr(c, err)
	}
	// Only the id and new state leave the owner, so everyone can drop or re-add the post.
	s.publishBroadcastEvent(c.UserContext(), EventPostToggled, fiber.Map{"id": post.ID, "active": post.Active})
	return c.Status(fiber.StatusAccepted).JSON(post)
}
