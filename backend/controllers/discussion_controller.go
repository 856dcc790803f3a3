package controllers

import (
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type DiscussionController struct {
	Board *services.Board
	Log   *utils.Logger
}

func NewDiscussionController(svc *services.Services, log *utils.Logger) *DiscussionController {
	return &DiscussionController{Board: svc.Board, Log: log}
}

// CreateDiscussion godoc
// @Summary Start a discussion
// @Description Course instructor or enrolled students only
// @Tags discussions
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param input body services.DiscussionInput true "Thread"
// @Success 201 {object} services.DiscussionView
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/courses/{courseId} [post]
func (dc *DiscussionController) CreateDiscussion(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var input services.DiscussionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	view, err := dc.Board.Create(c.UserContext(), middleware.CurrentUser(c), courseID, input)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Created(c, view)
}

// GetCourseDiscussions godoc
// @Summary List course discussions
// @Description Sticky threads first, then by the requested order
// @Tags discussions
// @Produce json
// @Param courseId path int true "Course ID"
// @Param sort query string false "newest, popular or hot" default(newest)
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /discussions/courses/{courseId} [get]
func (dc *DiscussionController) GetCourseDiscussions(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	res, err := dc.Board.List(c.UserContext(), courseID, c.Query("sort", services.SortNewest), utils.ParsePage(c))
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Paginate(c, res.Items, res.Total, res.Page, res.Limit)
}

// GetDiscussion godoc
// @Summary Get a discussion
// @Description Counts a view on every call
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} services.DiscussionView
// @Failure 404 {object} utils.ErrorResponse
// @Router /discussions/{id} [get]
func (dc *DiscussionController) GetDiscussion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	view, err := dc.Board.Get(c.UserContext(), id)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// AddComment godoc
// @Summary Comment on a discussion
// @Tags discussions
// @Accept json
// @Produce json
// @Param id path int true "Discussion ID"
// @Param input body services.CommentInput true "Comment"
// @Success 201 {object} services.DiscussionView
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id}/comments [post]
func (dc *DiscussionController) AddComment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	var input services.CommentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	view, err := dc.Board.AddComment(c.UserContext(), middleware.CurrentUser(c), id, input)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Created(c, view)
}

// ToggleLike godoc
// @Summary Like or unlike a discussion
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} services.LikeState
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id}/like [post]
func (dc *DiscussionController) ToggleLike(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	state, err := dc.Board.ToggleLike(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, state)
}

// ToggleCommentLike godoc
// @Summary Like or unlike a comment
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} services.LikeState
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id}/comments/{commentId}/like [post]
func (dc *DiscussionController) ToggleCommentLike(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return utils.BadRequest(c, "Invalid comment ID")
	}
	state, err := dc.Board.ToggleCommentLike(c.UserContext(), middleware.CurrentUser(c).ID, id, commentID)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, state)
}

// ToggleSticky godoc
// @Summary Pin or unpin a discussion
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} models.Discussion
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id}/sticky [post]
func (dc *DiscussionController) ToggleSticky(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	d, err := dc.Board.ToggleSticky(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, d)
}

// ToggleLock godoc
// @Summary Lock or unlock a discussion
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} models.Discussion
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id}/lock [post]
func (dc *DiscussionController) ToggleLock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	d, err := dc.Board.ToggleLock(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, d)
}

// DeleteDiscussion godoc
// @Summary Delete a discussion
// @Description Removes the thread with its comments and likes
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /discussions/{id} [delete]
func (dc *DiscussionController) DeleteDiscussion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid discussion ID")
	}
	if err := dc.Board.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return utils.HandleError(c, dc.Log, err)
	}
	return utils.Message(c, "Discussion deleted")
}
