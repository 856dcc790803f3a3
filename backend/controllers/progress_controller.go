package controllers

import (
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Tracker *services.Tracker
	Log     *utils.Logger
}

func NewProgressController(svc *services.Services, log *utils.Logger) *ProgressController {
	return &ProgressController{Tracker: svc.Tracker, Log: log}
}

// GetRecords godoc
// @Summary List own progress records
// @Description Every course progress of the caller, most recently updated first
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /records [get]
func (pc *ProgressController) GetRecords(c *fiber.Ctx) error {
	records, err := pc.Tracker.List(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return utils.HandleError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, records)
}

// GetCourseProgress godoc
// @Summary Get progress in a course
// @Description Creates an empty record on first access
// @Tags progress
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.Progress
// @Success 201 {object} models.Progress
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /records/courses/{courseId} [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	progress, created, err := pc.Tracker.GetOrCreate(c.UserContext(), middleware.CurrentUser(c).ID, courseID)
	if err != nil {
		return utils.HandleError(c, pc.Log, err)
	}
	if created {
		return utils.Created(c, progress)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

// UpdateCourseProgress godoc
// @Summary Report progress in a course
// @Description Unknown lessons are dropped and the completion rate is recomputed
// @Tags progress
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param input body services.ProgressUpdate true "Position and completed lessons"
// @Success 200 {object} models.Progress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /records/courses/{courseId} [put]
func (pc *ProgressController) UpdateCourseProgress(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var input services.ProgressUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	progress, err := pc.Tracker.Update(c.UserContext(), middleware.CurrentUser(c).ID, courseID, input)
	if err != nil {
		return utils.HandleError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}
