package controllers

import (
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Catalog     *services.Catalog
	Coordinator *services.Coordinator
	Log         *utils.Logger
}

func NewCoursesController(svc *services.Services, log *utils.Logger) *CoursesController {
	return &CoursesController{Catalog: svc.Catalog, Coordinator: svc.Coordinator, Log: log}
}

// GetCourses godoc
// @Summary List courses
// @Description Paginated catalog, newest first
// @Tags courses
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param category query string false "Exact category"
// @Param level query string false "beginner, intermediate or advanced"
// @Param search query string false "Case-insensitive title substring"
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	res, err := cc.Catalog.List(c.UserContext(), services.CourseFilter{
		Category:   c.Query("category"),
		Level:      c.Query("level"),
		Search:     c.Query("search"),
		PageParams: utils.ParsePage(c),
	})
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Paginate(c, res.Items, res.Total, res.Page, res.Limit)
}

// GetCourse godoc
// @Summary Get course details
// @Description Course with ordered modules, ratings, instructor and students
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} services.CourseView
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	view, err := cc.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param input body services.CourseInput true "Course"
// @Success 201 {object} services.CourseView
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	view, err := cc.Catalog.Create(c.UserContext(), middleware.CurrentUser(c).ID, input)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Created(c, view)
}

// UpdateCourse godoc
// @Summary Update a course
// @Description Non-empty fields overwrite; a modules array replaces the whole structure
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body services.CourseUpdate true "Changes"
// @Success 200 {object} services.CourseView
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var input services.CourseUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	view, err := cc.Catalog.Update(c.UserContext(), middleware.CurrentUser(c), id, input)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Description Removes the course with its progress records, rosters, ratings and discussions
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} services.CourseDeletion
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	summary, err := cc.Coordinator.DeleteCourse(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, summary)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Progress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	progress, err := cc.Coordinator.Enroll(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

// Unenroll godoc
// @Summary Leave a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/unenroll [post]
func (cc *CoursesController) Unenroll(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	if err := cc.Coordinator.Unenroll(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Message(c, "Unenrolled from course")
}

// RateCourse godoc
// @Summary Rate a course
// @Description Enrolled students only; rating again replaces the previous score
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body services.RatingInput true "Rating"
// @Success 200 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/ratings [post]
func (cc *CoursesController) RateCourse(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var input services.RatingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	course, err := cc.Catalog.Rate(c.UserContext(), middleware.CurrentUser(c).ID, id, input)
	if err != nil {
		return utils.HandleError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, course)
}
