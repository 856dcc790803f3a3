package controllers

import (
	"time"

	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsController struct {
	Catalog *services.Catalog
	Log     *utils.Logger
}

func NewAnalyticsController(svc *services.Services, log *utils.Logger) *AnalyticsController {
	return &AnalyticsController{Catalog: svc.Catalog, Log: log}
}

// GetCourseAnalytics godoc
// @Summary Course analytics
// @Description Per-student progress of a course (instructor of the course or admin)
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseAnalytics
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/analytics [get]
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	stats, err := ac.Catalog.Analytics(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return utils.HandleError(c, ac.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

// GetPlatformAnalytics godoc
// @Summary Platform analytics
// @Description Catalog-wide counters (admin only)
// @Tags analytics
// @Produce json
// @Success 200 {object} models.PlatformAnalytics
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /analytics/platform [get]
func (ac *AnalyticsController) GetPlatformAnalytics(c *fiber.Ctx) error {
	metrics, err := ac.Catalog.Platform(c.UserContext())
	if err != nil {
		return utils.HandleError(c, ac.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, metrics, fiber.Map{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
