package controllers

import (
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// UserController serves account administration.
type UserController struct {
	Credentials *services.CredentialStore
	Coordinator *services.Coordinator
	Catalog     *services.Catalog
	Log         *utils.Logger
}

func NewUserController(svc *services.Services, log *utils.Logger) *UserController {
	return &UserController{
		Credentials: svc.Credentials,
		Coordinator: svc.Coordinator,
		Catalog:     svc.Catalog,
		Log:         log,
	}
}

// GetUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users [get]
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	users, err := uc.Credentials.List(c.UserContext())
	if err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, users)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid user ID")
	}
	user, err := uc.Credentials.FindByID(c.UserContext(), id)
	if err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	courses, err := uc.Credentials.CourseIDs(c.UserContext(), id)
	if err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, ProfileResponse{User: user, Courses: courses})
}

// UpdateUser godoc
// @Summary Update a user
// @Description Admins may also change the role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body services.ProfileUpdate true "Changes"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid user ID")
	}
	var input services.ProfileUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := uc.Credentials.Update(c.UserContext(), id, input, true)
	if err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Removes the user from every roster along with their progress, ratings and likes
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid user ID")
	}
	if err := uc.Coordinator.DeleteUser(c.UserContext(), id); err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	return utils.Message(c, "User deleted")
}

// GetInstructorCourses godoc
// @Summary Courses taught by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /users/{id}/courses [get]
func (uc *UserController) GetInstructorCourses(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid user ID")
	}
	if _, err := uc.Credentials.FindByID(c.UserContext(), id); err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	courses, err := uc.Catalog.InstructorCourses(c.UserContext(), id)
	if err != nil {
		return utils.HandleError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, courses)
}
