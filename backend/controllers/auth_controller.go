package controllers

import (
	"strconv"

	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Credentials *services.CredentialStore
	Tokens      *utils.TokenIssuer
	Log         *utils.Logger
}

func NewAuthController(svc *services.Services, tokens *utils.TokenIssuer, log *utils.Logger) *AuthController {
	return &AuthController{Credentials: svc.Credentials, Tokens: tokens, Log: log}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret1"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor" enums:"student,instructor"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// AuthResponse carries a fresh token together with the account it belongs to.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ProfileResponse is a user with the derived list of course ids.
type ProfileResponse struct {
	*models.User
	Courses []uint `json:"courses"`
}

// paramID parses a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Register godoc
// @Summary Register a new user
// @Description Creates a student or instructor account and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user := &models.User{Name: input.Name, Email: input.Email, Role: input.Role}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if err := ac.Credentials.HashAndStore(c.UserContext(), user, input.Password); err != nil {
		return utils.HandleError(c, ac.Log, err)
	}

	token, err := ac.Tokens.Issue(user.ID)
	if err != nil {
		ac.Log.Error("could not issue token", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not generate token")
	}
	return utils.Created(c, AuthResponse{Token: token, User: user})
}

// Login godoc
// @Summary User login
// @Description Checks credentials and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := ac.Credentials.Verify(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return utils.HandleError(c, ac.Log, err)
	}

	token, err := ac.Tokens.Issue(user.ID)
	if err != nil {
		ac.Log.Error("could not issue token", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not generate token")
	}
	return utils.Success(c, fiber.StatusOK, AuthResponse{Token: token, User: user})
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the authenticated user's profile with course ids
// @Tags auth
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/profile [get]
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	courses, err := ac.Credentials.CourseIDs(c.UserContext(), user.ID)
	if err != nil {
		return utils.HandleError(c, ac.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, ProfileResponse{User: user, Courses: courses})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates name, email, password, bio or avatar and re-issues the token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.ProfileUpdate true "Profile changes"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/profile [put]
func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	var input services.ProfileUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := ac.Credentials.Update(c.UserContext(), middleware.CurrentUser(c).ID, input, false)
	if err != nil {
		return utils.HandleError(c, ac.Log, err)
	}

	token, err := ac.Tokens.Issue(user.ID)
	if err != nil {
		ac.Log.Error("could not issue token", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not generate token")
	}
	return utils.Success(c, fiber.StatusOK, AuthResponse{Token: token, User: user})
}
