package routes

import (
	"time"

	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"
	"learnhub/backend/vault"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// multipart framing on top of the file itself
const uploadSlack = 1 << 20

// NewApp builds the Fiber app with the shared middleware stack. Routes are added by SetupRoutes.
func NewApp(cfg *config.Config, log *utils.Logger) *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if limit := int(cfg.MaxFileSize) + uploadSlack; limit > bodyLimit {
		bodyLimit = limit
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          utils.FiberErrorHandler(log),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(middleware.LoggingMiddleware(log))
	app.Use(middleware.Recovery(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	return app
}

func SetupRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *services.Services, files *vault.Vault, log *utils.Logger) {
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	authMiddleware := middleware.AuthMiddleware(tokens, svc.Credentials, log)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			log.Warn("health check failed", "error", err)
			return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "Database unavailable"))
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc, tokens, log)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.CredentialRateLimiter(cfg.LoginRateLimit), authController.Register)
	auth.Post("/login", middleware.CredentialRateLimiter(cfg.LoginRateLimit), authController.Login)
	auth.Get("/profile", authMiddleware, authController.GetProfile)
	auth.Put("/profile", authMiddleware, authController.UpdateProfile)

	// User administration
	userController := controllers.NewUserController(svc, log)
	users := api.Group("/users", authMiddleware)
	users.Get("/", adminOnly, userController.GetUsers)
	users.Get("/:id/courses", staffOnly, userController.GetInstructorCourses)
	users.Get("/:id", adminOnly, userController.GetUser)
	users.Put("/:id", adminOnly, userController.UpdateUser)
	users.Delete("/:id", adminOnly, userController.DeleteUser)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc, log)
	analyticsController := controllers.NewAnalyticsController(svc, log)
	courses := api.Group("/courses")
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Post("/", authMiddleware, staffOnly, coursesController.CreateCourse)
	courses.Put("/:id", authMiddleware, staffOnly, coursesController.UpdateCourse)
	courses.Delete("/:id", authMiddleware, staffOnly, coursesController.DeleteCourse)
	courses.Post("/:id/enroll", authMiddleware, coursesController.Enroll)
	courses.Post("/:id/unenroll", authMiddleware, coursesController.Unenroll)
	courses.Post("/:id/ratings", authMiddleware, coursesController.RateCourse)
	courses.Get("/:id/analytics", authMiddleware, analyticsController.GetCourseAnalytics)

	api.Get("/analytics/platform", authMiddleware, adminOnly, analyticsController.GetPlatformAnalytics)

	// Discussion routes
	discussionController := controllers.NewDiscussionController(svc, log)
	discussions := api.Group("/discussions")
	discussions.Get("/courses/:courseId", discussionController.GetCourseDiscussions)
	discussions.Post("/courses/:courseId", authMiddleware, discussionController.CreateDiscussion)
	discussions.Get("/:id", discussionController.GetDiscussion)
	discussions.Delete("/:id", authMiddleware, staffOnly, discussionController.DeleteDiscussion)
	discussions.Post("/:id/comments", authMiddleware, discussionController.AddComment)
	discussions.Post("/:id/comments/:commentId/like", authMiddleware, discussionController.ToggleCommentLike)
	discussions.Post("/:id/like", authMiddleware, discussionController.ToggleLike)
	discussions.Post("/:id/sticky", authMiddleware, staffOnly, discussionController.ToggleSticky)
	discussions.Post("/:id/lock", authMiddleware, staffOnly, discussionController.ToggleLock)

	// Progress records
	progressController := controllers.NewProgressController(svc, log)
	records := api.Group("/records", authMiddleware)
	records.Get("/", progressController.GetRecords)
	records.Get("/courses/:courseId", progressController.GetCourseProgress)
	records.Put("/courses/:courseId", progressController.UpdateCourseProgress)

	// Files
	filesController := controllers.NewFilesController(svc, files, log)
	api.Post("/files", authMiddleware, filesController.Upload)
	api.Get("/files/:uuid", filesController.Download)
}
