package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"outfitted/internal/http/middleware"
	"outfitted/internal/service"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Users service.UserService
	Tags  service.AttributeService
	Items service.AttributeService
	Posts service.PostService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Everything under /api/post requires token authentication.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	user := app.Group("/api/user")
	user.Post("/create", CreateUser(svc.Users))
	user.Post("/token", CreateToken(svc.Users))
	user.Get("/me", middleware.TokenAuth(svc.Users), Me())
	user.Patch("/me", middleware.TokenAuth(svc.Users), UpdateMe(svc.Users))

	post := app.Group("/api/post", middleware.TokenAuth(svc.Users))
	post.Get("/tags", ListAttributes(svc.Tags))
	post.Post("/tags", CreateAttribute(svc.Tags))
	post.Get("/items", ListAttributes(svc.Items))
	post.Post("/items", CreateAttribute(svc.Items))

	post.Get("/posts", ListPosts(svc.Posts))
	post.Post("/posts", CreatePost(svc.Posts))
	post.Get("/posts/:id", GetPost(svc.Posts))
	post.Put("/posts/:id", UpdatePost(svc.Posts))
	post.Patch("/posts/:id", PatchPost(svc.Posts))
	post.Delete("/posts/:id", DeletePost(svc.Posts))
	post.Post("/posts/:id/upload-image", UploadPostImage(svc.Posts))
	post.Get("/posts/:id/image", GetPostImage(svc.Posts))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
