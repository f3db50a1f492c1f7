package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bilgisen/estatehub/internal/config"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/middleware"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Listings ListingSubmitter
	Blogs    BlogSubmitter
	Reader   Reader
	// Media, when set, is served under /media for development runs
	// without R2.
	Media *media.MockStore
}

// NewApp builds the fiber app with every route mounted.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	// Room for a full image batch plus the form fields.
	bodyLimit := int(cfg.MaxFileSize)*cfg.MaxImages + 1<<20

	app := fiber.New(fiber.Config{
		AppName:      "estatehub",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    bodyLimit,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	})
	SetupRoutes(app, cfg, deps)
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, cfg *config.Config, deps Deps) {
	handlers := &Handlers{
		listings: deps.Listings,
		blogs:    deps.Blogs,
		reader:   deps.Reader,
		media:    deps.Media,
	}
	auth := middleware.NewAuth(middleware.AuthConfig{Secret: []byte(cfg.JWTSecret)})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if deps.Media != nil {
		app.Get("/media/:bucket/*", handlers.ServeMedia)
	}

	// API group with versioning
	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)

	blogs := api.Group("/blogs")
	{
		blogs.Get("", middleware.ValidateQuery[BlogQuery](), handlers.ListBlogs)
		blogs.Get("/latest", middleware.ValidateQuery[LimitQuery](), handlers.LatestBlogs)
		blogs.Get("/:slug", handlers.GetBlog)
		blogs.Post("", auth, handlers.CreateBlog)
	}

	properties := api.Group("/properties")
	{
		properties.Get("/featured", middleware.ValidateQuery[LimitQuery](), handlers.FeaturedProperties)
		properties.Post("", auth, handlers.CreateProperty)
	}

	api.Get("/me/favorites", auth, handlers.Favorites)

	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Delete("/cache", handlers.ClearCache)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(ErrorBody{
			Error:   "not_found",
			Title:   "Not Found",
			Message: "Endpoint not found",
		})
	})
}
