package api

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/middleware"
	"github.com/bilgisen/estatehub/internal/models"
	"github.com/bilgisen/estatehub/internal/query"
	"github.com/bilgisen/estatehub/internal/slug"
	"github.com/bilgisen/estatehub/internal/storage"
	"github.com/bilgisen/estatehub/internal/submission"
)

const idempotencyHeader = "Idempotency-Key"

type ListingSubmitter interface {
	Submit(ctx context.Context, req submission.ListingRequest) (string, error)
}

type BlogSubmitter interface {
	Submit(ctx context.Context, req submission.BlogRequest) (string, error)
}

// Reader is the read side served to the public pages.
type Reader interface {
	Browse(ctx context.Context, search string, category models.Category) (query.Partition, error)
	Latest(ctx context.Context, n int) ([]*models.BlogPost, error)
	Post(ctx context.Context, slug string) (*models.BlogPost, error)
	FeaturedListings(ctx context.Context, n int) ([]query.ListingCard, error)
	Favorites(ctx context.Context) ([]query.ListingCard, error)
	Invalidate(ctx context.Context) error
}

type Handlers struct {
	listings ListingSubmitter
	blogs    BlogSubmitter
	reader   Reader
	media    *media.MockStore
}

// BlogQuery is the blog browsing filter.
type BlogQuery struct {
	Search   string `query:"search"`
	Category string `query:"category" validate:"omitempty,oneof=All Buying Renting Investing Legal Tips"`
}

type LimitQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ListBlogs handles GET /blogs
func (h *Handlers) ListBlogs(c *fiber.Ctx) error {
	q := middleware.Query[BlogQuery](c)

	p, err := h.reader.Browse(c.UserContext(), q.Search, models.Category(q.Category))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"hero":     p.Hero(),
		"featured": p.Featured,
		"regular":  p.Regular,
		"popular":  p.Popular,
	})
}

// LatestBlogs handles GET /blogs/latest
func (h *Handlers) LatestBlogs(c *fiber.Ctx) error {
	q := middleware.Query[LimitQuery](c)

	posts, err := h.reader.Latest(c.UserContext(), q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": posts})
}

// GetBlog handles GET /blogs/:slug
func (h *Handlers) GetBlog(c *fiber.Ctx) error {
	post, err := h.reader.Post(c.UserContext(), c.Params("slug"))
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Blog post not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// FeaturedProperties handles GET /properties/featured
func (h *Handlers) FeaturedProperties(c *fiber.Ctx) error {
	q := middleware.Query[LimitQuery](c)

	cards, err := h.reader.FeaturedListings(c.UserContext(), q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": cards})
}

// Favorites handles GET /me/favorites
func (h *Handlers) Favorites(c *fiber.Ctx) error {
	cards, err := h.reader.Favorites(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": cards})
}

// CreateProperty handles POST /properties
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a multipart form")
	}

	id, err := h.listings.Submit(c.UserContext(), submission.ListingRequest{
		Form:           listingForm(form),
		Images:         files(form.File["images"]),
		OwnerID:        actor.ID,
		IdempotencyKey: c.Get(idempotencyHeader),
	})
	if err != nil {
		return respondSubmitError(c, err, submission.KindListing)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"title":   "Property Listed!",
		"message": "Your property has been successfully listed.",
	})
}

// CreateBlog handles POST /blogs
func (h *Handlers) CreateBlog(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a multipart form")
	}

	var image *media.File
	if fhs := form.File["featured_image"]; len(fhs) > 0 {
		f := media.FromFileHeader(fhs[0])
		image = &f
	}

	id, err := h.blogs.Submit(c.UserContext(), submission.BlogRequest{
		Form:           blogForm(form),
		Content:        value(form, "content"),
		FeaturedImage:  image,
		OwnerID:        actor.ID,
		AuthorName:     actor.Name,
		IdempotencyKey: c.Get(idempotencyHeader),
	})
	if err != nil {
		return respondSubmitError(c, err, submission.KindBlog)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"title":   "Blog Published!",
		"message": "Your blog post has been successfully published.",
	})
}

// ClearCache handles DELETE /admin/cache
func (h *Handlers) ClearCache(c *fiber.Ctx) error {
	if err := h.reader.Invalidate(c.UserContext()); err != nil {
		return err
	}
	logger.WithContext(c.UserContext()).Info().Msg("Query cache cleared")
	return c.SendStatus(fiber.StatusNoContent)
}

// ServeMedia handles GET /media/:bucket/* for the in-memory object store.
func (h *Handlers) ServeMedia(c *fiber.Ctx) error {
	obj, ok := h.media.Get(c.Params("bucket"), c.Params("*"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Media not found")
	}
	c.Set(fiber.HeaderContentType, obj.ContentType)
	return c.Send(obj.Data)
}

func listingForm(form *multipart.Form) submission.ListingForm {
	return submission.ListingForm{
		Title:         value(form, "title"),
		Location:      value(form, "location"),
		City:          value(form, "city"),
		PropertyType:  value(form, "propertyType"),
		Beds:          value(form, "beds"),
		Baths:         value(form, "baths"),
		Sqft:          value(form, "sqft"),
		ListingType:   value(form, "type"),
		Price:         value(form, "price"),
		Amenities:     amenities(form),
		NearbySchools: checked(form, "nearbySchools"),
	}
}

func blogForm(form *multipart.Form) submission.BlogForm {
	f := submission.BlogForm{
		Title:    value(form, "blogTitle"),
		Slug:     value(form, "slug"),
		Excerpt:  value(form, "excerpt"),
		Category: value(form, "category"),
		ReadTime: value(form, "readTime"),
		Featured: checked(form, "featured"),
	}
	// The dashboard pre-fills the slug from the title.
	if strings.TrimSpace(f.Slug) == "" {
		f.Slug = slug.Make(f.Title)
	}
	return f
}

// amenities accepts repeated "amenities" values and per-amenity checkboxes.
func amenities(form *multipart.Form) []string {
	selected := append([]string(nil), form.Value["amenities"]...)
	for _, a := range models.Amenities {
		if checked(form, string(a)) {
			selected = append(selected, string(a))
		}
	}
	return selected
}

func value(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func checked(form *multipart.Form, key string) bool {
	switch strings.ToLower(value(form, key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func files(fhs []*multipart.FileHeader) []media.File {
	out := make([]media.File, len(fhs))
	for i, fh := range fhs {
		out[i] = media.FromFileHeader(fh)
	}
	return out
}
