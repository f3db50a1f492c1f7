// Package dashboard holds the state of the content dashboard: which view
// is open, the files and text picked for the open forms, and whether a
// form is being submitted.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/query"
	"github.com/bilgisen/estatehub/internal/slug"
	"github.com/bilgisen/estatehub/internal/submission"
)

// View is one dashboard tab.
type View string

const (
	ViewListProperty View = "list-property"
	ViewCreateBlog   View = "create-blog"
	ViewFavorites    View = "favorites"
)

// Views lists the tabs in menu order.
var Views = []View{ViewListProperty, ViewCreateBlog, ViewFavorites}

var ErrUnknownView = errors.New("unknown view")

// Variant styles a Notice.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is the toast shown after a submit attempt.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

type ListingSubmitter interface {
	Submit(ctx context.Context, req submission.ListingRequest) (string, error)
}

type BlogSubmitter interface {
	Submit(ctx context.Context, req submission.BlogRequest) (string, error)
}

type FavoritesSource interface {
	Favorites(ctx context.Context) ([]query.ListingCard, error)
}

// Actor is the signed-in user the dashboard submits for.
type Actor struct {
	ID   string
	Name string
}

// Controller is safe for concurrent use. Submit methods hold no lock while
// the submitter runs, so state can be read during a submission.
type Controller struct {
	listings  ListingSubmitter
	blogs     BlogSubmitter
	favorites FavoritesSource
	actor     Actor

	mu          sync.Mutex
	view        View
	listingBusy bool
	blogBusy    bool

	images []media.File
	// inFlight is the number of leading images taken by the running
	// listing submission.
	inFlight      int
	featuredImage *media.File
	blogSlug      string
	content       string
}

func NewController(actor Actor, listings ListingSubmitter, blogs BlogSubmitter, favorites FavoritesSource) *Controller {
	return &Controller{
		listings:  listings,
		blogs:     blogs,
		favorites: favorites,
		actor:     actor,
		view:      ViewListProperty,
	}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Select switches the open tab. Form state survives a switch.
func (c *Controller) Select(v View) error {
	for _, known := range Views {
		if v == known {
			c.mu.Lock()
			c.view = v
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownView, v)
}

func (c *Controller) Busy(kind submission.Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == submission.KindBlog {
		return c.blogBusy
	}
	return c.listingBusy
}

// AddImages appends to the property image selection.
func (c *Controller) AddImages(files ...media.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, files...)
}

func (c *Controller) RemoveImage(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.images) {
		return
	}
	if i < c.inFlight {
		c.inFlight--
	}
	c.images = append(c.images[:i:i], c.images[i+1:]...)
}

func (c *Controller) Images() []media.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]media.File(nil), c.images...)
}

// SetFeaturedImage replaces the blog's featured image; nil clears it.
func (c *Controller) SetFeaturedImage(f *media.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.featuredImage = f
}

// SetBlogTitle regenerates the slug from title, discarding any manual edit.
func (c *Controller) SetBlogTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blogSlug = slug.Make(title)
}

func (c *Controller) SetBlogSlug(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blogSlug = s
}

func (c *Controller) BlogSlug() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blogSlug
}

func (c *Controller) SetContent(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = body
}

func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// SubmitListing submits form with the selected images. The selection is
// cleared only on success.
func (c *Controller) SubmitListing(ctx context.Context, form submission.ListingForm, idempotencyKey string) (Notice, error) {
	c.mu.Lock()
	if c.listingBusy {
		c.mu.Unlock()
		return busyNotice(), submission.ErrSubmissionInProgress
	}
	c.listingBusy = true
	images := append([]media.File(nil), c.images...)
	c.inFlight = len(images)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.listingBusy = false
		c.inFlight = 0
		c.mu.Unlock()
	}()

	_, err := c.listings.Submit(ctx, submission.ListingRequest{
		Form:           form,
		Images:         images,
		OwnerID:        c.actor.ID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return failureNotice(err, submission.KindListing), err
	}

	// Images added while the request ran stay selected.
	c.mu.Lock()
	c.images = append([]media.File(nil), c.images[c.inFlight:]...)
	c.mu.Unlock()
	return Notice{
		Title:       "Property Listed!",
		Description: "Your property has been successfully listed.",
		Variant:     VariantDefault,
	}, nil
}

// SubmitBlog submits form with the current slug, body and featured image.
// That state is cleared only on success.
func (c *Controller) SubmitBlog(ctx context.Context, form submission.BlogForm, idempotencyKey string) (Notice, error) {
	c.mu.Lock()
	if c.blogBusy {
		c.mu.Unlock()
		return busyNotice(), submission.ErrSubmissionInProgress
	}
	c.blogBusy = true
	form.Slug = c.blogSlug
	body := c.content
	image := c.featuredImage
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.blogBusy = false
		c.mu.Unlock()
	}()

	_, err := c.blogs.Submit(ctx, submission.BlogRequest{
		Form:           form,
		Content:        body,
		FeaturedImage:  image,
		OwnerID:        c.actor.ID,
		AuthorName:     c.actor.Name,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return failureNotice(err, submission.KindBlog), err
	}

	// Edits made while the request ran are kept.
	c.mu.Lock()
	if c.featuredImage == image {
		c.featuredImage = nil
	}
	if c.blogSlug == form.Slug {
		c.blogSlug = ""
	}
	if c.content == body {
		c.content = ""
	}
	c.mu.Unlock()
	return Notice{
		Title:       "Blog Published!",
		Description: "Your blog post has been successfully published.",
		Variant:     VariantDefault,
	}, nil
}

// Favorites loads the favorites view.
func (c *Controller) Favorites(ctx context.Context) ([]query.ListingCard, error) {
	return c.favorites.Favorites(ctx)
}

func busyNotice() Notice {
	return Notice{
		Title:       "Please wait",
		Description: "Your previous submission is still in progress.",
		Variant:     VariantDestructive,
	}
}

func failureNotice(err error, kind submission.Kind) Notice {
	var verr *submission.ValidationError
	if errors.As(err, &verr) {
		return Notice{Title: verr.Title, Description: verr.Description, Variant: VariantDestructive}
	}
	if errors.Is(err, submission.ErrSubmissionInProgress) {
		return busyNotice()
	}
	serr := &submission.SubmitError{Kind: kind}
	return Notice{Title: "Error", Description: serr.Message(), Variant: VariantDestructive}
}
