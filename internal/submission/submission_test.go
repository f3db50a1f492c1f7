package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/models"
	"github.com/bilgisen/estatehub/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	listings []*models.PropertyListing
	blogs    []*models.BlogPost
	err      error
}

func (f *fakeStore) CreateListing(ctx context.Context, l *models.PropertyListing) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.listings = append(f.listings, l)
	return l.ID, nil
}

func (f *fakeStore) CreateBlog(ctx context.Context, p *models.BlogPost) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.blogs = append(f.blogs, p)
	return p.ID, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

type harness struct {
	media *media.MockStore
	cache *cache.MockRedisClient
	store *fakeStore
	guard *Guard
	up    *media.Orchestrator
	v     *Validator
}

func newHarness() *harness {
	h := &harness{
		media: media.NewMockStore("https://cdn.test"),
		cache: cache.NewMockRedisClient(),
		store: &fakeStore{},
		v:     NewValidator(Limits{MaxFileSize: 1 << 20, MaxImages: 5}),
	}
	var n int
	h.up = media.NewOrchestrator(h.media,
		media.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		media.WithTokenSource(func() string { n++; return fmt.Sprintf("t%d", n) }),
	)
	h.guard = NewGuard(h.cache, time.Minute, time.Hour)
	return h
}

func (h *harness) listings() *ListingService {
	s := NewListingService(h.v, h.up, h.store, h.guard, "property-images")
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "listing-1" }
	return s
}

func (h *harness) blogs() *BlogService {
	s := NewBlogService(h.v, h.up, h.store, h.guard, "blog-images")
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "blog-1" }
	return s
}

func rentForm() ListingForm {
	return ListingForm{
		Title:         " Sunny loft ",
		Location:      "12 Harbor St",
		City:          "Lisbon",
		PropertyType:  "apartment",
		Beds:          "2",
		Baths:         "1",
		Sqft:          "",
		ListingType:   "Rent",
		Price:         "2500",
		Amenities:     []string{"gym", "parking", "helipad"},
		NearbySchools: true,
	}
}

func blogForm() BlogForm {
	return BlogForm{
		Title:    "Renting in Lisbon",
		Slug:     "renting-in-lisbon",
		Excerpt:  "What to know before you sign.",
		Category: "Renting",
	}
}

func images(n int) []media.File {
	files := make([]media.File, n)
	for i := range files {
		files[i] = media.FromBytes(fmt.Sprintf("photo%d.jpg", i+1), []byte("jpeg"))
	}
	return files
}

func TestListingWithoutImagesMakesNoCalls(t *testing.T) {
	h := newHarness()

	_, err := h.listings().Submit(context.Background(), ListingRequest{
		Form:    rentForm(),
		OwnerID: "user-1",
	})

	require.ErrorIs(t, err, ErrMediaRequired)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Images Required", verr.Title)
	assert.Equal(t, "Please upload at least one property image.", verr.Description)
	assert.Empty(t, h.media.Uploads())
	assert.Empty(t, h.store.listings)
}

func TestListingRequiresOwner(t *testing.T) {
	h := newHarness()
	_, err := h.listings().Submit(context.Background(), ListingRequest{Form: rentForm(), Images: images(1)})
	assert.ErrorIs(t, err, ErrOwnerRequired)
	assert.Empty(t, h.media.Uploads())
}

func TestListingRejectsBadFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*ListingForm)
		field string
	}{
		{"missing title", func(f *ListingForm) { f.Title = "  " }, "title"},
		{"unknown type", func(f *ListingForm) { f.ListingType = "Lease" }, "type"},
		{"negative price", func(f *ListingForm) { f.Price = "-5" }, "price"},
		{"unreadable price", func(f *ListingForm) { f.Price = "abc" }, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			form := rentForm()
			tt.edit(&form)

			_, err := h.listings().Submit(context.Background(), ListingRequest{
				Form: form, Images: images(1), OwnerID: "user-1",
			})

			require.ErrorIs(t, err, ErrInvalidField)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, h.media.Uploads())
		})
	}
}

func TestListingTooManyOrTooLargeImages(t *testing.T) {
	h := newHarness()
	_, err := h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(6), OwnerID: "user-1",
	})
	assert.ErrorIs(t, err, ErrInvalidField)

	big := media.File{Name: "huge.jpg", Size: 2 << 20, Open: images(1)[0].Open}
	_, err = h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: []media.File{big}, OwnerID: "user-1",
	})
	assert.ErrorIs(t, err, ErrMediaTooLarge)
	assert.Empty(t, h.media.Uploads())
}

func TestListingStoresActiveRecord(t *testing.T) {
	h := newHarness()

	id, err := h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(3), OwnerID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "listing-1", id)

	require.Len(t, h.store.listings, 1)
	l := h.store.listings[0]
	assert.Equal(t, "user-1", l.OwnerID)
	assert.Equal(t, "Sunny loft", l.Title)
	assert.Equal(t, models.ListingRent, l.ListingType)
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, 1, l.Bathrooms)
	assert.Nil(t, l.SquareFeet)
	assert.Equal(t, 2500.0, l.Price)
	assert.Equal(t, []models.Amenity{models.AmenityParking, models.AmenityGym}, l.Amenities)
	assert.True(t, l.NearbySchools)
	assert.Equal(t, models.ListingActive, l.Status)
	assert.Equal(t, []string{
		"https://cdn.test/property-images/user-1/1700000000000-t1.jpg",
		"https://cdn.test/property-images/user-1/1700000000000-t2.jpg",
		"https://cdn.test/property-images/user-1/1700000000000-t3.jpg",
	}, l.Images)
	assert.Equal(t, "$2,500/month", l.PriceDisplay())
}

func TestListingCountDefaults(t *testing.T) {
	tests := []struct {
		name                string
		beds, baths, sqft   string
		wantBeds, wantBaths int
		wantSqft            *int
	}{
		{"blank and fractional", "", "1.5", "850", 0, 1, intPtr(850)},
		{"negative", "-3", "-1", "-20", 0, 0, nil},
		{"unreadable", "two", "1e400", "big", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			form := rentForm()
			form.Beds = tt.beds
			form.Baths = tt.baths
			form.Sqft = tt.sqft

			_, err := h.listings().Submit(context.Background(), ListingRequest{
				Form: form, Images: images(1), OwnerID: "user-1",
			})
			require.NoError(t, err)

			l := h.store.listings[0]
			assert.Equal(t, tt.wantBeds, l.Bedrooms)
			assert.Equal(t, tt.wantBaths, l.Bathrooms)
			assert.Equal(t, tt.wantSqft, l.SquareFeet)
		})
	}
}

func intPtr(n int) *int { return &n }

func TestListingPersistFailureDiscardsMedia(t *testing.T) {
	h := newHarness()
	h.store.err = errors.New("connection reset")

	_, err := h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(2), OwnerID: "user-1",
	})

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Failed to list property. Please try again.", serr.Message())
	assert.Len(t, h.media.Uploads(), 2)
	assert.Empty(t, h.media.Objects("property-images"))
}

func TestListingUploadFailureStoresNothing(t *testing.T) {
	h := newHarness()
	h.media.UploadHook = func(bucket, path string) error {
		if path == "user-1/1700000000000-t2.jpg" {
			return errors.New("bucket unavailable")
		}
		return nil
	}

	_, err := h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(3), OwnerID: "user-1",
	})

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	var uerr *media.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "photo2.jpg", uerr.File)
	assert.Empty(t, h.store.listings)
	assert.Empty(t, h.media.Objects("property-images"))
}

func TestListingRejectsConcurrentSubmit(t *testing.T) {
	h := newHarness()
	held, err := h.guard.Begin(context.Background(), KindListing, "user-1", "")
	require.NoError(t, err)

	_, err = h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(1), OwnerID: "user-1",
	})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Empty(t, h.media.Uploads())

	held.Release(context.Background())
	_, err = h.listings().Submit(context.Background(), ListingRequest{
		Form: rentForm(), Images: images(1), OwnerID: "user-1",
	})
	assert.NoError(t, err)
}

func TestListingIdempotentReplay(t *testing.T) {
	h := newHarness()
	svc := h.listings()
	req := ListingRequest{Form: rentForm(), Images: images(1), OwnerID: "user-1", IdempotencyKey: "abc"}

	first, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	svc.newID = func() string { return "listing-2" }
	second, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, h.store.listings, 1)
	assert.Len(t, h.media.Uploads(), 1)

	// A different owner with the same key is a new submission.
	req.OwnerID = "user-2"
	third, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "listing-2", third)
}

func TestBlogChecksBeforeUpload(t *testing.T) {
	tests := []struct {
		name    string
		image   *media.File
		content string
		want    error
		title   string
	}{
		{"no image", nil, "<p>Hello</p>", ErrMediaRequired, "Featured Image Required"},
		{"empty body", &images(1)[0], "", ErrContentRequired, "Content Required"},
		{"empty markup", &images(1)[0], "<p><br></p>", ErrContentRequired, "Content Required"},
		// Image is checked before content.
		{"neither", nil, "", ErrMediaRequired, "Featured Image Required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.blogs().Submit(context.Background(), BlogRequest{
				Form: blogForm(), Content: tt.content, FeaturedImage: tt.image, OwnerID: "user-1",
			})

			require.ErrorIs(t, err, tt.want)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.title, verr.Title)
			assert.Empty(t, h.media.Uploads())
			assert.Empty(t, h.store.blogs)
		})
	}
}

func TestBlogRejectsUnknownCategory(t *testing.T) {
	h := newHarness()
	form := blogForm()
	form.Category = "Gossip"
	img := images(1)[0]

	_, err := h.blogs().Submit(context.Background(), BlogRequest{
		Form: form, Content: "<p>Hi</p>", FeaturedImage: &img, OwnerID: "user-1",
	})
	require.ErrorIs(t, err, ErrInvalidField)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestBlogPublishesPost(t *testing.T) {
	h := newHarness()
	inv := &countingInvalidator{}
	svc := h.blogs().WithInvalidator(inv)
	img := images(1)[0]

	id, err := svc.Submit(context.Background(), BlogRequest{
		Form:          blogForm(),
		Content:       `<p onclick="x()">Read this</p><script>alert(1)</script>`,
		FeaturedImage: &img,
		OwnerID:       "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "blog-1", id)
	assert.Equal(t, 1, inv.calls)

	require.Len(t, h.store.blogs, 1)
	p := h.store.blogs[0]
	assert.Equal(t, "renting-in-lisbon", p.Slug)
	assert.Equal(t, models.CategoryRenting, p.Category)
	assert.Equal(t, "User", p.Author)
	assert.Equal(t, "1 min read", p.ReadTime)
	assert.Equal(t, models.BlogPublished, p.Status)
	assert.Equal(t, "https://cdn.test/blog-images/user-1/1700000000000-t1.jpg", p.FeaturedImage)
	assert.NotContains(t, p.Content, "script")
	assert.NotContains(t, p.Content, "onclick")
	assert.Contains(t, p.Content, "Read this")
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestBlogKeepsGivenReadTimeAndAuthor(t *testing.T) {
	h := newHarness()
	form := blogForm()
	form.ReadTime = "7 min read"
	img := images(1)[0]

	_, err := h.blogs().Submit(context.Background(), BlogRequest{
		Form: form, Content: "<p>Hi</p>", FeaturedImage: &img, OwnerID: "user-1", AuthorName: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "7 min read", h.store.blogs[0].ReadTime)
	assert.Equal(t, "Ana", h.store.blogs[0].Author)
}

func TestBlogSlugConflict(t *testing.T) {
	h := newHarness()
	h.store.err = fmt.Errorf("insert blog: %w", storage.ErrSlugConflict)
	inv := &countingInvalidator{}
	img := images(1)[0]

	_, err := h.blogs().WithInvalidator(inv).Submit(context.Background(), BlogRequest{
		Form: blogForm(), Content: "<p>Hi</p>", FeaturedImage: &img, OwnerID: "user-1",
	})

	require.ErrorIs(t, err, storage.ErrSlugConflict)
	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Failed to publish blog. Please try again.", serr.Message())
	assert.Empty(t, h.media.Objects("blog-images"))
	assert.Zero(t, inv.calls)
}

func TestGuardLocksAreScopedByKind(t *testing.T) {
	h := newHarness()
	a, err := h.guard.Begin(context.Background(), KindListing, "user-1", "")
	require.NoError(t, err)
	defer a.Release(context.Background())

	b, err := h.guard.Begin(context.Background(), KindBlog, "user-1", "")
	require.NoError(t, err)
	b.Release(context.Background())

	_, err = h.guard.Begin(context.Background(), KindListing, "user-1", "")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
}
