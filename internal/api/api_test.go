package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/config"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/middleware"
	"github.com/bilgisen/estatehub/internal/query"
	"github.com/bilgisen/estatehub/internal/storage"
	"github.com/bilgisen/estatehub/internal/submission"
)

const secret = "test-secret"

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	app   *fiber.App
	media *media.MockStore
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		MaxFileSize:    1 << 20,
		MaxImages:      5,
		PropertyBucket: "property-images",
		BlogBucket:     "blog-images",
		JWTSecret:      secret,
		AdminAPIKey:    "admin-key",
	}

	repo, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	objects := media.NewMockStore("http://localhost:8080/media")
	kv := cache.NewMockRedisClient()

	uploader := media.NewOrchestrator(objects)
	validator := submission.NewValidator(submission.Limits{MaxFileSize: cfg.MaxFileSize, MaxImages: cfg.MaxImages})
	guard := submission.NewGuard(kv, time.Minute, time.Hour)
	reader := query.NewService(repo, kv, time.Minute)

	app := NewApp(cfg, Deps{
		Listings: submission.NewListingService(validator, uploader, repo, guard, cfg.PropertyBucket),
		Blogs:    submission.NewBlogService(validator, uploader, repo, guard, cfg.BlogBucket).WithInvalidator(reader),
		Reader:   reader,
		Media:    objects,
	})

	token, err := middleware.IssueToken([]byte(secret), middleware.Actor{ID: "user-1", Name: "Ana"}, time.Hour)
	require.NoError(t, err)
	return &testServer{app: app, media: objects, token: token}
}

type part struct {
	field, filename string
	data            []byte
}

func multipartBody(t *testing.T, fields map[string][]string, files ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	body := map[string]any{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func (s *testServer) post(t *testing.T, path string, fields map[string][]string, files ...part) (*http.Response, map[string]any) {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func propertyFields(listingType string) map[string][]string {
	return map[string][]string{
		"title":         {"Harbor loft"},
		"location":      {"12 Harbor St"},
		"city":          {"Lisbon"},
		"propertyType":  {"apartment"},
		"beds":          {"2"},
		"baths":         {"1"},
		"type":          {listingType},
		"price":         {"2500"},
		"amenities":     {"wifi"},
		"parking":       {"on"},
		"nearbySchools": {"on"},
	}
}

func blogFields() map[string][]string {
	return map[string][]string{
		"blogTitle": {"  My Great House! "},
		"excerpt":   {"A tour"},
		"category":  {"Tips"},
		"featured":  {"on"},
		"content":   {"<p>Welcome home.</p>"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.get(t, "/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCreatePropertyRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartBody(t, propertyFields("Rent"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, _ := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/properties", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, _ = s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePropertyWithoutImages(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.post(t, "/api/v1/properties", propertyFields("Rent"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "media_required", body["error"])
	assert.Equal(t, "Images Required", body["title"])
	assert.Equal(t, "Please upload at least one property image.", body["message"])
	assert.Empty(t, s.media.Uploads())
}

func TestCreatePropertyAndListFeatured(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.post(t, "/api/v1/properties", propertyFields("Rent"),
		part{"images", "front.png", pngData},
		part{"images", "kitchen.png", pngData},
		part{"images", "garden.png", pngData},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Property Listed!", body["title"])
	assert.NotEmpty(t, body["id"])

	resp, body = s.get(t, "/api/v1/properties/featured")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)

	card := items[0].(map[string]any)
	assert.Equal(t, "Rent", card["listing_type"])
	assert.Equal(t, 2500.0, card["price"])
	assert.Equal(t, "$2,500/month", card["price_display"])
	assert.Equal(t, "user-1", card["user_id"])
	assert.Equal(t, []any{"parking", "wifi"}, card["amenities"])
	assert.Equal(t, true, card["nearby_schools"])
	assert.Len(t, card["images"], 3)

	// Images are served from the in-memory store.
	u, err := url.Parse(card["cover_image"].(string))
	require.NoError(t, err)
	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, u.Path, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
}

func TestCreatePropertyRejectsBadType(t *testing.T) {
	s := newTestServer(t)
	fields := propertyFields("Lease")

	resp, body := s.post(t, "/api/v1/properties", fields, part{"images", "a.png", pngData})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_field", body["error"])
	assert.Equal(t, "type", body["field"])
}

func TestCreateBlogValidation(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.post(t, "/api/v1/blogs", blogFields())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "media_required", body["error"])
	assert.Equal(t, "Featured Image Required", body["title"])

	fields := blogFields()
	fields["content"] = []string{"<p><br></p>"}
	resp, body = s.post(t, "/api/v1/blogs", fields, part{"featured_image", "cover.png", pngData})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content_required", body["error"])
	assert.Equal(t, "Please write some content for your blog post.", body["message"])
	assert.Empty(t, s.media.Uploads())
}

func TestCreateBlogAndBrowse(t *testing.T) {
	s := newTestServer(t)

	// Prime the cache so the publish has something to invalidate.
	resp, body := s.get(t, "/api/v1/blogs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["hero"])

	resp, body = s.post(t, "/api/v1/blogs", blogFields(), part{"featured_image", "cover.png", pngData})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Blog Published!", body["title"])

	resp, body = s.get(t, "/api/v1/blogs?category=Tips&search=GREAT")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hero := body["hero"].(map[string]any)
	assert.Equal(t, "my-great-house", hero["slug"])
	assert.Equal(t, "Ana", hero["author"])
	assert.Equal(t, "1 min read", hero["read_time"])
	assert.Len(t, body["popular"], 1)

	resp, body = s.get(t, "/api/v1/blogs?category=Legal")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["featured"])
	assert.Len(t, body["popular"], 1)

	resp, body = s.get(t, "/api/v1/blogs/my-great-house")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "My Great House!", body["title"])

	resp, body = s.get(t, "/api/v1/blogs/latest?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)
}

func TestCreateBlogSlugConflict(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.post(t, "/api/v1/blogs", blogFields(), part{"featured_image", "a.png", pngData})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.post(t, "/api/v1/blogs", blogFields(), part{"featured_image", "b.png", pngData})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "slug_conflict", body["error"])
	assert.Equal(t, "Failed to publish blog. Please try again.", body["message"])
	assert.Len(t, s.media.Objects("blog-images"), 1)
}

func TestBlogQueryValidation(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.get(t, "/api/v1/blogs?category=Gossip")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_field", body["error"])

	resp, _ = s.get(t, "/api/v1/blogs/latest?limit=500")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.get(t, "/api/v1/blogs/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestFavoritesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.get(t, "/api/v1/me/favorites")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/favorites", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	resp, body := s.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestAdminClearCache(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil)
	resp, _ := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, _ = s.do(t, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil)
	req.Header.Set("X-API-Key", "admin-key")
	resp, _ = s.do(t, req)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.get(t, "/api/v1/nothing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}
