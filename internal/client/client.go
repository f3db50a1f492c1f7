// Package client talks to the estatehub HTTP API. Its submitters plug into
// dashboard.Controller so the CLI runs the same flow as the web dashboard.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/query"
	"github.com/bilgisen/estatehub/internal/submission"
)

var ErrUnauthorized = errors.New("unauthorized")

// RemoteError is a failure reported by the server.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type createdBody struct {
	ID string `json:"id"`
}

// Client validates submissions locally, then sends them to the API.
type Client struct {
	http      *resty.Client
	validator *submission.Validator
}

func New(baseURL, token string, limits submission.Limits) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api/v1").
		SetTimeout(2 * time.Minute).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		// Uploads consume their readers, so only reads are retried.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request.Method != resty.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= 500
		})
	if token != "" {
		hc.SetAuthToken(token)
	}
	return &Client{http: hc, validator: submission.NewValidator(limits)}
}

// Listings submits property listings.
type Listings struct{ *Client }

// Blogs submits blog posts.
type Blogs struct{ *Client }

func (l Listings) Submit(ctx context.Context, req submission.ListingRequest) (string, error) {
	form := req.Form.Normalize()
	if err := l.validator.ValidateListing(form, req.Images); err != nil {
		return "", err
	}

	values := url.Values{
		"title":        {form.Title},
		"location":     {form.Location},
		"city":         {form.City},
		"propertyType": {form.PropertyType},
		"beds":         {form.Beds},
		"baths":        {form.Baths},
		"sqft":         {form.Sqft},
		"type":         {form.ListingType},
		"price":        {form.Price},
		"amenities":    form.Amenities,
	}
	if form.NearbySchools {
		values.Set("nearbySchools", "on")
	}

	r := l.http.R().SetContext(ctx).SetFormDataFromValues(values)
	closeAll, err := attach(r, "images", req.Images...)
	if err != nil {
		return "", &submission.SubmitError{Kind: submission.KindListing, Err: err}
	}
	defer closeAll()

	return l.send(r, req.IdempotencyKey, "/properties", submission.KindListing)
}

func (b Blogs) Submit(ctx context.Context, req submission.BlogRequest) (string, error) {
	form := req.Form.Normalize()
	if err := b.validator.ValidateBlog(form, req.Content, req.FeaturedImage); err != nil {
		return "", err
	}

	values := url.Values{
		"blogTitle": {form.Title},
		"slug":      {form.Slug},
		"excerpt":   {form.Excerpt},
		"category":  {form.Category},
		"readTime":  {form.ReadTime},
		"featured":  {strconv.FormatBool(form.Featured)},
		"content":   {req.Content},
	}

	r := b.http.R().SetContext(ctx).SetFormDataFromValues(values)
	closeAll, err := attach(r, "featured_image", *req.FeaturedImage)
	if err != nil {
		return "", &submission.SubmitError{Kind: submission.KindBlog, Err: err}
	}
	defer closeAll()

	return b.send(r, req.IdempotencyKey, "/blogs", submission.KindBlog)
}

// Favorites loads the favorites view of the token's user.
func (c *Client) Favorites(ctx context.Context) ([]query.ListingCard, error) {
	var result struct {
		Items []query.ListingCard `json:"items"`
	}
	var failure errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&failure).
		Get("/me/favorites")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}
	if resp.IsError() {
		return nil, remoteError(resp.StatusCode(), failure)
	}
	return result.Items, nil
}

func (c *Client) send(r *resty.Request, idempotencyKey, path string, kind submission.Kind) (string, error) {
	if idempotencyKey != "" {
		r.SetHeader("Idempotency-Key", idempotencyKey)
	}

	var created createdBody
	var failure errorBody
	resp, err := r.SetResult(&created).SetError(&failure).Post(path)
	if err != nil {
		return "", &submission.SubmitError{Kind: kind, Err: err}
	}
	if resp.IsSuccess() {
		return created.ID, nil
	}
	return "", decodeFailure(resp.StatusCode(), failure, kind)
}

// decodeFailure rebuilds the error the server-side service returned.
func decodeFailure(status int, body errorBody, kind submission.Kind) error {
	sentinels := map[string]error{
		"media_required":   submission.ErrMediaRequired,
		"content_required": submission.ErrContentRequired,
		"invalid_field":    submission.ErrInvalidField,
		"media_too_large":  submission.ErrMediaTooLarge,
	}
	if sentinel, ok := sentinels[body.Error]; ok {
		return &submission.ValidationError{
			Err:         sentinel,
			Field:       body.Field,
			Title:       body.Title,
			Description: body.Message,
		}
	}
	if body.Error == "submission_in_progress" {
		return submission.ErrSubmissionInProgress
	}
	return &submission.SubmitError{Kind: kind, Err: remoteError(status, body)}
}

func remoteError(status int, body errorBody) error {
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, body.Message)
	}
	code := body.Error
	if code == "" {
		code = http.StatusText(status)
	}
	return &RemoteError{Status: status, Code: code, Message: body.Message}
}

// attach adds files as multipart parts under param. The returned func
// closes every opened file.
func attach(r *resty.Request, param string, files ...media.File) (func(), error) {
	var opened []io.Closer
	closeAll := func() {
		for _, c := range opened {
			c.Close()
		}
	}

	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		opened = append(opened, rc)
		r.SetFileReader(param, f.Name, rc)
	}
	return closeAll, nil
}
