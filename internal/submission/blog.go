package submission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/content"
	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/metrics"
	"github.com/bilgisen/estatehub/internal/models"
)

const defaultAuthor = "User"

// BlogStore persists blog posts. A duplicate slug must be reported as an
// error, never overwritten.
type BlogStore interface {
	CreateBlog(ctx context.Context, post *models.BlogPost) (string, error)
}

// Invalidator drops cached read-side data after a publish.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// BlogRequest is one blog submission. Content is the editor body, which
// travels separately from the form.
type BlogRequest struct {
	Form           BlogForm
	Content        string
	FeaturedImage  *media.File
	OwnerID        string
	AuthorName     string
	IdempotencyKey string
}

type BlogService struct {
	validator   *Validator
	uploader    Uploader
	store       BlogStore
	guard       *Guard
	bucket      string
	invalidator Invalidator
	now         func() time.Time
	newID       func() string
	log         zerolog.Logger
}

func NewBlogService(v *Validator, uploader Uploader, store BlogStore, guard *Guard, bucket string) *BlogService {
	return &BlogService{
		validator: v,
		uploader:  uploader,
		store:     store,
		guard:     guard,
		bucket:    bucket,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logger.Component("blog-submission"),
	}
}

// WithInvalidator makes Submit drop read-side caches after each publish.
func (s *BlogService) WithInvalidator(inv Invalidator) *BlogService {
	s.invalidator = inv
	return s
}

// Submit validates the request, uploads the featured image, and stores a
// published post. It returns the post id.
func (s *BlogService) Submit(ctx context.Context, req BlogRequest) (string, error) {
	form := req.Form.Normalize()

	if req.OwnerID == "" {
		return "", ErrOwnerRequired
	}
	if err := s.validator.ValidateBlog(form, req.Content, req.FeaturedImage); err != nil {
		metrics.Submissions.WithLabelValues(string(KindBlog), "rejected").Inc()
		return "", err
	}

	ticket, err := s.guard.Begin(ctx, KindBlog, req.OwnerID, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, ErrSubmissionInProgress) {
			metrics.Submissions.WithLabelValues(string(KindBlog), "busy").Inc()
			return "", err
		}
		return "", &SubmitError{Kind: KindBlog, Err: err}
	}
	defer ticket.Release(ctx)

	if ticket.Replay != "" {
		s.log.Info().
			Str("owner_id", req.OwnerID).
			Str("blog_id", ticket.Replay).
			Msg("Replaying completed blog submission")
		metrics.Submissions.WithLabelValues(string(KindBlog), "replayed").Inc()
		return ticket.Replay, nil
	}

	batch, err := s.uploader.Upload(ctx, []media.File{*req.FeaturedImage}, s.bucket, req.OwnerID)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", req.OwnerID).Msg("Error uploading featured image")
		metrics.Submissions.WithLabelValues(string(KindBlog), "failed").Inc()
		return "", &SubmitError{Kind: KindBlog, Err: err}
	}

	post := s.build(form, req, batch.URLs()[0])
	id, err := s.store.CreateBlog(ctx, post)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("owner_id", req.OwnerID).
			Str("slug", post.Slug).
			Msg("Error publishing blog")
		s.uploader.Discard(ctx, batch)
		metrics.Submissions.WithLabelValues(string(KindBlog), "failed").Inc()
		return "", &SubmitError{Kind: KindBlog, Err: err}
	}

	ticket.Complete(ctx, id)
	metrics.Submissions.WithLabelValues(string(KindBlog), "ok").Inc()
	s.log.Info().
		Str("owner_id", req.OwnerID).
		Str("blog_id", id).
		Str("slug", post.Slug).
		Msg("Blog published")

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate blog cache")
		}
	}
	return id, nil
}

func (s *BlogService) build(form BlogForm, req BlogRequest, imageURL string) *models.BlogPost {
	body := content.Sanitize(req.Content)

	readTime := form.ReadTime
	if readTime == "" {
		readTime = content.EstimateReadTime(body)
	}
	author := req.AuthorName
	if author == "" {
		author = defaultAuthor
	}
	now := s.now().UTC()

	return &models.BlogPost{
		ID:            s.newID(),
		OwnerID:       req.OwnerID,
		Title:         form.Title,
		Slug:          form.Slug,
		Excerpt:       form.Excerpt,
		Content:       body,
		Category:      models.Category(form.Category),
		Author:        author,
		ReadTime:      readTime,
		FeaturedImage: imageURL,
		IsFeatured:    form.Featured,
		Status:        models.BlogPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
