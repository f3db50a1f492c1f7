// Package submission turns submitted forms and local media into stored
// listings and blog posts.
package submission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/metrics"
	"github.com/bilgisen/estatehub/internal/models"
)

// Uploader stores a batch of files and discards batches whose record was
// never written.
type Uploader interface {
	Upload(ctx context.Context, files []media.File, bucket, ownerID string) (*media.Batch, error)
	Discard(ctx context.Context, batch *media.Batch)
}

// ListingStore persists property listings.
type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.PropertyListing) (string, error)
}

// ListingRequest is one property submission.
type ListingRequest struct {
	Form           ListingForm
	Images         []media.File
	OwnerID        string
	IdempotencyKey string
}

type ListingService struct {
	validator *Validator
	uploader  Uploader
	store     ListingStore
	guard     *Guard
	bucket    string
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger
}

func NewListingService(v *Validator, uploader Uploader, store ListingStore, guard *Guard, bucket string) *ListingService {
	return &ListingService{
		validator: v,
		uploader:  uploader,
		store:     store,
		guard:     guard,
		bucket:    bucket,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logger.Component("listing-submission"),
	}
}

// Submit validates the request, uploads its images in order, and stores an
// active listing. It returns the listing id.
func (s *ListingService) Submit(ctx context.Context, req ListingRequest) (string, error) {
	form := req.Form.Normalize()

	if req.OwnerID == "" {
		return "", ErrOwnerRequired
	}
	if err := s.validator.ValidateListing(form, req.Images); err != nil {
		metrics.Submissions.WithLabelValues(string(KindListing), "rejected").Inc()
		return "", err
	}

	ticket, err := s.guard.Begin(ctx, KindListing, req.OwnerID, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, ErrSubmissionInProgress) {
			metrics.Submissions.WithLabelValues(string(KindListing), "busy").Inc()
			return "", err
		}
		return "", &SubmitError{Kind: KindListing, Err: err}
	}
	defer ticket.Release(ctx)

	if ticket.Replay != "" {
		s.log.Info().
			Str("owner_id", req.OwnerID).
			Str("listing_id", ticket.Replay).
			Msg("Replaying completed listing submission")
		metrics.Submissions.WithLabelValues(string(KindListing), "replayed").Inc()
		return ticket.Replay, nil
	}

	var batch *media.Batch
	if len(req.Images) > 0 {
		batch, err = s.uploader.Upload(ctx, req.Images, s.bucket, req.OwnerID)
		if err != nil {
			s.log.Error().Err(err).Str("owner_id", req.OwnerID).Msg("Error uploading property images")
			metrics.Submissions.WithLabelValues(string(KindListing), "failed").Inc()
			return "", &SubmitError{Kind: KindListing, Err: err}
		}
	}

	listing := s.build(form, req.OwnerID, batch.URLs())
	id, err := s.store.CreateListing(ctx, listing)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", req.OwnerID).Msg("Error listing property")
		s.uploader.Discard(ctx, batch)
		metrics.Submissions.WithLabelValues(string(KindListing), "failed").Inc()
		return "", &SubmitError{Kind: KindListing, Err: err}
	}

	ticket.Complete(ctx, id)
	metrics.Submissions.WithLabelValues(string(KindListing), "ok").Inc()
	s.log.Info().
		Str("owner_id", req.OwnerID).
		Str("listing_id", id).
		Int("images", len(listing.Images)).
		Msg("Property listed")
	return id, nil
}

func (s *ListingService) build(form ListingForm, ownerID string, images []string) *models.PropertyListing {
	var bedrooms, bathrooms int
	if n, ok := parseCount(form.Beds); ok {
		bedrooms = n
	}
	if n, ok := parseCount(form.Baths); ok {
		bathrooms = n
	}
	var sqft *int
	if n, ok := parseCount(form.Sqft); ok {
		sqft = &n
	}
	price, _ := parsePrice(form.Price)

	return &models.PropertyListing{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Title:         form.Title,
		Location:      form.Location,
		City:          form.City,
		PropertyType:  models.PropertyType(form.PropertyType),
		Bedrooms:      bedrooms,
		Bathrooms:     bathrooms,
		SquareFeet:    sqft,
		ListingType:   models.ListingType(form.ListingType),
		Price:         price,
		Amenities:     models.SelectAmenities(form.Amenities),
		NearbySchools: form.NearbySchools,
		Images:        images,
		Status:        models.ListingActive,
		CreatedAt:     s.now().UTC(),
	}
}
