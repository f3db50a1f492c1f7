package query

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/metrics"
	"github.com/bilgisen/estatehub/internal/models"
)

const (
	corpusKey   = "blogs:published"
	corpusScope = "blogs:"

	DefaultLatest   = 3
	DefaultFeatured = 4
	FavoritesCount  = 6
)

// Source is the read side of the persistence layer.
type Source interface {
	ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error)
	ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error)
	GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
}

// ListingCard is a listing as shown on preview cards.
type ListingCard struct {
	*models.PropertyListing
	DisplayPrice string `json:"price_display"`
	Cover        string `json:"cover_image"`
}

func newCard(l *models.PropertyListing) ListingCard {
	return ListingCard{PropertyListing: l, DisplayPrice: l.PriceDisplay(), Cover: l.CoverImage()}
}

type Service struct {
	source Source
	cache  cache.Store
	ttl    time.Duration
	log    zerolog.Logger
}

// NewService returns a Service that caches the published corpus for ttl.
// A nil cache disables caching.
func NewService(source Source, store cache.Store, ttl time.Duration) *Service {
	return &Service{
		source: source,
		cache:  store,
		ttl:    ttl,
		log:    logger.Component("query"),
	}
}

// Browse returns the filtered, partitioned blog view.
func (s *Service) Browse(ctx context.Context, search string, category models.Category) (Partition, error) {
	all, err := s.corpus(ctx)
	if err != nil {
		return Partition{}, err
	}
	return List(all, search, category), nil
}

// Latest returns the n newest posts; n <= 0 means DefaultLatest.
func (s *Service) Latest(ctx context.Context, n int) ([]*models.BlogPost, error) {
	if n <= 0 {
		n = DefaultLatest
	}
	all, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}
	return all[:min(n, len(all))], nil
}

func (s *Service) Post(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.source.GetBlogBySlug(ctx, slug)
}

// FeaturedListings returns the n newest active listings; n <= 0 means
// DefaultFeatured.
func (s *Service) FeaturedListings(ctx context.Context, n int) ([]ListingCard, error) {
	if n <= 0 {
		n = DefaultFeatured
	}
	return s.cards(ctx, n)
}

// Favorites returns the listings shown in the dashboard's favorites view.
func (s *Service) Favorites(ctx context.Context) ([]ListingCard, error) {
	return s.cards(ctx, FavoritesCount)
}

// Invalidate drops the cached corpus.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx, corpusScope)
}

func (s *Service) cards(ctx context.Context, n int) ([]ListingCard, error) {
	listings, err := s.source.ListActiveListings(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	cards := make([]ListingCard, len(listings))
	for i, l := range listings {
		cards[i] = newCard(l)
	}
	return cards, nil
}

// corpus loads every published post, newest first. Cache failures fall
// through to the source.
func (s *Service) corpus(ctx context.Context) ([]*models.BlogPost, error) {
	if s.cache != nil {
		var cached []*models.BlogPost
		found, err := s.cache.GetJSON(ctx, corpusKey, &cached)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("Failed to read blog cache")
			metrics.QueryCache.WithLabelValues("error").Inc()
		case found:
			metrics.QueryCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.QueryCache.WithLabelValues("miss").Inc()
		}
	}

	posts, err := s.source.ListPublishedBlogs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list published blogs: %w", err)
	}
	if posts == nil {
		posts = []*models.BlogPost{}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, corpusKey, posts, s.ttl); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache blogs")
		}
	}
	return posts, nil
}
