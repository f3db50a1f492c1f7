package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bilgisen/estatehub/internal/config"
	"github.com/bilgisen/estatehub/internal/models"
)

var (
	// ErrSlugConflict is returned when a blog post's slug is already taken.
	ErrSlugConflict = errors.New("slug already exists")
	ErrNotFound     = errors.New("not found")
)

// Repository persists listings and blog posts. List methods return records
// newest first; a limit of zero or less means no limit.
type Repository interface {
	CreateListing(ctx context.Context, listing *models.PropertyListing) (string, error)
	CreateBlog(ctx context.Context, post *models.BlogPost) (string, error)
	ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error)
	ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error)
	GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Close() error
}

// Open picks a backend from cfg: postgres when DATABASE_URL is set, mongo
// when MONGO_URI is set, JSON files under STORAGE_PATH otherwise.
func Open(ctx context.Context, cfg *config.Config) (Repository, error) {
	switch {
	case cfg.DatabaseURL != "":
		repo, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return repo, nil
	case cfg.MongoURI != "":
		repo, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return repo, nil
	default:
		return NewFileStore(cfg.StoragePath)
	}
}
