package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bilgisen/estatehub/internal/models"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type Postgres struct {
	db *sqlx.DB
}

// NewPostgres connects, pings and applies the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// listingRow carries the array columns that models.PropertyListing leaves
// to the driver.
type listingRow struct {
	models.PropertyListing
	AmenityList pq.StringArray `db:"amenities"`
	ImageList   pq.StringArray `db:"images"`
}

func (r *listingRow) listing() *models.PropertyListing {
	l := r.PropertyListing
	l.Images = []string(r.ImageList)
	l.Amenities = make([]models.Amenity, len(r.AmenityList))
	for i, a := range r.AmenityList {
		l.Amenities[i] = models.Amenity(a)
	}
	return &l
}

func (p *Postgres) CreateListing(ctx context.Context, l *models.PropertyListing) (string, error) {
	amenities := make([]string, len(l.Amenities))
	for i, a := range l.Amenities {
		amenities[i] = string(a)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO property_listings
			(id, user_id, title, location, city, property_type, bedrooms, bathrooms, square_feet,
			 listing_type, price, amenities, nearby_schools, images, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, l.ID, l.OwnerID, l.Title, l.Location, l.City, l.PropertyType, l.Bedrooms, l.Bathrooms, l.SquareFeet,
		l.ListingType, l.Price, pq.Array(amenities), l.NearbySchools, pq.Array(l.Images), l.Status, l.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert listing: %w", err)
	}
	return l.ID, nil
}

func (p *Postgres) CreateBlog(ctx context.Context, post *models.BlogPost) (string, error) {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO blogs
			(id, user_id, title, slug, excerpt, content, category, author, read_time,
			 featured_image, is_featured, status, created_at, updated_at)
		VALUES
			(:id, :user_id, :title, :slug, :excerpt, :content, :category, :author, :read_time,
			 :featured_image, :is_featured, :status, :created_at, :updated_at)
	`, post)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", fmt.Errorf("blog %q: %w", post.Slug, ErrSlugConflict)
		}
		return "", fmt.Errorf("insert blog: %w", err)
	}
	return post.ID, nil
}

func (p *Postgres) ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error) {
	var posts []*models.BlogPost
	err := p.db.SelectContext(ctx, &posts, `
		SELECT * FROM blogs
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, models.BlogPublished, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("select blogs: %w", err)
	}
	return posts, nil
}

func (p *Postgres) ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error) {
	var rows []listingRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT * FROM property_listings
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, models.ListingActive, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}

	listings := make([]*models.PropertyListing, len(rows))
	for i := range rows {
		listings[i] = rows[i].listing()
	}
	return listings, nil
}

func (p *Postgres) GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := p.db.GetContext(ctx, &post, `SELECT * FROM blogs WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blog %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select blog: %w", err)
	}
	return &post, nil
}

// sqlLimit maps "no limit" to NULL, which LIMIT treats as ALL.
func sqlLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
