package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bilgisen/estatehub/internal/models"
)

const connectTimeout = 10 * time.Second

type Mongo struct {
	client   *mongo.Client
	listings *mongo.Collection
	blogs    *mongo.Collection
}

// NewMongo connects, pings and ensures the slug and listing indexes.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		listings: db.Collection("property_listings"),
		blogs:    db.Collection("blogs"),
	}

	_, err = m.blogs.Indexes().CreateMany(cctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err == nil {
		_, err = m.listings.Indexes().CreateOne(cctx, mongo.IndexModel{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		})
	}
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return m, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) CreateListing(ctx context.Context, l *models.PropertyListing) (string, error) {
	if _, err := m.listings.InsertOne(ctx, l); err != nil {
		return "", fmt.Errorf("insert listing: %w", err)
	}
	return l.ID, nil
}

func (m *Mongo) CreateBlog(ctx context.Context, post *models.BlogPost) (string, error) {
	if _, err := m.blogs.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("blog %q: %w", post.Slug, ErrSlugConflict)
		}
		return "", fmt.Errorf("insert blog: %w", err)
	}
	return post.ID, nil
}

func (m *Mongo) ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error) {
	var posts []*models.BlogPost
	if err := m.find(ctx, m.blogs, bson.M{"status": models.BlogPublished}, limit, &posts); err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	return posts, nil
}

func (m *Mongo) ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error) {
	var listings []*models.PropertyListing
	if err := m.find(ctx, m.listings, bson.M{"status": models.ListingActive}, limit, &listings); err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	return listings, nil
}

func (m *Mongo) GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := m.blogs.FindOne(ctx, bson.M{"slug": slug}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("blog %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return &post, nil
}

func (m *Mongo) find(ctx context.Context, coll *mongo.Collection, filter bson.M, limit int, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
