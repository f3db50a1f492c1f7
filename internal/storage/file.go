package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bilgisen/estatehub/internal/models"
)

const (
	propertiesDir = "properties"
	blogsDir      = "blogs"
)

// FileStore keeps each record as a JSON file under a dated directory
// (base/kind/YYYY/MM/DD). It suits single-instance deployments and local
// development.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
	slugs    map[string]string // slug -> file path
}

func NewFileStore(basePath string) (*FileStore, error) {
	for _, dir := range []string{propertiesDir, blogsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	s := &FileStore{
		basePath: basePath,
		slugs:    make(map[string]string),
	}

	// Rebuild the slug index from disk
	err := s.walk(blogsDir, func(path string, data []byte) error {
		var post models.BlogPost
		if err := json.Unmarshal(data, &post); err != nil {
			return fmt.Errorf("failed to unmarshal blog post %s: %w", path, err)
		}
		s.slugs[post.Slug] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) CreateListing(ctx context.Context, listing *models.PropertyListing) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.write(propertiesDir, listing.ID, listing.CreatedAt.Format("2006/01/02"), listing); err != nil {
		return "", err
	}
	return listing.ID, nil
}

func (s *FileStore) CreateBlog(ctx context.Context, post *models.BlogPost) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[post.Slug]; taken {
		return "", fmt.Errorf("blog %q: %w", post.Slug, ErrSlugConflict)
	}

	path, err := s.write(blogsDir, post.ID, post.CreatedAt.Format("2006/01/02"), post)
	if err != nil {
		return "", err
	}
	s.slugs[post.Slug] = path
	return post.ID, nil
}

func (s *FileStore) ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []*models.BlogPost
	err := s.walk(blogsDir, func(path string, data []byte) error {
		var post models.BlogPost
		if err := json.Unmarshal(data, &post); err != nil {
			return fmt.Errorf("error unmarshaling blog post %s: %w", path, err)
		}
		if post.Status == models.BlogPublished {
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return truncate(posts, limit), nil
}

func (s *FileStore) ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listings []*models.PropertyListing
	err := s.walk(propertiesDir, func(path string, data []byte) error {
		var l models.PropertyListing
		if err := json.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("error unmarshaling listing %s: %w", path, err)
		}
		if l.Status == models.ListingActive {
			listings = append(listings, &l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return truncate(listings, limit), nil
}

func (s *FileStore) GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.slugs[slug]
	if !ok {
		return nil, fmt.Errorf("blog %q: %w", slug, ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	var post models.BlogPost
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog post: %w", err)
	}
	return &post, nil
}

// write must be called with s.mu held.
func (s *FileStore) write(kind, id, day string, v any) (string, error) {
	datePath := filepath.Join(s.basePath, kind, day)
	if err := os.MkdirAll(datePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s record: %w", kind, err)
	}

	// Write to a temp file first so readers never see a partial record
	filePath := filepath.Join(datePath, id+".json")
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", kind, err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s file: %w", kind, err)
	}
	return filePath, nil
}

func (s *FileStore) walk(kind string, fn func(path string, data []byte) error) error {
	err := filepath.WalkDir(filepath.Join(s.basePath, kind), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		return fn(path, data)
	})
	if err != nil {
		return fmt.Errorf("error walking the path: %w", err)
	}
	return nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
