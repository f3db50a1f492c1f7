package query

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/estatehub/internal/cache"
	"github.com/bilgisen/estatehub/internal/models"
)

func corpus() []*models.BlogPost {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(i int, title, excerpt string, cat models.Category, featured bool) *models.BlogPost {
		return &models.BlogPost{
			ID:         fmt.Sprint(i),
			Slug:       fmt.Sprintf("post-%d", i),
			Title:      title,
			Excerpt:    excerpt,
			Category:   cat,
			IsFeatured: featured,
			Status:     models.BlogPublished,
			CreatedAt:  base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return []*models.BlogPost{
		mk(0, "First-time Buyer Checklist", "Ten steps", models.CategoryBuying, true),
		mk(1, "Renting with Pets", "What landlords expect", models.CategoryRenting, false),
		mk(2, "REITs explained", "Investing without a mortgage", models.CategoryInvesting, false),
		mk(3, "Lease clauses", "Read before you sign", models.CategoryLegal, true),
		mk(4, "Staging tips", "Sell faster", models.CategoryTips, false),
		mk(5, "Mortgage basics", "Fixed or variable", models.CategoryBuying, false),
		mk(6, "Moving day", "A buyer's guide to movers", models.CategoryTips, false),
	}
}

func ids(posts []*models.BlogPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestListAllPartitionsEverything(t *testing.T) {
	all := corpus()
	for _, cat := range []models.Category{models.CategoryAll, ""} {
		p := List(all, "", cat)

		assert.Equal(t, []string{"0", "3"}, ids(p.Featured))
		assert.Equal(t, []string{"1", "2", "4", "5", "6"}, ids(p.Regular))
		assert.Len(t, append(p.Featured, p.Regular...), len(all))
		assert.Equal(t, "0", p.Hero().ID)
	}
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	all := corpus()

	p := List(all, "MORTGAGE", models.CategoryAll)
	// Title match on 5, excerpt match on 2.
	assert.Equal(t, []string{"2", "5"}, ids(p.Regular))
	assert.Empty(t, p.Featured)
	assert.Nil(t, p.Hero())

	p = List(all, "buyer", models.CategoryAll)
	assert.Equal(t, []string{"0"}, ids(p.Featured))
	assert.Equal(t, []string{"6"}, ids(p.Regular))
}

func TestListCategoryAndSearchCombine(t *testing.T) {
	all := corpus()

	p := List(all, "buyer", models.CategoryTips)
	assert.Empty(t, p.Featured)
	assert.Equal(t, []string{"6"}, ids(p.Regular))

	p = List(all, "", models.CategoryLegal)
	assert.Equal(t, []string{"3"}, ids(p.Featured))
	assert.Empty(t, p.Regular)

	// Category must match exactly.
	p = List(all, "", models.Category("legal"))
	assert.Empty(t, p.Featured)
	assert.Empty(t, p.Regular)
}

func TestListPopularIgnoresFilters(t *testing.T) {
	all := corpus()
	for _, search := range []string{"", "nothing matches this", "mortgage"} {
		p := List(all, search, models.CategoryLegal)
		assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids(p.Popular))
	}

	p := List(all[:2], "", models.CategoryAll)
	assert.Equal(t, []string{"0", "1"}, ids(p.Popular))

	p = List(nil, "", models.CategoryAll)
	assert.Empty(t, p.Popular)
	assert.NotNil(t, p.Featured)
	assert.NotNil(t, p.Regular)
}

type fakeSource struct {
	posts    []*models.BlogPost
	listings []*models.PropertyListing
	calls    int
	err      error
}

func (f *fakeSource) ListPublishedBlogs(ctx context.Context, limit int) ([]*models.BlogPost, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeSource) ListActiveListings(ctx context.Context, limit int) ([]*models.PropertyListing, error) {
	if limit > 0 && len(f.listings) > limit {
		return f.listings[:limit], nil
	}
	return f.listings, nil
}

func (f *fakeSource) GetBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func TestServiceCachesCorpus(t *testing.T) {
	src := &fakeSource{posts: corpus()}
	svc := NewService(src, cache.NewMockRedisClient(), time.Minute)
	ctx := context.Background()

	p, err := svc.Browse(ctx, "", models.CategoryAll)
	require.NoError(t, err)
	assert.Len(t, p.Popular, PopularCount)

	latest, err := svc.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, ids(latest))
	assert.Equal(t, 1, src.calls)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Browse(ctx, "tips", models.CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestServiceWithoutCache(t *testing.T) {
	src := &fakeSource{posts: corpus()[:2]}
	svc := NewService(src, nil, time.Minute)

	latest, err := svc.Latest(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
	require.NoError(t, svc.Invalidate(context.Background()))

	src.err = errors.New("db down")
	_, err = svc.Browse(context.Background(), "", models.CategoryAll)
	assert.ErrorIs(t, err, src.err)
}

func TestServiceListingCards(t *testing.T) {
	var listings []*models.PropertyListing
	for i := 0; i < 8; i++ {
		listings = append(listings, &models.PropertyListing{
			ID:          fmt.Sprint(i),
			ListingType: models.ListingBuy,
			Price:       450000,
			Status:      models.ListingActive,
		})
	}
	listings[1].ListingType = models.ListingRent
	listings[1].Price = 2500
	listings[1].Images = []string{"https://cdn.test/1.jpg"}

	svc := NewService(&fakeSource{listings: listings}, nil, 0)

	featured, err := svc.FeaturedListings(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, featured, DefaultFeatured)
	assert.Equal(t, "$450,000", featured[0].DisplayPrice)
	assert.Equal(t, "/placeholder.svg", featured[0].Cover)
	assert.Equal(t, "$2,500/month", featured[1].DisplayPrice)
	assert.Equal(t, "https://cdn.test/1.jpg", featured[1].Cover)

	favorites, err := svc.Favorites(context.Background())
	require.NoError(t, err)
	assert.Len(t, favorites, FavoritesCount)
}
