// Package query serves the read side: blog browsing with search and
// category filters, and listing previews.
package query

import (
	"strings"

	"github.com/bilgisen/estatehub/internal/models"
)

// PopularCount is how many of the newest posts are shown as popular.
const PopularCount = 5

// Partition is the blog browsing view.
type Partition struct {
	Featured []*models.BlogPost `json:"featured"`
	Regular  []*models.BlogPost `json:"regular"`
	Popular  []*models.BlogPost `json:"popular"`
}

// Hero is the post shown prominently, the first featured one.
func (p Partition) Hero() *models.BlogPost {
	if len(p.Featured) == 0 {
		return nil
	}
	return p.Featured[0]
}

// List filters all by search term and category and partitions the result.
// all must already be sorted newest first; order is preserved. Popular
// ignores the filters.
func List(all []*models.BlogPost, search string, category models.Category) Partition {
	term := strings.ToLower(search)
	p := Partition{
		Featured: []*models.BlogPost{},
		Regular:  []*models.BlogPost{},
	}

	for _, post := range all {
		if !matchesSearch(post, term) || !matchesCategory(post, category) {
			continue
		}
		if post.IsFeatured {
			p.Featured = append(p.Featured, post)
		} else {
			p.Regular = append(p.Regular, post)
		}
	}

	n := min(len(all), PopularCount)
	p.Popular = append([]*models.BlogPost{}, all[:n]...)
	return p
}

func matchesSearch(post *models.BlogPost, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(post.Title), term) ||
		strings.Contains(strings.ToLower(post.Excerpt), term)
}

func matchesCategory(post *models.BlogPost, category models.Category) bool {
	return category == "" || category == models.CategoryAll || post.Category == category
}
