package submission

import (
	"math"
	"strconv"
	"strings"
)

// ListingForm is the property form as submitted: every value is raw text
// except the checkbox-backed fields.
type ListingForm struct {
	Title         string   `json:"title" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	City          string   `json:"city" validate:"required"`
	PropertyType  string   `json:"propertyType" validate:"required,oneof=apartment house villa studio commercial"`
	Beds          string   `json:"beds"`
	Baths         string   `json:"baths"`
	Sqft          string   `json:"sqft"`
	ListingType   string   `json:"type" validate:"required,oneof=Buy Rent"`
	Price         string   `json:"price" validate:"required"`
	Amenities     []string `json:"amenities"`
	NearbySchools bool     `json:"nearbySchools"`
}

// Normalize returns a copy with surrounding whitespace removed.
func (f ListingForm) Normalize() ListingForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	f.City = strings.TrimSpace(f.City)
	f.PropertyType = strings.TrimSpace(f.PropertyType)
	f.Beds = strings.TrimSpace(f.Beds)
	f.Baths = strings.TrimSpace(f.Baths)
	f.Sqft = strings.TrimSpace(f.Sqft)
	f.ListingType = strings.TrimSpace(f.ListingType)
	f.Price = strings.TrimSpace(f.Price)
	amenities := make([]string, 0, len(f.Amenities))
	for _, a := range f.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	f.Amenities = amenities
	return f
}

// BlogForm is the blog form minus the rich-text body and the image, which
// arrive separately.
type BlogForm struct {
	Title    string `json:"blogTitle" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	Excerpt  string `json:"excerpt" validate:"required"`
	Category string `json:"category" validate:"required,oneof=Buying Renting Investing Legal Tips"`
	ReadTime string `json:"readTime"`
	Featured bool   `json:"featured"`
}

func (f BlogForm) Normalize() BlogForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Excerpt = strings.TrimSpace(f.Excerpt)
	f.Category = strings.TrimSpace(f.Category)
	f.ReadTime = strings.TrimSpace(f.ReadTime)
	return f
}

// parseCount reads a non-negative whole number. Fractions are truncated;
// anything unreadable yields ok=false.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// parsePrice reads a finite, non-negative decimal.
func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
