package models

import "time"

// Category is the closed set of blog categories.
type Category string

const (
	CategoryBuying    Category = "Buying"
	CategoryRenting   Category = "Renting"
	CategoryInvesting Category = "Investing"
	CategoryLegal     Category = "Legal"
	CategoryTips      Category = "Tips"

	// CategoryAll is a filter value, never stored on a post.
	CategoryAll Category = "All"
)

// Categories lists the storable categories in menu order.
var Categories = []Category{CategoryBuying, CategoryRenting, CategoryInvesting, CategoryLegal, CategoryTips}

// BlogStatus controls visibility of a post.
type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
)

// BlogPost is a blog article as stored by the persistence layer.
type BlogPost struct {
	ID            string     `json:"id" db:"id" bson:"_id"`
	OwnerID       string     `json:"user_id" db:"user_id" bson:"user_id"`
	Title         string     `json:"title" db:"title" bson:"title"`
	Slug          string     `json:"slug" db:"slug" bson:"slug"`
	Excerpt       string     `json:"excerpt" db:"excerpt" bson:"excerpt"`
	Content       string     `json:"content" db:"content" bson:"content"`
	Category      Category   `json:"category" db:"category" bson:"category"`
	Author        string     `json:"author" db:"author" bson:"author"`
	ReadTime      string     `json:"read_time" db:"read_time" bson:"read_time"`
	FeaturedImage string     `json:"featured_image" db:"featured_image" bson:"featured_image"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured" bson:"is_featured"`
	Status        BlogStatus `json:"status" db:"status" bson:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at" bson:"updated_at"`
}
