package models

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PropertyType is the closed set of property kinds a listing can describe.
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyStudio     PropertyType = "studio"
	PropertyCommercial PropertyType = "commercial"
)

// ListingType tells whether a listing is for sale or for rent.
type ListingType string

const (
	ListingBuy  ListingType = "Buy"
	ListingRent ListingType = "Rent"
)

// ListingStatus controls visibility of a listing on the public side.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
)

// Amenity is one entry of the fixed amenity vocabulary.
type Amenity string

const (
	AmenityParking    Amenity = "parking"
	AmenityGarden     Amenity = "garden"
	AmenityGym        Amenity = "gym"
	AmenityPool       Amenity = "pool"
	AmenitySecurity   Amenity = "security"
	AmenityWifi       Amenity = "wifi"
	AmenityFurnished  Amenity = "furnished"
	AmenityElevator   Amenity = "elevator"
	AmenityLibrary    Amenity = "library"
	AmenityBeachfront Amenity = "beachfront"
)

// Amenities is the full vocabulary in display order.
var Amenities = []Amenity{
	AmenityParking, AmenityGarden, AmenityGym, AmenityPool, AmenitySecurity,
	AmenityWifi, AmenityFurnished, AmenityElevator, AmenityLibrary, AmenityBeachfront,
}

// SelectAmenities returns the vocabulary entries present in selected,
// in vocabulary order. Unknown names are dropped.
func SelectAmenities(selected []string) []Amenity {
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}

	out := make([]Amenity, 0, len(set))
	for _, a := range Amenities {
		if _, ok := set[string(a)]; ok {
			out = append(out, a)
		}
	}
	return out
}

// PropertyListing is a property record as stored by the persistence layer.
type PropertyListing struct {
	ID            string        `json:"id" db:"id" bson:"_id"`
	OwnerID       string        `json:"user_id" db:"user_id" bson:"user_id"`
	Title         string        `json:"title" db:"title" bson:"title"`
	Location      string        `json:"location" db:"location" bson:"location"`
	City          string        `json:"city" db:"city" bson:"city"`
	PropertyType  PropertyType  `json:"property_type" db:"property_type" bson:"property_type"`
	Bedrooms      int           `json:"bedrooms" db:"bedrooms" bson:"bedrooms"`
	Bathrooms     int           `json:"bathrooms" db:"bathrooms" bson:"bathrooms"`
	SquareFeet    *int          `json:"square_feet" db:"square_feet" bson:"square_feet"`
	ListingType   ListingType   `json:"listing_type" db:"listing_type" bson:"listing_type"`
	Price         float64       `json:"price" db:"price" bson:"price"`
	Amenities     []Amenity     `json:"amenities" db:"-" bson:"amenities"`
	NearbySchools bool          `json:"nearby_schools" db:"nearby_schools" bson:"nearby_schools"`
	Images        []string      `json:"images" db:"-" bson:"images"`
	Status        ListingStatus `json:"status" db:"status" bson:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at" bson:"created_at"`
}

var pricePrinter = message.NewPrinter(language.English)

// PriceDisplay renders the price the way listing cards show it:
// "$450,000" for sales and "$2,500/month" for rentals.
func (p *PropertyListing) PriceDisplay() string {
	s := "$" + pricePrinter.Sprint(number.Decimal(p.Price, number.MaxFractionDigits(2)))
	if p.ListingType == ListingRent {
		s += "/month"
	}
	return s
}

// CoverImage returns the first image or the placeholder used by listing cards.
func (p *PropertyListing) CoverImage() string {
	if len(p.Images) == 0 {
		return "/placeholder.svg"
	}
	return p.Images[0]
}
