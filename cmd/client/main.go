// Command client drives the content dashboard from a terminal.
//
//	client list-property -title "Harbor loft" -location "12 Harbor St" -city Lisbon \
//	    -property-type apartment -type Rent -price 2500 -amenity parking -image a.jpg
//	client create-blog -title "Moving Day" -excerpt "Boxes" -category Tips \
//	    -content-file post.html -image cover.png
//	client favorites
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bilgisen/estatehub/internal/client"
	"github.com/bilgisen/estatehub/internal/config"
	"github.com/bilgisen/estatehub/internal/dashboard"
	"github.com/bilgisen/estatehub/internal/logger"
	"github.com/bilgisen/estatehub/internal/media"
	"github.com/bilgisen/estatehub/internal/middleware"
	"github.com/bilgisen/estatehub/internal/submission"
)

// listFlag collects a repeated string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s list-property|create-blog|favorites [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Output: "stderr", Pretty: true}); err != nil {
		panic(err)
	}
	log := logger.Get()

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	userID := fs.String("user", "cli-user", "user id the token is minted for")
	userName := fs.String("name", "", "display name of the user")
	key := fs.String("idempotency-key", "", "idempotency key (random when empty)")
	var images listFlag
	fs.Var(&images, "image", "image file (repeatable)")

	var run func(ctx context.Context, ctl *dashboard.Controller, idemKey string) (dashboard.Notice, error)

	switch os.Args[1] {
	case "list-property":
		var form submission.ListingForm
		var amenities listFlag
		fs.StringVar(&form.Title, "title", "", "listing title")
		fs.StringVar(&form.Location, "location", "", "street address")
		fs.StringVar(&form.City, "city", "", "city")
		fs.StringVar(&form.PropertyType, "property-type", "", "apartment, house, villa, studio or commercial")
		fs.StringVar(&form.Beds, "beds", "", "bedrooms")
		fs.StringVar(&form.Baths, "baths", "", "bathrooms")
		fs.StringVar(&form.Sqft, "sqft", "", "square feet")
		fs.StringVar(&form.ListingType, "type", "", "Buy or Rent")
		fs.StringVar(&form.Price, "price", "", "price")
		fs.BoolVar(&form.NearbySchools, "nearby-schools", false, "schools nearby")
		fs.Var(&amenities, "amenity", "amenity (repeatable)")

		run = func(ctx context.Context, ctl *dashboard.Controller, idemKey string) (dashboard.Notice, error) {
			form.Amenities = amenities
			return ctl.SubmitListing(ctx, form, idemKey)
		}

	case "create-blog":
		var form submission.BlogForm
		slugFlag := fs.String("slug", "", "slug (derived from the title when empty)")
		content := fs.String("content", "", "HTML body")
		contentFile := fs.String("content-file", "", "file holding the HTML body")
		fs.StringVar(&form.Title, "title", "", "post title")
		fs.StringVar(&form.Excerpt, "excerpt", "", "excerpt")
		fs.StringVar(&form.Category, "category", "", "Buying, Renting, Investing, Legal or Tips")
		fs.StringVar(&form.ReadTime, "read-time", "", "read time, estimated when empty")
		fs.BoolVar(&form.Featured, "featured", false, "feature the post")

		run = func(ctx context.Context, ctl *dashboard.Controller, idemKey string) (dashboard.Notice, error) {
			ctl.SetBlogTitle(form.Title)
			if *slugFlag != "" {
				ctl.SetBlogSlug(*slugFlag)
			}
			body := *content
			if *contentFile != "" {
				data, err := os.ReadFile(*contentFile)
				if err != nil {
					return dashboard.Notice{}, fmt.Errorf("read content: %w", err)
				}
				body = string(data)
			}
			ctl.SetContent(body)
			return ctl.SubmitBlog(ctx, form, idemKey)
		}

	case "favorites":
		run = func(ctx context.Context, ctl *dashboard.Controller, _ string) (dashboard.Notice, error) {
			cards, err := ctl.Favorites(ctx)
			if err != nil {
				return dashboard.Notice{}, err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return dashboard.Notice{}, enc.Encode(cards)
		}

	default:
		usage()
	}

	fs.Parse(os.Args[2:])

	actor := dashboard.Actor{ID: *userID, Name: *userName}
	token := cfg.APIToken
	if token == "" {
		var err error
		token, err = middleware.IssueToken([]byte(cfg.JWTSecret), middleware.Actor{ID: actor.ID, Name: actor.Name}, time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to mint token")
		}
	}

	c := client.New(cfg.APIBaseURL, token, submission.Limits{
		MaxFileSize: cfg.MaxFileSize,
		MaxImages:   cfg.MaxImages,
	})
	ctl := dashboard.NewController(actor, client.Listings{Client: c}, client.Blogs{Client: c}, c)

	for _, path := range images {
		f, err := media.FromPath(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to open image")
		}
		if os.Args[1] == "create-blog" {
			ctl.SetFeaturedImage(&f)
			continue
		}
		ctl.AddImages(f)
	}

	idemKey := *key
	if idemKey == "" {
		idemKey = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout*2)
	defer cancel()

	notice, err := run(ctx, ctl, idemKey)
	if notice.Title != "" {
		fmt.Printf("%s: %s\n", notice.Title, notice.Description)
	}
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			log.Error().Msg("Token rejected, set API_TOKEN or JWT_SECRET")
		}
		log.Error().Err(err).Msg("Request failed")
		os.Exit(1)
	}
}
