package submission

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bilgisen/estatehub/internal/content"
	"github.com/bilgisen/estatehub/internal/media"
)

// Limits bounds the media accepted with a submission. Zero disables a limit.
type Limits struct {
	MaxFileSize int64
	MaxImages   int
}

// Validator gates submissions before any network call is made.
type Validator struct {
	validate *validator.Validate
	limits   Limits
}

func NewValidator(limits Limits) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report form field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v, limits: limits}
}

// ValidateListing checks a property submission. The form is expected to be
// normalized.
func (v *Validator) ValidateListing(form ListingForm, images []media.File) error {
	if len(images) == 0 {
		return &ValidationError{
			Err:         ErrMediaRequired,
			Field:       "images",
			Title:       "Images Required",
			Description: "Please upload at least one property image.",
		}
	}
	if v.limits.MaxImages > 0 && len(images) > v.limits.MaxImages {
		return &ValidationError{
			Err:         ErrInvalidField,
			Field:       "images",
			Title:       "Too Many Images",
			Description: fmt.Sprintf("Please upload at most %d images.", v.limits.MaxImages),
		}
	}
	for _, img := range images {
		if err := v.checkSize(img); err != nil {
			return err
		}
	}

	if err := v.fields(form); err != nil {
		return err
	}
	if _, ok := parsePrice(form.Price); !ok {
		return &ValidationError{
			Err:         ErrInvalidField,
			Field:       "price",
			Title:       "Invalid Price",
			Description: "Please enter a price of zero or more.",
		}
	}
	return nil
}

// ValidateBlog checks a blog submission. The featured image is checked
// first, then the body, then the form fields.
func (v *Validator) ValidateBlog(form BlogForm, body string, image *media.File) error {
	if image == nil {
		return &ValidationError{
			Err:         ErrMediaRequired,
			Field:       "featured_image",
			Title:       "Featured Image Required",
			Description: "Please upload a featured image for your blog post.",
		}
	}
	if content.IsBlank(body) {
		return &ValidationError{
			Err:         ErrContentRequired,
			Field:       "content",
			Title:       "Content Required",
			Description: "Please write some content for your blog post.",
		}
	}
	if err := v.checkSize(*image); err != nil {
		return err
	}
	return v.fields(form)
}

func (v *Validator) checkSize(f media.File) error {
	if v.limits.MaxFileSize > 0 && f.Size > v.limits.MaxFileSize {
		return &ValidationError{
			Err:         ErrMediaTooLarge,
			Field:       f.Name,
			Title:       "Image Too Large",
			Description: fmt.Sprintf("%s is larger than %d MB.", f.Name, v.limits.MaxFileSize>>20),
		}
	}
	return nil
}

func (v *Validator) fields(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate form: %w", err)
	}

	fe := verrs[0]
	desc := fmt.Sprintf("Please fill in the %s field.", fe.Field())
	if fe.Tag() == "oneof" {
		desc = fmt.Sprintf("%s must be one of: %s.", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return &ValidationError{
		Err:         ErrInvalidField,
		Field:       fe.Field(),
		Title:       "Missing Information",
		Description: desc,
	}
}
