package submission

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaRequired: a listing without images or a post without a featured image.
	ErrMediaRequired = errors.New("media required")
	// ErrContentRequired: a post whose rich-text body is blank.
	ErrContentRequired      = errors.New("content required")
	ErrInvalidField         = errors.New("invalid field")
	ErrMediaTooLarge        = errors.New("media too large")
	ErrOwnerRequired        = errors.New("owner required")
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

// ValidationError is a rejected submission. Title and Description are the
// user-facing notice; Err is one of the sentinel errors above.
type ValidationError struct {
	Err         error
	Field       string
	Title       string
	Description string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Kind names the two submission forms.
type Kind string

const (
	KindListing Kind = "listing"
	KindBlog    Kind = "blog"
)

// SubmitError wraps an upload or persistence failure. Users only ever see
// the generic Message.
type SubmitError struct {
	Kind Kind
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.action(), e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Message is the notice shown to the user.
func (e *SubmitError) Message() string {
	if e.Kind == KindBlog {
		return "Failed to publish blog. Please try again."
	}
	return "Failed to list property. Please try again."
}

func (e *SubmitError) action() string {
	if e.Kind == KindBlog {
		return "failed to publish blog"
	}
	return "failed to list property"
}
