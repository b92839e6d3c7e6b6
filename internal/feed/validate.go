package feed

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrContentRequired   = errors.New("content is required")
	ErrFieldRequired     = errors.New("field is required")
	ErrInvalidPrice      = errors.New("price must be a non-negative amount with at most two decimals")
	ErrInvalidCurrency   = errors.New("currency must be a three-letter code")
	ErrInvalidURL        = errors.New("must be an absolute http or https URL")
	ErrInvalidVisibility = errors.New("visibility must be PUBLIC, PRIVATE or FRIENDS")
	ErrInvalidDate       = errors.New("date must be formatted YYYY-MM-DD")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidFormat     = errors.New("invalid format")
)

// ValidationError is a client-side input error, raised before any request is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

var priceRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// CreatePostInput is the raw post form as a user typed it.
type CreatePostInput struct {
	Text         string
	PlatformID   string
	Price        string
	Currency     string
	PurchaseDate string
	ProductURL   string
	Visibility   string
	Location     string
	Tags         []string
	MediaIDs     []string
}

// Validate checks the form and builds the request body. Currency defaults to
// USD and visibility to PUBLIC.
func (in CreatePostInput) Validate() (CreatePostRequest, error) {
	var req CreatePostRequest

	req.Text = strings.TrimSpace(in.Text)
	if req.Text == "" {
		return req, invalid("text", ErrContentRequired)
	}

	price := strings.TrimSpace(in.Price)
	if !priceRe.MatchString(price) {
		return req, invalid("price", ErrInvalidPrice)
	}
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return req, invalid("price", ErrInvalidPrice)
	}
	req.Price = p

	req.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if !currencyRe.MatchString(req.Currency) {
		return req, invalid("currency", ErrInvalidCurrency)
	}

	if id := strings.TrimSpace(in.PlatformID); id != "" {
		req.PlatformID = &id
	}

	if d := strings.TrimSpace(in.PurchaseDate); d != "" {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return req, invalid("purchaseDate", ErrInvalidDate)
		}
		req.PurchaseDate = d
	}

	if u := strings.TrimSpace(in.ProductURL); u != "" {
		if !isWebURL(u) {
			return req, invalid("productUrl", ErrInvalidURL)
		}
		req.ProductURL = u
	}

	switch v := Visibility(strings.ToUpper(strings.TrimSpace(in.Visibility))); v {
	case "":
		req.Visibility = VisibilityPublic
	case VisibilityPublic, VisibilityPrivate, VisibilityFriends:
		req.Visibility = v
	default:
		return req, invalid("visibility", ErrInvalidVisibility)
	}

	req.Location = strings.TrimSpace(in.Location)
	req.Tags = normalizeTags(in.Tags)
	if len(in.MediaIDs) > 0 {
		req.MediaIDs = append([]string(nil), in.MediaIDs...)
	}
	return req, nil
}

func isWebURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normalizeTags trims, strips a leading '#', and drops empty and duplicate tags.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ValidateComment trims the comment text and rejects empty comments.
func ValidateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("text", ErrContentRequired)
	}
	return text, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct's `validate` tags and reports the first
// failure as a *ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return invalid(fe.Field(), ErrFieldRequired)
	case "email":
		return invalid(fe.Field(), ErrInvalidEmail)
	case "min", "max":
		return invalid(fe.Field(), fmt.Errorf("%w: length must be %s %s", ErrInvalidFormat, fe.Tag(), fe.Param()))
	default:
		return invalid(fe.Field(), fmt.Errorf("%w: failed %s", ErrInvalidFormat, fe.Tag()))
	}
}
