package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout matches the ISO-8601 form browsers emit for toISOString.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrURLRequired is returned when an item is submitted without a URL.
	ErrURLRequired = errors.New("url is required")
	// ErrInvalidURL is returned when the submitted URL cannot be parsed.
	ErrInvalidURL = errors.New("url is not valid")
)

// Item is one saved link.
//
// The JSON layout is the persisted and exported format; field names
// must not change.
type Item struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is generated once at creation time and never reused.
	ID string `json:"id"`

	// URL is the saved link, validated once at creation time.
	URL string `json:"url"`

	// ─────────────────────────────
	// User supplied
	// ─────────────────────────────

	// Title defaults to DeriveTitle(URL) when left blank.
	Title string `json:"title"`

	// Notes may be empty.
	Notes string `json:"notes"`

	// ─────────────────────────────
	// Derived at creation (immutable)
	// ─────────────────────────────

	// DateAdded is an ISO-8601 UTC timestamp (see DateLayout).
	DateAdded string `json:"dateAdded"`

	// Hostname is extracted from URL when the item is created.
	Hostname string `json:"hostname"`
}

// NewItem validates a submission and builds an Item from it.
// A blank title falls back to the classifier's suggestion.
func NewItem(rawURL, title, notes string, classifier *TitleClassifier, now time.Time) (*Item, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrURLRequired
	}
	if _, ok := ParseURL(rawURL); !ok {
		return nil, ErrInvalidURL
	}

	if strings.TrimSpace(title) == "" {
		title = classifier.DeriveTitle(rawURL)
	}

	return &Item{
		ID:        NewID(),
		URL:       rawURL,
		Title:     title,
		Notes:     notes,
		DateAdded: FormatDate(now),
		Hostname:  DeriveHostname(rawURL),
	}, nil
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// FormatDate renders t the way DateAdded is stored.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
