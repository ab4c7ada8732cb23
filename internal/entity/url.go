// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, and the errors shared by the storage and use case layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to save a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrOriginalURLExists is returned when attempting to save a URL whose original URL is already shortened.
	ErrOriginalURLExists = errors.New("original url exists")
	// ErrURLNotFound is returned when a URL with the specified short code or original URL cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrAllocationExhausted is returned when no free short code was found within the attempt budget.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
)

// URL represents a shortened URL.
//
// A URL is created once and never changes afterwards, except for its click counter.
type URL struct {
	ID          int64     // ID is the unique identifier of the URL in the store.
	ShortCode   string    // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	URLStats              // URLStats contains statistics about the URL.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	Clicks int64 // Clicks is the number of times the short code has been resolved.
}
