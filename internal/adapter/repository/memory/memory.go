// Package memory provides an in-process URL repository. It keeps the same
// uniqueness and counter guarantees as the SQL repositories and is meant for
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

type URLRepository struct {
	mu         sync.RWMutex
	byCode     map[string]*entity.URL
	byOriginal map[string]string
	lastID     int64
	now        func() time.Time
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		byCode:     make(map[string]*entity.URL),
		byOriginal: make(map[string]string),
		now:        time.Now,
	}
}

func (r *URLRepository) Save(_ context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[shortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}
	if _, ok := r.byOriginal[originalURL]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrOriginalURLExists)
	}

	r.lastID++
	url := &entity.URL{
		ID:          r.lastID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   r.now().UTC(),
	}

	r.byCode[shortCode] = url
	r.byOriginal[originalURL] = shortCode

	clone := *url
	return &clone, nil
}

func (r *URLRepository) RetrieveByShortCode(_ context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	clone := *url
	return &clone, nil
}

func (r *URLRepository) RetrieveByOriginalURL(_ context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByOriginalURL"

	r.mu.RLock()
	defer r.mu.RUnlock()

	shortCode, ok := r.byOriginal[originalURL]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	clone := *r.byCode[shortCode]
	return &clone, nil
}

func (r *URLRepository) IncrementClicks(_ context.Context, shortCode string) error {
	const op = "adapter.repository.memory.URLRepository.IncrementClicks"

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.byCode[shortCode]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url.Clicks++

	return nil
}

func (r *URLRepository) Ping(context.Context) error {
	return nil
}
