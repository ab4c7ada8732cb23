// Package usecase implements the URL shortening flows: idempotent submission,
// short code resolution with click counting, and statistics lookup.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/vadimbarashkov/shortcode/internal/entity"
	"github.com/vadimbarashkov/shortcode/internal/metrics"
)

// DefaultMaxAttempts bounds the number of generated candidates per submission.
const DefaultMaxAttempts = 1000

type urlRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error)
	Ping(ctx context.Context) error
}

type codeGenerator interface {
	Generate() (string, error)
}

type clickRecorder interface {
	Record(ctx context.Context, shortCode string)
}

type urlCache interface {
	Get(ctx context.Context, shortCode string) (*entity.URL, bool)
	Set(ctx context.Context, url *entity.URL)
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithMaxAttempts sets how many candidate codes ShortenURL tries before
// giving up with entity.ErrAllocationExhausted. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

// WithCache puts a read-through cache in front of the redirect lookup.
func WithCache(c urlCache) Option {
	return func(uc *URLUseCase) {
		uc.cache = c
	}
}

type URLUseCase struct {
	codeGen     codeGenerator
	urlRepo     urlRepository
	clicks      clickRecorder
	cache       urlCache
	maxAttempts int
	lookups     singleflight.Group
}

func New(codeGen codeGenerator, urlRepo urlRepository, clicks clickRecorder, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		codeGen:     codeGen,
		urlRepo:     urlRepo,
		clicks:      clicks,
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ShortenURL returns the record for originalURL, creating it if the URL has
// not been submitted before. Repeated submissions return the same record.
//
// Code uniqueness is enforced by the repository: Save fails with
// entity.ErrShortCodeExists on a taken code and a fresh candidate is drawn.
// If a concurrent submission of the same URL wins the insert, its record is
// returned instead.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	url, err := uc.urlRepo.RetrieveByOriginalURL(ctx, originalURL)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, fmt.Errorf("%s: failed to look up original url: %w", op, err)
	}

	for i := 0; i < uc.maxAttempts; i++ {
		shortCode, err := uc.codeGen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		switch {
		case err == nil:
			metrics.URLsCreated.Inc()
			return url, nil
		case errors.Is(err, entity.ErrShortCodeExists):
			metrics.CodeCollisions.Inc()
			continue
		case errors.Is(err, entity.ErrOriginalURLExists):
			url, err := uc.urlRepo.RetrieveByOriginalURL(ctx, originalURL)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to retrieve concurrently shortened url: %w", op, err)
			}
			return url, nil
		default:
			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrAllocationExhausted)
}

// ResolveShortCode returns the URL behind shortCode and records one click for it.
// The click is handed to the recorder and does not affect the returned value.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.lookup(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	uc.clicks.Record(ctx, url.ShortCode)
	metrics.Redirects.Inc()

	return url, nil
}

// GetURLStats returns the current record for shortCode without side effects.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// Ping checks that the underlying store is reachable.
func (uc *URLUseCase) Ping(ctx context.Context) error {
	const op = "usecase.URLUseCase.Ping"

	if err := uc.urlRepo.Ping(ctx); err != nil {
		return fmt.Errorf("%s: store is unavailable: %w", op, err)
	}

	return nil
}

func (uc *URLUseCase) lookup(ctx context.Context, shortCode string) (*entity.URL, error) {
	if uc.cache == nil {
		return uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	}

	if url, ok := uc.cache.Get(ctx, shortCode); ok {
		return url, nil
	}

	v, err, _ := uc.lookups.Do(shortCode, func() (any, error) {
		// Callers merged into this lookup must not fail when the first one disconnects.
		ctx := context.WithoutCancel(ctx)

		url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
		if err != nil {
			return nil, err
		}

		uc.cache.Set(ctx, url)

		return url, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*entity.URL), nil
}
