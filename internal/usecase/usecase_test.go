package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/shortcode/internal/entity"
	"github.com/vadimbarashkov/shortcode/mocks/usecase"
)

type URLUseCaseTestSuite struct {
	suite.Suite
	errUnknown    error
	createdAt     time.Time
	codeGenMock   *usecase.MockCodeGenerator
	urlRepoMock   *usecase.MockUrlRepository
	clicksMock    *usecase.MockClickRecorder
	urlCacheMock  *usecase.MockUrlCache
	uc            *URLUseCase
	ucWithCache   *URLUseCase
	exampleRecord *entity.URL
}

func (suite *URLUseCaseTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.createdAt = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *URLUseCaseTestSuite) SetupSubTest() {
	suite.codeGenMock = usecase.NewMockCodeGenerator(suite.T())
	suite.urlRepoMock = usecase.NewMockUrlRepository(suite.T())
	suite.clicksMock = usecase.NewMockClickRecorder(suite.T())
	suite.urlCacheMock = usecase.NewMockUrlCache(suite.T())

	suite.uc = New(suite.codeGenMock, suite.urlRepoMock, suite.clicksMock)
	suite.ucWithCache = New(suite.codeGenMock, suite.urlRepoMock, suite.clicksMock, WithCache(suite.urlCacheMock))

	suite.exampleRecord = &entity.URL{
		ID:          1,
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   suite.createdAt,
	}
}

func (suite *URLUseCaseTestSuite) TestShortenURL() {
	suite.Run("already shortened", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(suite.exampleRecord, nil)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.Equal(suite.exampleRecord, url)
	})

	suite.Run("lookup error", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("short code generation error", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.codeGenMock.
			On("Generate").
			Once().
			Return("", suite.errUnknown)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("collision is retried", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.codeGenMock.On("Generate").Once().Return("taken1", nil)
		suite.codeGenMock.On("Generate").Once().Return("abc123", nil)
		suite.urlRepoMock.
			On("Save", mock.Anything, "taken1", "https://example.com").
			Once().
			Return(nil, entity.ErrShortCodeExists)
		suite.urlRepoMock.
			On("Save", mock.Anything, "abc123", "https://example.com").
			Once().
			Return(suite.exampleRecord, nil)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.Equal("abc123", url.ShortCode)
		suite.Zero(url.Clicks)
	})

	suite.Run("allocation exhausted", func() {
		uc := New(suite.codeGenMock, suite.urlRepoMock, suite.clicksMock, WithMaxAttempts(3))

		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.codeGenMock.
			On("Generate").
			Times(3).
			Return("taken1", nil)
		suite.urlRepoMock.
			On("Save", mock.Anything, "taken1", "https://example.com").
			Times(3).
			Return(nil, entity.ErrShortCodeExists)

		url, err := uc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrAllocationExhausted)
		suite.Nil(url)
	})

	suite.Run("concurrent submission of the same url", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.codeGenMock.On("Generate").Once().Return("xyz789", nil)
		suite.urlRepoMock.
			On("Save", mock.Anything, "xyz789", "https://example.com").
			Once().
			Return(nil, entity.ErrOriginalURLExists)
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(suite.exampleRecord, nil)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal(suite.createdAt, url.CreatedAt)
	})

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("RetrieveByOriginalURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.codeGenMock.On("Generate").Once().Return("abc123", nil)
		suite.urlRepoMock.
			On("Save", mock.Anything, "abc123", "https://example.com").
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, entity.ErrAllocationExhausted)
		suite.Nil(url)
	})
}

func (suite *URLUseCaseTestSuite) TestResolveShortCode() {
	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.ResolveShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
		suite.clicksMock.AssertNotCalled(suite.T(), "Record", mock.Anything, mock.Anything)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "abc123").
			Once().
			Return(suite.exampleRecord, nil)
		suite.clicksMock.
			On("Record", mock.Anything, "abc123").
			Once()

		url, err := suite.uc.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
	})

	suite.Run("cache hit", func() {
		suite.urlCacheMock.
			On("Get", mock.Anything, "abc123").
			Once().
			Return(suite.exampleRecord, true)
		suite.clicksMock.
			On("Record", mock.Anything, "abc123").
			Once()

		url, err := suite.ucWithCache.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "RetrieveByShortCode", mock.Anything, mock.Anything)
	})

	suite.Run("cache miss", func() {
		suite.urlCacheMock.
			On("Get", mock.Anything, "abc123").
			Once().
			Return(nil, false)
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "abc123").
			Once().
			Return(suite.exampleRecord, nil)
		suite.urlCacheMock.
			On("Set", mock.Anything, suite.exampleRecord).
			Once()
		suite.clicksMock.
			On("Record", mock.Anything, "abc123").
			Once()

		url, err := suite.ucWithCache.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
	})

	suite.Run("cache miss survives canceled caller", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		notCanceled := mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		})

		suite.urlCacheMock.
			On("Get", mock.Anything, "abc123").
			Once().
			Return(nil, false)
		suite.urlRepoMock.
			On("RetrieveByShortCode", notCanceled, "abc123").
			Once().
			Return(suite.exampleRecord, nil)
		suite.urlCacheMock.
			On("Set", notCanceled, suite.exampleRecord).
			Once()
		suite.clicksMock.
			On("Record", mock.Anything, "abc123").
			Once()

		url, err := suite.ucWithCache.ResolveShortCode(ctx, "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
	})

	suite.Run("cache miss for unknown code", func() {
		suite.urlCacheMock.
			On("Get", mock.Anything, "zzzzzz").
			Once().
			Return(nil, false)
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "zzzzzz").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.ucWithCache.ResolveShortCode(context.Background(), "zzzzzz")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
		suite.urlCacheMock.AssertNotCalled(suite.T(), "Set", mock.Anything, mock.Anything)
	})
}

func (suite *URLUseCaseTestSuite) TestGetURLStats() {
	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", mock.Anything, "abc123").
			Once().
			Return(&entity.URL{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				URLStats: entity.URLStats{
					Clicks: 3,
				},
			}, nil)

		url, err := suite.uc.GetURLStats(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal(int64(3), url.Clicks)
	})
}

func (suite *URLUseCaseTestSuite) TestPing() {
	suite.Run("store unavailable", func() {
		suite.urlRepoMock.On("Ping", mock.Anything).Once().Return(suite.errUnknown)

		err := suite.uc.Ping(context.Background())

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.On("Ping", mock.Anything).Once().Return(nil)

		suite.NoError(suite.uc.Ping(context.Background()))
	})
}

func TestURLUseCase(t *testing.T) {
	suite.Run(t, new(URLUseCaseTestSuite))
}
