package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	repo *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	suite.repo = NewURLRepository()
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("success", func() {
		url, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")

		suite.NoError(err)
		suite.Equal(int64(1), url.ID)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Zero(url.Clicks)
		suite.False(url.CreatedAt.IsZero())
	})

	suite.Run("short code exists", func() {
		_, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.Save(context.Background(), "abc123", "https://other.com")

		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("original url exists", func() {
		_, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.Save(context.Background(), "xyz789", "https://example.com")

		suite.ErrorIs(err, entity.ErrOriginalURLExists)
		suite.Nil(url)
	})
}

func (suite *URLRepositoryTestSuite) TestRetrieve() {
	suite.Run("url not found", func() {
		url, err := suite.repo.RetrieveByShortCode(context.Background(), "zzzzzz")
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)

		url, err = suite.repo.RetrieveByOriginalURL(context.Background(), "https://example.com")
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		saved, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")
		suite.Require().NoError(err)

		byCode, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Equal(saved, byCode)

		byOriginal, err := suite.repo.RetrieveByOriginalURL(context.Background(), "https://example.com")
		suite.NoError(err)
		suite.Equal(saved, byOriginal)
	})

	suite.Run("returned record is a copy", func() {
		_, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")
		suite.Require().NoError(err)

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.Require().NoError(err)
		url.Clicks = 100

		url, err = suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Zero(url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicks() {
	suite.Run("url not found", func() {
		err := suite.repo.IncrementClicks(context.Background(), "zzzzzz")

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("concurrent increments", func() {
		_, err := suite.repo.Save(context.Background(), "abc123", "https://example.com")
		suite.Require().NoError(err)

		const n = 200
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				suite.NoError(suite.repo.IncrementClicks(context.Background(), "abc123"))
			}()
		}
		wg.Wait()

		url, err := suite.repo.RetrieveByShortCode(context.Background(), "abc123")
		suite.NoError(err)
		suite.Equal(int64(n), url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestConcurrentSave() {
	suite.Run("same short code", func() {
		const n = 50
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := suite.repo.Save(context.Background(), "abc123", fmt.Sprintf("https://example.com/%d", i))
				if err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		suite.Equal(1, success)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
