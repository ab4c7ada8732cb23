package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

// MockUrlRepository is a mock type for the urlRepository type
type MockUrlRepository struct {
	mock.Mock
}

func (_m *MockUrlRepository) Save(ctx context.Context, shortCode string, originalURL string) (*entity.URL, error) {
	ret := _m.Called(ctx, shortCode, originalURL)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	ret := _m.Called(ctx, shortCode)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	ret := _m.Called(ctx, originalURL)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlRepository) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewMockUrlRepository creates a new instance of MockUrlRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUrlRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlRepository {
	m := &MockUrlRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
