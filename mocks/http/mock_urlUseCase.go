package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

// MockUrlUseCase is a mock type for the urlUseCase type
type MockUrlUseCase struct {
	mock.Mock
}

func (_m *MockUrlUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	ret := _m.Called(ctx, originalURL)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	ret := _m.Called(ctx, shortCode)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	ret := _m.Called(ctx, shortCode)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Error(1)
}

func (_m *MockUrlUseCase) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewMockUrlUseCase creates a new instance of MockUrlUseCase. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUrlUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlUseCase {
	m := &MockUrlUseCase{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
