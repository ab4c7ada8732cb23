package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

// MockUrlCache is a mock type for the urlCache type
type MockUrlCache struct {
	mock.Mock
}

func (_m *MockUrlCache) Get(ctx context.Context, shortCode string) (*entity.URL, bool) {
	ret := _m.Called(ctx, shortCode)
	url, _ := ret.Get(0).(*entity.URL)
	return url, ret.Bool(1)
}

func (_m *MockUrlCache) Set(ctx context.Context, url *entity.URL) {
	_m.Called(ctx, url)
}

// NewMockUrlCache creates a new instance of MockUrlCache. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUrlCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlCache {
	m := &MockUrlCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
