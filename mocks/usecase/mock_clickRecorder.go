package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClickRecorder is a mock type for the clickRecorder type
type MockClickRecorder struct {
	mock.Mock
}

func (_m *MockClickRecorder) Record(ctx context.Context, shortCode string) {
	_m.Called(ctx, shortCode)
}

// NewMockClickRecorder creates a new instance of MockClickRecorder. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockClickRecorder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClickRecorder {
	m := &MockClickRecorder{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
