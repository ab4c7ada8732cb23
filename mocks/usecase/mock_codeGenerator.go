package usecase

import "github.com/stretchr/testify/mock"

// MockCodeGenerator is a mock type for the codeGenerator type
type MockCodeGenerator struct {
	mock.Mock
}

func (_m *MockCodeGenerator) Generate() (string, error) {
	ret := _m.Called()
	return ret.String(0), ret.Error(1)
}

// NewMockCodeGenerator creates a new instance of MockCodeGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCodeGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCodeGenerator {
	m := &MockCodeGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
