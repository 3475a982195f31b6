package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"story-server/internal/service"
)

// MockImageGenerator is a mock type for the ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, description, destPath
func (_m *MockImageGenerator) Generate(ctx context.Context, description string, destPath string) service.ImageOutcome {
	ret := _m.Called(ctx, description, destPath)
	return ret.Get(0).(service.ImageOutcome)
}

// Enabled provides a mock function
func (_m *MockImageGenerator) Enabled() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// NewMockImageGenerator creates a new instance of MockImageGenerator.
func NewMockImageGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.ImageGenerator = (*MockImageGenerator)(nil)

// MockImageMerger is a mock type for the ImageMerger type
type MockImageMerger struct {
	mock.Mock
}

// Merge provides a mock function with given fields: characterPath, backgroundPath, destPath
func (_m *MockImageMerger) Merge(characterPath, backgroundPath, destPath string) service.MergeOutcome {
	ret := _m.Called(characterPath, backgroundPath, destPath)
	return ret.Get(0).(service.MergeOutcome)
}

// NewMockImageMerger creates a new instance of MockImageMerger.
func NewMockImageMerger(t interface {
	mock.TestingT
	Helper()
}) *MockImageMerger {
	m := &MockImageMerger{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.ImageMerger = (*MockImageMerger)(nil)
