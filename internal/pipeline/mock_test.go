package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/disclosure-cli/internal/fetcher"
	"github.com/sells-group/disclosure-cli/internal/model"
)

// --- Discoverer Mock ---

type mockDiscoverer struct {
	mock.Mock
}

func (m *mockDiscoverer) Discover(ctx context.Context, subject model.Subject) (model.SubjectMetadata, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(model.SubjectMetadata), args.Error(1)
}

// --- PDF Text Extractor Mock ---

type mockTextExtractor struct {
	mock.Mock
}

func (m *mockTextExtractor) ExtractText(ctx context.Context, raw []byte) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.Response), args.Error(1)
}

func (m *mockFetcher) Head(ctx context.Context, url string) (int, error) {
	args := m.Called(ctx, url)
	return args.Int(0), args.Error(1)
}
