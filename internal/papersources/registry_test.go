package papersources

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// mockAdapter is a mock implementation of Adapter for testing.
type mockAdapter struct {
	sourceType domain.SourceType
	name       string

	// searchFunc allows customizing search behavior in tests
	searchFunc func(ctx context.Context, params SearchParams) ([]*domain.Paper, error)

	// getByIDFunc allows customizing GetPaperByID behavior in tests
	getByIDFunc func(ctx context.Context, id string) (*domain.Paper, error)

	searchCalls  atomic.Int32
	getByIDCalls atomic.Int32
}

var _ Adapter = (*mockAdapter)(nil)

func newMockAdapter(sourceType domain.SourceType, name string) *mockAdapter {
	return &mockAdapter{sourceType: sourceType, name: name}
}

func (m *mockAdapter) GetPaperByID(ctx context.Context, id string) (*domain.Paper, error) {
	m.getByIDCalls.Add(1)
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAdapter) SearchPapers(ctx context.Context, params SearchParams) ([]*domain.Paper, error) {
	m.searchCalls.Add(1)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, params)
	}
	return []*domain.Paper{}, nil
}

func (m *mockAdapter) GetAuthorPapers(_ context.Context, _ AuthorPapersParams) ([]*domain.Paper, error) {
	return []*domain.Paper{}, nil
}

func (m *mockAdapter) GetCitationRelations(_ context.Context, paperID string, _ int) (*domain.CitationRelations, error) {
	return domain.NewCitationRelations(paperID), nil
}

func (m *mockAdapter) GetAuthorInfo(_ context.Context, _ string) (*domain.Author, error) {
	return nil, nil
}

func (m *mockAdapter) GetJournalInfo(_ context.Context, _ string) (*domain.Journal, error) {
	return nil, nil
}

func (m *mockAdapter) ParsePaper(_ json.RawMessage) (*domain.Paper, error) {
	return nil, domain.NewValidationError("paper_id", "not implemented")
}

func (m *mockAdapter) SourceType() domain.SourceType {
	return m.sourceType
}

func (m *mockAdapter) Name() string {
	return m.name
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	require.NotNil(t, registry)
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.Sources())
	assert.Empty(t, registry.Names())

	_, ok := registry.Get(domain.SourceTypeOpenAlex)
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("registers multiple adapters", func(t *testing.T) {
		registry := NewRegistry()
		adapters := []*mockAdapter{
			newMockAdapter(domain.SourceTypeScopus, "Scopus"),
			newMockAdapter(domain.SourceTypeOpenAlex, "OpenAlex"),
			newMockAdapter(domain.SourceTypeScienceDirect, "ScienceDirect"),
		}
		for _, a := range adapters {
			registry.Register(a)
		}

		assert.Equal(t, 3, registry.Len())
		for _, a := range adapters {
			retrieved, ok := registry.Get(a.SourceType())
			require.True(t, ok)
			assert.Equal(t, a, retrieved)
		}
		assert.Equal(t, []domain.SourceType{
			domain.SourceTypeOpenAlex,
			domain.SourceTypeScienceDirect,
			domain.SourceTypeScopus,
		}, registry.Names())
	})

	t.Run("replaces existing adapter with same type", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(newMockAdapter(domain.SourceTypeOpenAlex, "Original"))
		registry.Register(newMockAdapter(domain.SourceTypeOpenAlex, "Replacement"))

		retrieved, ok := registry.Get(domain.SourceTypeOpenAlex)
		require.True(t, ok)
		assert.Equal(t, "Replacement", retrieved.Name())
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("concurrent registration is safe", func(t *testing.T) {
		registry := NewRegistry()
		var wg sync.WaitGroup

		for i := 0; i < 10; i++ {
			for _, st := range domain.AllSourceTypes() {
				wg.Add(1)
				go func(sourceType domain.SourceType) {
					defer wg.Done()
					registry.Register(newMockAdapter(sourceType, string(sourceType)))
					_, _ = registry.Get(sourceType)
				}(st)
			}
		}
		wg.Wait()

		assert.Equal(t, 3, registry.Len())
	})
}

func TestRegistry_SearchSources(t *testing.T) {
	t.Run("searches all adapters concurrently", func(t *testing.T) {
		registry := NewRegistry()

		openalex := newMockAdapter(domain.SourceTypeOpenAlex, "OpenAlex")
		openalex.searchFunc = func(ctx context.Context, params SearchParams) ([]*domain.Paper, error) {
			time.Sleep(50 * time.Millisecond)
			return []*domain.Paper{{PaperID: "W1", Title: params.Keyword}}, nil
		}
		scopus := newMockAdapter(domain.SourceTypeScopus, "Scopus")
		scopus.searchFunc = func(ctx context.Context, params SearchParams) ([]*domain.Paper, error) {
			time.Sleep(50 * time.Millisecond)
			return nil, domain.NewAuthenticationError("scopus", 401)
		}
		registry.Register(openalex)
		registry.Register(scopus)

		start := time.Now()
		results := registry.SearchAll(context.Background(), SearchParams{Keyword: "graphs"})
		elapsed := time.Since(start)

		require.Len(t, results, 2)
		assert.Less(t, elapsed, 95*time.Millisecond)

		assert.Equal(t, domain.SourceTypeOpenAlex, results[0].Source)
		require.NoError(t, results[0].Error)
		require.Len(t, results[0].Papers, 1)
		assert.Equal(t, "graphs", results[0].Papers[0].Title)

		assert.Equal(t, domain.SourceTypeScopus, results[1].Source)
		assert.ErrorIs(t, results[1].Error, domain.ErrUnauthorized)
	})

	t.Run("searches only requested adapters", func(t *testing.T) {
		registry := NewRegistry()
		openalex := newMockAdapter(domain.SourceTypeOpenAlex, "OpenAlex")
		scopus := newMockAdapter(domain.SourceTypeScopus, "Scopus")
		registry.Register(openalex)
		registry.Register(scopus)

		results := registry.SearchSources(context.Background(), SearchParams{Keyword: "x"},
			[]domain.SourceType{domain.SourceTypeScopus, domain.SourceTypeScienceDirect})

		require.Len(t, results, 1)
		assert.Equal(t, domain.SourceTypeScopus, results[0].Source)
		assert.Equal(t, 0, int(openalex.searchCalls.Load()))
		assert.Equal(t, 1, int(scopus.searchCalls.Load()))
	})

	t.Run("empty registry returns nil", func(t *testing.T) {
		assert.Nil(t, NewRegistry().SearchAll(context.Background(), SearchParams{}))
	})

	t.Run("propagates context cancellation", func(t *testing.T) {
		registry := NewRegistry()
		adapter := newMockAdapter(domain.SourceTypeOpenAlex, "OpenAlex")
		adapter.searchFunc = func(ctx context.Context, _ SearchParams) ([]*domain.Paper, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		registry.Register(adapter)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		results := registry.SearchAll(ctx, SearchParams{Keyword: "x"})
		require.Len(t, results, 1)
		assert.True(t, errors.Is(results[0].Error, context.DeadlineExceeded))
	})
}
