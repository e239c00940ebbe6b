package papersources

import (
	"context"
	"sort"
	"sync"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// SourceResult holds the result of a search from one source.
type SourceResult struct {
	// Source identifies which adapter provided the result.
	Source domain.SourceType

	// Papers contains the search results if the search succeeded.
	Papers []*domain.Paper

	// Error contains the error if the search failed.
	Error error
}

// Registry holds the constructed adapters keyed by provider.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.SourceType]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.SourceType]Adapter),
	}
}

// Register adds an adapter, replacing any adapter of the same type.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.SourceType()] = adapter
}

// Get returns the adapter for sourceType.
func (r *Registry) Get(sourceType domain.SourceType) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[sourceType]
	return adapter, ok
}

// Sources returns the registered adapters ordered by source type.
// The returned slice is a snapshot.
func (r *Registry) Sources() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapters := make([]Adapter, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		adapters = append(adapters, adapter)
	}
	sort.Slice(adapters, func(i, j int) bool {
		return adapters[i].SourceType() < adapters[j].SourceType()
	})
	return adapters
}

// Names returns the registered source types in sorted order.
func (r *Registry) Names() []domain.SourceType {
	adapters := r.Sources()
	names := make([]domain.SourceType, len(adapters))
	for i, adapter := range adapters {
		names[i] = adapter.SourceType()
	}
	return names
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// SearchAll searches every registered adapter concurrently.
// Errors are reported per source and not filtered.
func (r *Registry) SearchAll(ctx context.Context, params SearchParams) []SourceResult {
	return r.SearchSources(ctx, params, nil)
}

// SearchSources searches the given adapters concurrently. An empty list means
// all registered adapters; unknown source types are skipped. Results come back
// in the order of the selected adapters.
func (r *Registry) SearchSources(ctx context.Context, params SearchParams, sourceTypes []domain.SourceType) []SourceResult {
	var adapters []Adapter

	if len(sourceTypes) == 0 {
		adapters = r.Sources()
	} else {
		r.mu.RLock()
		adapters = make([]Adapter, 0, len(sourceTypes))
		for _, st := range sourceTypes {
			if adapter, ok := r.adapters[st]; ok {
				adapters = append(adapters, adapter)
			}
		}
		r.mu.RUnlock()
	}

	if len(adapters) == 0 {
		return nil
	}

	results := make([]SourceResult, len(adapters))
	var wg sync.WaitGroup

	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()

			papers, err := a.SearchPapers(ctx, params)
			results[i] = SourceResult{
				Source: a.SourceType(),
				Papers: papers,
				Error:  err,
			}
		}(i, adapter)
	}

	wg.Wait()
	return results
}
