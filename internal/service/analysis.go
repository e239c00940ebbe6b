package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/helixir/scholar-gateway/internal/analysis"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/llm"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/papersources"
)

// Default paper counts for analysis requests.
const (
	DefaultAnalysisPapers = 10
	DefaultStatsPapers    = papersources.DefaultAuthorPapersLimit
)

// AnalyzeRequest selects the papers to analyze, either by id or by keyword.
// PaperIDs wins when both are given.
type AnalyzeRequest struct {
	PaperIDs     []string
	Keyword      string
	StartYear    *int
	EndYear      *int
	Limit        int
	AnalysisType string
}

// AnalysisEnabled reports whether an LLM provider is configured.
func (s *Service) AnalysisEnabled() bool {
	return s.analyzer != nil
}

// Analyze runs an LLM analysis over the selected papers. Papers that cannot
// be fetched are skipped; at least one must remain.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*llm.AnalysisResult, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrServiceUnavailable)
	}
	analysisType, err := llm.ParseAnalysisType(req.AnalysisType)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit < 1 {
		limit = DefaultAnalysisPapers
	}
	if limit > MaxAnalysisPapers {
		limit = MaxAnalysisPapers
	}

	var papers []*domain.Paper
	var subject string
	switch {
	case len(req.PaperIDs) > 0:
		ids := req.PaperIDs
		if len(ids) > limit {
			ids = ids[:limit]
		}
		subject = strings.Join(ids, ",")
		papers, err = s.fetchPapers(ctx, ids)
	case strings.TrimSpace(req.Keyword) != "":
		subject = req.Keyword
		var result *SearchResult
		result, err = s.SearchPapers(ctx, SearchRequest{
			Keyword:   req.Keyword,
			StartYear: req.StartYear,
			EndYear:   req.EndYear,
			PageSize:  limit,
			Clean:     true,
		})
		if result != nil {
			papers = result.Papers
		}
	default:
		return nil, domain.NewValidationError("paper_ids", "paper ids or a keyword are required")
	}
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, domain.NewNotFoundError("papers", subject)
	}

	return s.analyzer.AnalyzePapers(ctx, papers, analysisType)
}

func (s *Service) fetchPapers(ctx context.Context, ids []string) ([]*domain.Paper, error) {
	results, err := s.GetPapers(ctx, ids)
	if err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			logger := observability.WithPaperContext(s.logger, r.ID, string(s.CurrentAdapter()))
			logger.Warn().Err(r.Error).Msg("skipping paper for analysis")
			continue
		}
		papers = append(papers, r.Paper)
	}
	return papers, nil
}

// StatsRequest selects a statistics report and the papers it runs over.
// Keyword-based actions need Keyword; the others need AuthorID.
type StatsRequest struct {
	Action    string
	AuthorID  string
	Keyword   string
	StartYear *int
	EndYear   *int
	Limit     int
	TopN      int
}

// Statistics computes a report over an author's papers or a keyword search.
func (s *Service) Statistics(ctx context.Context, req StatsRequest) (*analysis.Report, error) {
	action, err := analysis.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit < 1 {
		limit = DefaultStatsPapers
	}

	var papers []*domain.Paper
	subject := analysis.Subject{AuthorID: req.AuthorID, Keyword: req.Keyword}
	if action.ByKeyword() {
		if strings.TrimSpace(req.Keyword) == "" {
			return nil, domain.NewValidationError("keyword", fmt.Sprintf("is required for %s", action))
		}
		var result *SearchResult
		result, err = s.SearchPapers(ctx, SearchRequest{
			Keyword:   req.Keyword,
			StartYear: req.StartYear,
			EndYear:   req.EndYear,
			PageSize:  limit,
			Clean:     true,
		})
		if result != nil {
			papers = result.Papers
		}
	} else {
		if strings.TrimSpace(req.AuthorID) == "" {
			return nil, domain.NewValidationError("author_id", fmt.Sprintf("is required for %s", action))
		}
		papers, err = s.GetAuthorPapers(ctx, AuthorPapersRequest{
			AuthorID:  req.AuthorID,
			StartYear: req.StartYear,
			EndYear:   req.EndYear,
			Limit:     limit,
		})
	}
	if err != nil {
		return nil, err
	}

	return analysis.Compute(action, subject, papers, req.TopN)
}
