package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/helixir/scholar-gateway/internal/cleaning"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/export"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/service"
)

type paperInfoRequest struct {
	PaperID string `json:"paper_id" validate:"required"`
}

type searchRequest struct {
	Keyword   string                  `json:"keyword" validate:"required"`
	StartYear *int                    `json:"start_year,omitempty"`
	EndYear   *int                    `json:"end_year,omitempty"`
	Page      int                     `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize  int                     `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
	Clean     bool                    `json:"clean,omitempty"`
	Filter    *cleaning.FilterOptions `json:"filter,omitempty"`
}

type exportRequest struct {
	searchRequest
	Format string `json:"format" validate:"required"`
}

type sourcesSearchRequest struct {
	Keyword   string   `json:"keyword" validate:"required"`
	Sources   []string `json:"sources,omitempty" validate:"omitempty,max=3,dive,required"`
	StartYear *int     `json:"start_year,omitempty"`
	EndYear   *int     `json:"end_year,omitempty"`
	PageSize  int      `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
	Clean     bool     `json:"clean,omitempty"`
}

type batchSearchRequest struct {
	Keywords  []string `json:"keywords" validate:"required,min=1,max=20,dive,required"`
	StartYear *int     `json:"start_year,omitempty"`
	EndYear   *int     `json:"end_year,omitempty"`
	PageSize  int      `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
	Clean     bool     `json:"clean,omitempty"`
}

type batchRequest struct {
	PaperIDs []string `json:"paper_ids" validate:"required,min=1,max=50,dive,required"`
}

type authorInfoRequest struct {
	AuthorID string `json:"author_id" validate:"required"`
}

type authorPapersRequest struct {
	AuthorID  string `json:"author_id" validate:"required"`
	StartYear *int   `json:"start_year,omitempty"`
	EndYear   *int   `json:"end_year,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

type citationsRequest struct {
	PaperID string `json:"paper_id" validate:"required"`
	Depth   int    `json:"depth,omitempty" validate:"omitempty,min=1,max=2"`
}

type journalInfoRequest struct {
	JournalID string `json:"journal_id" validate:"required"`
}

type analyzeRequest struct {
	PaperIDs     []string `json:"paper_ids,omitempty" validate:"omitempty,max=50,dive,required"`
	Keyword      string   `json:"keyword,omitempty"`
	StartYear    *int     `json:"start_year,omitempty"`
	EndYear      *int     `json:"end_year,omitempty"`
	AnalysisType string   `json:"analysis_type,omitempty" validate:"omitempty,oneof=summary trend gap compare"`
	Limit        int      `json:"limit,omitempty" validate:"omitempty,min=1"`
}

type statsRequest struct {
	Action    string `json:"action" validate:"required"`
	AuthorID  string `json:"author_id,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
	StartYear *int   `json:"start_year,omitempty"`
	EndYear   *int   `json:"end_year,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	TopN      int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100"`
}

type switchAdapterRequest struct {
	Adapter string `json:"adapter" validate:"required"`
}

// batchItem is one entry of a batch lookup response. Error carries the
// client-safe message only.
type batchItem struct {
	PaperID string        `json:"paper_id"`
	Paper   *domain.Paper `json:"paper,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type batchResponse struct {
	Papers    []batchItem `json:"papers"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

type sourceOutcome struct {
	Source domain.SourceType `json:"source"`
	Count  int               `json:"count"`
	Error  string            `json:"error,omitempty"`
}

type sourcesSearchResponse struct {
	Keyword string          `json:"keyword"`
	Sources []sourceOutcome `json:"sources"`
	Total   int             `json:"total"`
	Papers  []*domain.Paper `json:"papers"`
}

type keywordItem struct {
	Keyword string          `json:"keyword"`
	Total   int             `json:"total"`
	Papers  []*domain.Paper `json:"papers"`
	Error   string          `json:"error,omitempty"`
}

type batchSearchResponse struct {
	Results   []keywordItem `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

type adaptersResponse struct {
	Current   domain.SourceType   `json:"current"`
	Supported []domain.SourceType `json:"supported"`
}

// getPaperInfo handles POST /api/paper/info.
func (s *Server) getPaperInfo(w http.ResponseWriter, r *http.Request) {
	var req paperInfoRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	paper, err := s.svc.GetPaperInfo(r.Context(), req.PaperID)
	if err != nil {
		s.handleError(w, r, "get paper info", err)
		return
	}
	writeSuccess(w, paper)
}

// searchPapers handles POST /api/papers/search.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.svc.SearchPapers(r.Context(), service.SearchRequest{
		Keyword:   req.Keyword,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Clean:     req.Clean,
		Filter:    req.Filter,
	})
	if err != nil {
		s.handleError(w, r, "search papers", err)
		return
	}
	writeSuccess(w, result)
}

// exportSearch handles POST /api/papers/search/export. It runs the search and
// returns the page as a file attachment instead of a JSON envelope.
func (s *Server) exportSearch(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		s.handleError(w, r, "export search", err)
		return
	}

	result, err := s.svc.SearchPapers(r.Context(), service.SearchRequest{
		Keyword:   req.Keyword,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Clean:     req.Clean,
		Filter:    req.Filter,
	})
	if err != nil {
		s.handleError(w, r, "export search", err)
		return
	}

	// Render fully before writing headers so a failure still gets an envelope.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, result.Papers, export.Options{Title: req.Keyword}); err != nil {
		s.handleError(w, r, "export search", fmt.Errorf("render %s: %w", format, err))
		return
	}

	filename := "papers-" + strconv.Itoa(result.Page) + format.Extension()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// searchSources handles POST /api/papers/search/sources.
func (s *Server) searchSources(w http.ResponseWriter, r *http.Request) {
	var req sourcesSearchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.svc.SearchSources(r.Context(), service.MultiSearchRequest{
		Keyword:   req.Keyword,
		Sources:   req.Sources,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		PageSize:  req.PageSize,
		Clean:     req.Clean,
	})
	if err != nil {
		s.handleError(w, r, "search sources", err)
		return
	}

	resp := sourcesSearchResponse{
		Keyword: result.Keyword,
		Sources: make([]sourceOutcome, 0, len(result.Outcomes)),
		Total:   len(result.Papers),
		Papers:  result.Papers,
	}
	for _, o := range result.Outcomes {
		item := sourceOutcome{Source: o.Source, Count: o.Count}
		if o.Err != nil {
			_, item.Error = classifyError(o.Err)
		}
		resp.Sources = append(resp.Sources, item)
	}
	writeSuccess(w, resp)
}

// batchSearch handles POST /api/papers/search/batch.
func (s *Server) batchSearch(w http.ResponseWriter, r *http.Request) {
	var req batchSearchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	results, err := s.svc.BatchSearch(r.Context(), service.BatchSearchRequest{
		Keywords:  req.Keywords,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		PageSize:  req.PageSize,
		Clean:     req.Clean,
	})
	if err != nil {
		s.handleError(w, r, "batch search", err)
		return
	}

	resp := batchSearchResponse{Results: make([]keywordItem, 0, len(results))}
	for _, res := range results {
		item := keywordItem{Keyword: res.Keyword, Total: len(res.Papers), Papers: res.Papers}
		if res.Err != nil {
			_, item.Error = classifyError(res.Err)
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}
	writeSuccess(w, resp)
}

// batchGetPapers handles POST /api/papers/batch. Individual failures are
// reported per item; the request itself succeeds.
func (s *Server) batchGetPapers(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	results, err := s.svc.GetPapers(r.Context(), req.PaperIDs)
	if err != nil {
		s.handleError(w, r, "batch get papers", err)
		return
	}

	resp := batchResponse{
		Papers: make([]batchItem, 0, len(results)),
		Total:  len(results),
	}
	for _, res := range results {
		item := batchItem{PaperID: res.ID, Paper: res.Paper}
		switch {
		case res.Error != nil:
			_, item.Error = classifyError(res.Error)
			resp.Failed++
		case res.Paper == nil:
			item.Error = domain.NewNotFoundError("paper", res.ID).Error()
			resp.Failed++
		default:
			resp.Succeeded++
		}
		resp.Papers = append(resp.Papers, item)
	}
	writeSuccess(w, resp)
}

// getAuthorInfo handles POST /api/author/info.
func (s *Server) getAuthorInfo(w http.ResponseWriter, r *http.Request) {
	var req authorInfoRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	author, err := s.svc.GetAuthorInfo(r.Context(), req.AuthorID)
	if err != nil {
		s.handleError(w, r, "get author info", err)
		return
	}
	writeSuccess(w, author)
}

// getAuthorPapers handles POST /api/author/papers.
func (s *Server) getAuthorPapers(w http.ResponseWriter, r *http.Request) {
	var req authorPapersRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	papers, err := s.svc.GetAuthorPapers(r.Context(), service.AuthorPapersRequest{
		AuthorID:  req.AuthorID,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Limit:     req.Limit,
	})
	if err != nil {
		s.handleError(w, r, "get author papers", err)
		return
	}
	writeSuccess(w, map[string]interface{}{
		"author_id": req.AuthorID,
		"total":     len(papers),
		"papers":    papers,
	})
}

// getCitationRelations handles POST /api/paper/citations.
func (s *Server) getCitationRelations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	relations, err := s.svc.GetCitationRelations(r.Context(), req.PaperID, req.Depth)
	if err != nil {
		s.handleError(w, r, "get citation relations", err)
		return
	}
	writeSuccess(w, relations)
}

// getJournalInfo handles POST /api/journal/info.
func (s *Server) getJournalInfo(w http.ResponseWriter, r *http.Request) {
	var req journalInfoRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	journal, err := s.svc.GetJournalInfo(r.Context(), req.JournalID)
	if err != nil {
		s.handleError(w, r, "get journal info", err)
		return
	}
	writeSuccess(w, journal)
}

// analyzePapers handles POST /api/analysis/llm.
func (s *Server) analyzePapers(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	if !s.svc.AnalysisEnabled() {
		writeError(w, http.StatusServiceUnavailable, "LLM analysis is not configured")
		return
	}

	result, err := s.svc.Analyze(r.Context(), service.AnalyzeRequest{
		PaperIDs:     req.PaperIDs,
		Keyword:      req.Keyword,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
		Limit:        req.Limit,
		AnalysisType: req.AnalysisType,
	})
	if err != nil {
		s.handleError(w, r, "analyze papers", err)
		return
	}
	writeSuccess(w, result)
}

// statistics handles POST /api/analysis/stats.
func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	report, err := s.svc.Statistics(r.Context(), service.StatsRequest{
		Action:    req.Action,
		AuthorID:  req.AuthorID,
		Keyword:   req.Keyword,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Limit:     req.Limit,
		TopN:      req.TopN,
	})
	if err != nil {
		s.handleError(w, r, "compute statistics", err)
		return
	}
	writeSuccess(w, report)
}

// listAdapters handles GET /api/adapters.
func (s *Server) listAdapters(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, adaptersResponse{
		Current:   s.svc.CurrentAdapter(),
		Supported: s.svc.SupportedAdapters(),
	})
}

// switchAdapter handles POST /api/adapters/switch.
func (s *Server) switchAdapter(w http.ResponseWriter, r *http.Request) {
	var req switchAdapterRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	if err := s.svc.SwitchAdapter(req.Adapter); err != nil {
		s.handleError(w, r, "switch adapter", err)
		return
	}
	writeSuccess(w, adaptersResponse{
		Current:   s.svc.CurrentAdapter(),
		Supported: s.svc.SupportedAdapters(),
	})
}

// cacheStats handles GET /api/cache/stats.
func (s *Server) cacheStats(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, s.svc.CacheStats())
}

// clearCache handles POST /api/cache/clear.
func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearCache(r.Context()); err != nil {
		s.handleError(w, r, "clear cache", err)
		return
	}
	writeSuccess(w, map[string]bool{"cleared": true})
}

// handleError logs err with the request context and writes the mapped
// response. Client errors log at debug, everything else at error.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, _ := classifyError(err)
	logger := observability.WithRequestContext(r.Context(), s.logger)
	event := logger.Error()
	if status < http.StatusInternalServerError {
		event = logger.Debug()
	}
	event.Err(err).Str("operation", op).Int("status", status).Msg("request failed")
	writeDomainError(w, err)
}
