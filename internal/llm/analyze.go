package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/observability"
)

// AnalysisType selects the analysis prompt.
type AnalysisType string

const (
	AnalysisSummary AnalysisType = "summary"
	AnalysisTrend   AnalysisType = "trend"
	AnalysisGap     AnalysisType = "gap"
	AnalysisCompare AnalysisType = "compare"
)

// Prompt limits.
const (
	promptMaxPapers   = 5
	promptMaxAuthors  = 3
	promptAbstractLen = 300
)

var analysisTemplates = map[AnalysisType]string{
	AnalysisSummary: "Please summarize the following papers:\n\n%s\n\nProvide:\n" +
		"1. An overview of the research topics\n2. The main research methods\n3. Key findings\n4. Research trends",
	AnalysisTrend: "Please analyze the research trends in the following papers:\n\n%s\n\nProvide:\n" +
		"1. Research hotspots\n2. The direction of technical evolution\n3. Future development trends",
	AnalysisGap: "Please identify research gaps in the following papers:\n\n%s\n\nProvide:\n" +
		"1. Limitations of current research\n2. Unresolved problems\n3. Potential research opportunities",
	AnalysisCompare: "Please compare the following papers:\n\n%s\n\nProvide:\n" +
		"1. Strengths and weaknesses of each paper\n2. A comparison of methods\n3. Suitable application scenarios",
}

// AnalysisTypes lists the supported analysis types.
func AnalysisTypes() []AnalysisType {
	return []AnalysisType{AnalysisSummary, AnalysisTrend, AnalysisGap, AnalysisCompare}
}

// ParseAnalysisType validates s. The empty string selects AnalysisSummary.
func ParseAnalysisType(s string) (AnalysisType, error) {
	if s == "" {
		return AnalysisSummary, nil
	}
	t := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := analysisTemplates[t]; !ok {
		return "", domain.NewValidationError("analysis_type", fmt.Sprintf("unknown analysis type %q", s))
	}
	return t, nil
}

// BuildAnalysisPrompt renders the prompt for the first five papers: title,
// up to three authors and the abstract cut to 300 characters. Unknown types
// fall back to the summary prompt.
func BuildAnalysisPrompt(papers []*domain.Paper, analysisType AnalysisType) string {
	tmpl, ok := analysisTemplates[analysisType]
	if !ok {
		tmpl = analysisTemplates[AnalysisSummary]
	}

	blocks := make([]string, 0, promptMaxPapers)
	for _, p := range papers {
		if len(blocks) == promptMaxPapers {
			break
		}
		if p == nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Paper %d: %s\nAuthors: %s\nAbstract: %s...",
			len(blocks)+1, orNA(p.Title), promptAuthors(p.Authors), truncateRunes(orNA(p.Abstract), promptAbstractLen)))
	}
	return fmt.Sprintf(tmpl, strings.Join(blocks, "\n\n"))
}

func promptAuthors(authors []domain.Author) string {
	names := make([]string, 0, promptMaxAuthors)
	for i, a := range authors {
		if i == promptMaxAuthors {
			break
		}
		name := a.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// AnalysisResult is the outcome of one analysis call.
type AnalysisResult struct {
	AnalysisType AnalysisType `json:"analysis_type"`
	PapersCount  int          `json:"papers_count"`
	Result       string       `json:"result"`
	Provider     string       `json:"provider"`
	Model        string       `json:"model"`
	InputTokens  int          `json:"input_tokens"`
	OutputTokens int          `json:"output_tokens"`
}

// Analyzer runs paper analyses against a Provider.
type Analyzer struct {
	provider Provider
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewAnalyzer creates an Analyzer. metrics may be nil.
func NewAnalyzer(provider Provider, logger zerolog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		provider: provider,
		logger:   logger.With().Str("component", "llm_analyzer").Str("provider", provider.Name()).Logger(),
		metrics:  metrics,
	}
}

// Provider returns the underlying provider.
func (a *Analyzer) Provider() Provider {
	return a.provider
}

// AnalyzePapers builds the prompt for analysisType and returns the
// provider's answer. PapersCount reports all papers passed in, though only
// the first five reach the prompt.
func (a *Analyzer) AnalyzePapers(ctx context.Context, papers []*domain.Paper, analysisType AnalysisType) (*AnalysisResult, error) {
	if len(papers) == 0 {
		return nil, domain.NewValidationError("papers", "at least one paper is required")
	}
	if _, ok := analysisTemplates[analysisType]; !ok {
		analysisType = AnalysisSummary
	}

	a.metrics.RecordLLMRequest(a.provider.Name(), string(analysisType))
	prompt := BuildAnalysisPrompt(papers, analysisType)

	completion, err := a.provider.Complete(ctx, UserPrompt(prompt))
	if err != nil {
		a.metrics.RecordLLMRequestFailed(a.provider.Name())
		a.logger.Error().Err(err).Str("analysis_type", string(analysisType)).Msg("analysis failed")
		return nil, fmt.Errorf("analyzing %d papers: %w", len(papers), err)
	}

	a.logger.Debug().
		Str("analysis_type", string(analysisType)).
		Int("papers", len(papers)).
		Int("input_tokens", completion.InputTokens).
		Int("output_tokens", completion.OutputTokens).
		Msg("analysis completed")

	return &AnalysisResult{
		AnalysisType: analysisType,
		PapersCount:  len(papers),
		Result:       completion.Content,
		Provider:     a.provider.Name(),
		Model:        completion.Model,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
	}, nil
}
