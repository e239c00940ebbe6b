package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/export"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config", &configError{err: errors.New("bad yaml")}, ExitConfigError},
		{"validation", fmt.Errorf("searching: %w", domain.NewValidationError("keyword", "required")), ExitDataError},
		{"unknown source", &domain.UnknownSourceError{Name: "arxiv"}, ExitDataError},
		{"not found", fmt.Errorf("getting paper: %w", domain.NewNotFoundError("paper", "W1")), ExitNotFound},
		{"rate limited", domain.NewRateLimitError("scopus", 0), ExitUpstreamError},
		{"upstream", domain.NewExternalAPIError("openalex", 500, "boom", nil), ExitUpstreamError},
		{"invalid provider data", fmt.Errorf("getting paper: %w", domain.NewDataError("OpenAlex", errors.New("unexpected EOF"))), ExitUpstreamError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "\u00e9\u00e9\u00e9\u00e9...", truncateString("\u00e9\u00e9\u00e9\u00e9\u00e9\u00e9\u00e9\u00e9", 7))
}

func TestOptionalYear(t *testing.T) {
	assert.Nil(t, optionalYear(0))
	y := optionalYear(2021)
	if assert.NotNil(t, y) {
		assert.Equal(t, 2021, *y)
	}
}

func TestActionList(t *testing.T) {
	assert.Contains(t, actionList(), "journal_distribution")
	assert.Contains(t, actionList(), "coauthor_stats")
}

func TestResolveExportFormat(t *testing.T) {
	tests := []struct {
		flag, out string
		want      export.Format
	}{
		{"", "-", export.FormatJSON},
		{"", "", export.FormatJSON},
		{"", "results.xlsx", export.FormatExcel},
		{"", "notes.md", export.FormatMarkdown},
		{"csv", "results.xlsx", export.FormatCSV},
		{"excel", "-", export.FormatExcel},
	}
	for _, tt := range tests {
		got, err := resolveExportFormat(tt.flag, tt.out)
		if assert.NoError(t, err, "%q %q", tt.flag, tt.out) {
			assert.Equal(t, tt.want, got)
		}
	}

	_, err := resolveExportFormat("", "results")
	assert.Equal(t, ExitDataError, exitCode(err))
	_, err = resolveExportFormat("pdf", "-")
	assert.Equal(t, ExitDataError, exitCode(err))
}
