// Package elsevier holds the wire shapes and query helpers shared by the
// Scopus and ScienceDirect adapters, which sit behind the same Elsevier API
// gateway and authentication scheme.
//
// API Documentation: https://dev.elsevier.com/api_docs.html
package elsevier

import (
	"fmt"
	"strings"

	"github.com/helixir/scholar-gateway/internal/papersources"
)

const (
	// DefaultBaseURL is the Elsevier content API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// APIKeyHeader carries the API key on every request.
	APIKeyHeader = "X-ELS-APIKey"

	// RateLimitHeader carries the quota reset hint on 429 responses.
	RateLimitHeader = "X-RateLimit-Reset"

	// EIDPrefix is the Scopus electronic identifier prefix.
	EIDPrefix = "2-s2.0-"
)

// ExecutorConfig returns the executor settings common to Elsevier providers.
// 429s are surfaced to the caller by default because the X-RateLimit-Reset
// hint is frequently minutes away; adapters switch to RateLimitWait when
// configured to sleep through it.
func ExecutorConfig(source, baseURL, apiKey string) papersources.HTTPClientConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return papersources.HTTPClientConfig{
		Source:          source,
		BaseURL:         baseURL,
		APIKey:          apiKey,
		APIKeyHeader:    APIKeyHeader,
		RateLimitPolicy: papersources.RateLimitSurface,
		RateLimitHeader: RateLimitHeader,
	}
}

// NormalizeEID accepts a bare numeric id, an "eid:" or "SCOPUS_ID:" scheme, a
// URL ending in the id or a full EID, and returns the full "2-s2.0-" form. EIDs that already
// carry a partner prefix, such as ScienceDirect's "1-s2.0-", are kept.
func NormalizeEID(id string) string {
	id = papersources.StripPrefixes(id, "eid:", "scopus_id:")
	if strings.Contains(id, "/") {
		id = papersources.LastPathSegment(id)
	}
	if id == "" || strings.Contains(id, "-s2.0-") {
		return id
	}
	return EIDPrefix + id
}

// YearClause renders the inclusive year filter understood by Elsevier search
// queries, or "" when neither bound is set.
func YearClause(startYear, endYear *int) string {
	switch {
	case startYear != nil && endYear != nil:
		return fmt.Sprintf("PUBYEAR > %d AND PUBYEAR < %d", *startYear-1, *endYear+1)
	case startYear != nil:
		return fmt.Sprintf("PUBYEAR > %d", *startYear-1)
	case endYear != nil:
		return fmt.Sprintf("PUBYEAR < %d", *endYear+1)
	default:
		return ""
	}
}

// Query joins a base query with the year clause.
func Query(base string, startYear, endYear *int) string {
	if clause := YearClause(startYear, endYear); clause != "" {
		return base + " AND " + clause
	}
	return base
}

// StartOffset converts a 1-based page into the zero-based "start" parameter.
func StartOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
