// Package domain provides the canonical data model shared by every provider adapter.
package domain

// SourceType represents the provider API that produced a record.
type SourceType string

const (
	SourceTypeOpenAlex      SourceType = "openalex"
	SourceTypeScopus        SourceType = "scopus"
	SourceTypeScienceDirect SourceType = "sciencedirect"
)

// String returns the string representation of the source type.
func (s SourceType) String() string {
	return string(s)
}

// AllSourceTypes returns every supported provider in a stable order.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeOpenAlex, SourceTypeScopus, SourceTypeScienceDirect}
}

// ParseSourceType converts a provider name into a SourceType.
func ParseSourceType(name string) (SourceType, error) {
	for _, st := range AllSourceTypes() {
		if string(st) == name {
			return st, nil
		}
	}
	return "", &UnknownSourceError{Name: name}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
