package reporting

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
)

const (
	DefaultSectionLimit = 10
	MaxSectionLimit     = 20
)

// ParseSectionLimit reads the sectionLimit query value. Empty means the default.
func ParseSectionLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultSectionLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxSectionLimit {
		return 0, &domain.ValidationError{
			Field:   "sectionLimit",
			Message: fmt.Sprintf("sectionLimit must be an integer between 1 and %d", MaxSectionLimit),
		}
	}
	return n, nil
}

// ApplySectionLimit returns a copy of body whose sections list holds at most limit entries.
// A body without a sections list is returned unchanged.
func ApplySectionLimit(body map[string]any, limit int) map[string]any {
	sections, ok := body["sections"].([]any)
	if !ok || len(sections) <= limit {
		return body
	}
	out := maps.Clone(body)
	out["sections"] = sections[:limit]
	return out
}
