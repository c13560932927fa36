package services

import (
	"strings"

	"gorm.io/gorm"
)

// nextID returns max(id)+1 over the scoped query, or 1 when it is empty.
// scope must already carry a Model and any Where clauses.
func nextID(scope *gorm.DB) (uint, error) {
	var max uint
	if err := scope.Select("COALESCE(MAX(id), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere, lower-cased
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// distinct drops repeated values keeping first-seen order
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
