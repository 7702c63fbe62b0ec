// Package shape holds small naming conventions: pluralizing entity
// names into table/collection names and singularizing collection names
// back into key-value key prefixes. Only the key-value planner calls
// into it (Singularize); no translator calls TableName.
package shape

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// TableName lowercases and pluralizes an entity name for backends that
// store one table/collection per entity (relational, document, search).
func TableName(entity string) string {
	return inflection.Plural(strings.ToLower(entity))
}

// Singularize applies the narrow, deterministic rule spec.md §4.6
// mandates for key-value namespace patterns: "ies -> y", "ses -> s"
// (the trailing "es" removed), else trailing "s" removed. It deliberately does not
// delegate to inflection.Singular, which is far more permissive than
// the rule the spec calls out by name.
func Singularize(word string) string {
	lower := strings.ToLower(word)
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "ses") && len(lower) > 3:
		return lower[:len(lower)-2]
	case strings.HasSuffix(lower, "s") && len(lower) > 1:
		return lower[:len(lower)-1]
	default:
		return lower
	}
}
