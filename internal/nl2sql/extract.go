package nl2sql

import (
	"regexp"
	"strings"
)

var fencedSQL = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")

// ExtractSQL pulls the statement out of a model reply. It returns the trimmed
// interior of the first ```sql fence (case-insensitive, spanning newlines) and
// falls back to the trimmed whole reply when no fence is present. The fallback
// never fails here; text that is not SQL surfaces later as a query error.
func ExtractSQL(modelOutput string) string {
	if match := fencedSQL.FindStringSubmatch(modelOutput); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(modelOutput)
}
