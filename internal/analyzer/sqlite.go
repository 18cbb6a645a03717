package analyzer

import "strings"

// parseSQLiteExplain reads EXPLAIN QUERY PLAN detail lines, e.g.
//
//	SCAN users
//	SEARCH users USING INDEX email_idx (email=?)
//	SEARCH users USING INTEGER PRIMARY KEY (rowid=?)
//
// SQLite reports neither cost nor row estimates.
func parseSQLiteExplain(lines []string) *QueryPlan {
	plan := &QueryPlan{}
	for _, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.Contains(upper, "USING COVERING INDEX "):
			markIndex(plan, wordAfter(line, "USING COVERING INDEX "))
		case strings.Contains(upper, "USING INDEX "):
			markIndex(plan, wordAfter(line, "USING INDEX "))
		case strings.Contains(upper, "USING INTEGER PRIMARY KEY"):
			markIndex(plan, "PRIMARY KEY")
		case strings.Contains(upper, "USING AUTOMATIC"):
			markIndex(plan, "AUTOMATIC INDEX")
		case strings.HasPrefix(upper, "SCAN "):
			plan.FullScan = true
		}
	}
	return plan
}

func markIndex(plan *QueryPlan, name string) {
	plan.UsesIndex = true
	if plan.IndexName == "" {
		plan.IndexName = name
	}
}

// wordAfter returns the word following marker (matched case-insensitively),
// stopping at whitespace or an opening parenthesis.
func wordAfter(line, marker string) string {
	i := strings.Index(strings.ToUpper(line), marker)
	if i < 0 {
		return ""
	}
	rest := strings.TrimSpace(line[i+len(marker):])
	if end := strings.IndexAny(rest, " ("); end >= 0 {
		return rest[:end]
	}
	return rest
}
