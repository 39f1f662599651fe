package diff

import (
	"fmt"
	"strings"
)

// FormatSummary produces one line per change in name-status form:
//
//	A	path
//	M	path
//	D	path
func FormatSummary(changes []FileChange) string {
	if len(changes) == 0 {
		return ""
	}

	var b strings.Builder
	for _, c := range changes {
		var marker string
		switch c.Type {
		case Added:
			marker = "A"
		case Removed:
			marker = "D"
		case Modified:
			marker = "M"
		}
		fmt.Fprintf(&b, "%s\t%s\n", marker, c.Path)
	}
	return b.String()
}

// FormatStat renders the one-line totals shown under a summary, e.g.
// "3 files changed: 1 added, 1 modified, 1 removed".
func FormatStat(changes []FileChange) string {
	added, removed, modified := Counts(changes)
	noun := "files"
	if len(changes) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s changed: %d added, %d modified, %d removed", len(changes), noun, added, modified, removed)
}
