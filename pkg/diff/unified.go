package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

const devNull = "/dev/null"

// Unified renders a unified diff of one file. before or after may be nil for
// an added or removed file. Identical inputs produce an empty string, and
// content with NUL bytes is reported as a binary difference.
func Unified(path string, before, after []byte) (string, error) {
	if bytes.Equal(before, after) {
		return "", nil
	}

	from, to := "a/"+path, "b/"+path
	if before == nil {
		from = devNull
	}
	if after == nil {
		to = devNull
	}

	if isBinary(before) || isBinary(after) {
		return fmt.Sprintf("Binary files %s and %s differ\n", from, to), nil
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: from,
		ToFile:   to,
		Context:  DefaultContext,
	})
	if err != nil {
		return "", fmt.Errorf("unified diff %s: %w", path, err)
	}
	return out, nil
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

// splitLines keeps line terminators and terminates a final partial line so
// every rendered line ends in exactly one newline.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}
