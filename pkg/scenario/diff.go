package scenario

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff compares two dumps line by line.
func LineDiff(before, after []string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dmp.DiffMain(src, dst, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

// Changed reports whether a diff holds any insertion or deletion.
func Changed(diffs []diffmatchpatch.Diff) bool {
	for _, diff := range diffs {
		if diff.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}

	return false
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
