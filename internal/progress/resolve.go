package progress

import (
	"strings"

	"github.com/example/studybot/internal/textutil"
)

// resolve picks the candidate matching ref: an exact case-folded match wins,
// otherwise the first substring match in storage order. ambiguous reports
// that several candidates contained ref and none matched exactly.
func resolve(names []string, ref string) (idx int, ambiguous bool) {
	needle := textutil.Fold(ref)
	if needle == "" {
		return -1, false
	}

	idx = -1
	matches := 0
	for i, name := range names {
		folded := textutil.Fold(name)
		if folded == needle {
			return i, false
		}
		if strings.Contains(folded, needle) {
			if idx == -1 {
				idx = i
			}
			matches++
		}
	}
	return idx, matches > 1
}
