package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"mend/internal/logging"
)

// DefaultSimilarityThreshold is the minimum normalized similarity the
// fuzzy tier accepts when no threshold is configured.
const DefaultSimilarityThreshold = 0.9

// Engine locates the best occurrence of a search block inside a file body
// and substitutes the replacement, tolerating minor whitespace and
// line-ending drift between what the model remembers and the real file.
//
// Matching runs in strict tiers: exact, then whitespace-insensitive, then
// similarity. A lower tier is never consulted while a higher tier has a
// match anywhere in the file.
type Engine struct {
	threshold float64
	dmp       *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates an engine with the given similarity threshold (0..1).
// A zero threshold selects the default.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Engine{threshold: threshold, dmp: diffmatchpatch.New()}
}

// Match describes where a search block landed.
type Match struct {
	// Start is the 0-based index of the first replaced line.
	Start int
	// Lines is how many original lines were replaced.
	Lines int
	// Tier is "exact", "whitespace" or "similarity".
	Tier string
	// Score is the similarity score for the similarity tier, 1 otherwise.
	Score float64
}

// Replace substitutes the best match of search in content with replace.
// startLine is a 1-based position hint; 0 means no hint. The returned
// content preserves the original line endings outside the replaced range.
func (e *Engine) Replace(content, search, replace string, startLine int) (string, *Match, error) {
	fileLines := strings.Split(content, "\n")
	searchLines := splitBlock(search)
	if len(searchLines) == 0 {
		return "", nil, &PayloadError{Reason: "empty search block"}
	}

	m, best := e.locate(fileLines, searchLines, startLine)
	if m == nil {
		return "", nil, &NoMatchError{
			Search:    search,
			Context:   fileContext(fileLines, startLine),
			BestScore: best,
		}
	}

	replaceLines := splitBlock(replace)
	crlf := dominantCRLF(fileLines)

	out := make([]string, 0, len(fileLines)-m.Lines+len(replaceLines))
	out = append(out, fileLines[:m.Start]...)
	for _, line := range replaceLines {
		if crlf {
			line += "\r"
		}
		out = append(out, line)
	}
	out = append(out, fileLines[m.Start+m.Lines:]...)

	return strings.Join(out, "\n"), m, nil
}

// locate finds the winning window for searchLines, honoring tier priority
// and the tie-break policy: nearest to the hint when one is given,
// topmost otherwise. The second return is the best similarity seen, for
// diagnostics when nothing matched.
func (e *Engine) locate(fileLines, searchLines []string, startLine int) (*Match, float64) {
	n := len(fileLines) - len(searchLines) + 1
	if n <= 0 {
		return nil, 0
	}

	// Anchored attempt first: an exact match at the hinted line wins
	// without scanning the rest of the file.
	if startLine > 0 {
		at := startLine - 1
		if at < n && e.exactAt(fileLines, searchLines, at) {
			return &Match{Start: at, Lines: len(searchLines), Tier: "exact", Score: 1}, 1
		}
	}

	var exact, loose []int
	type scored struct {
		start int
		score float64
	}
	var fuzzy []scored
	bestScore := 0.0

	searchJoined := strings.Join(searchLines, "\n")
	for i := 0; i < n; i++ {
		switch {
		case e.exactAt(fileLines, searchLines, i):
			exact = append(exact, i)
		case len(exact) == 0 && e.looseAt(fileLines, searchLines, i):
			loose = append(loose, i)
		case len(exact) == 0 && len(loose) == 0:
			window := joinWindow(fileLines, i, len(searchLines))
			score := e.similarity(window, searchJoined)
			if score > bestScore {
				bestScore = score
			}
			if score >= e.threshold {
				fuzzy = append(fuzzy, scored{start: i, score: score})
			}
		}
	}

	switch {
	case len(exact) > 0:
		return &Match{Start: pickClosest(exact, startLine), Lines: len(searchLines), Tier: "exact", Score: 1}, 1
	case len(loose) > 0:
		return &Match{Start: pickClosest(loose, startLine), Lines: len(searchLines), Tier: "whitespace", Score: 1}, 1
	case len(fuzzy) > 0:
		// Highest score wins; equal scores fall back to the position
		// tie-break.
		top := fuzzy[0].score
		for _, c := range fuzzy[1:] {
			if c.score > top {
				top = c.score
			}
		}
		var starts []int
		for _, c := range fuzzy {
			if c.score == top {
				starts = append(starts, c.start)
			}
		}
		logging.Debug("similarity tier match", "score", top, "candidates", len(starts))
		return &Match{Start: pickClosest(starts, startLine), Lines: len(searchLines), Tier: "similarity", Score: top}, top
	}

	return nil, bestScore
}

func (e *Engine) exactAt(fileLines, searchLines []string, start int) bool {
	for j, want := range searchLines {
		if stripCR(fileLines[start+j]) != want {
			return false
		}
	}
	return true
}

func (e *Engine) looseAt(fileLines, searchLines []string, start int) bool {
	for j, want := range searchLines {
		if collapseWS(stripCR(fileLines[start+j])) != collapseWS(want) {
			return false
		}
	}
	return true
}

// similarity computes normalized edit-distance similarity of two blocks.
func (e *Engine) similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	diffs := e.dmp.DiffMain(a, b, false)
	dist := e.dmp.DiffLevenshtein(diffs)
	return 1 - float64(dist)/float64(longest)
}

// ApplyHunks applies every hunk for one file sequentially, each search
// running against the output of the previous replacement. Application is
// atomic per file: any failed hunk returns an error and the original
// content must be kept.
func (e *Engine) ApplyHunks(path, content string, hunks []Hunk) (string, int, error) {
	ordered := orderHunks(hunks)

	current := content
	lineDelta := 0
	for _, h := range ordered {
		hint := h.StartLine
		if hint > 0 {
			hint += lineDelta
			if hint < 1 {
				hint = 1
			}
		}

		next, m, err := e.Replace(current, h.Search, h.Replace, hint)
		if err != nil {
			if nm, ok := err.(*NoMatchError); ok {
				nm.Path = path
			}
			return "", 0, err
		}

		lineDelta += len(splitBlock(h.Replace)) - m.Lines
		current = next
	}

	return current, len(ordered), nil
}

// orderHunks sorts hinted hunks into file order while keeping unhinted
// hunks in request order.
func orderHunks(hunks []Hunk) []Hunk {
	out := append([]Hunk(nil), hunks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartLine > 0 && out[j].StartLine > 0 && out[i].StartLine < out[j].StartLine
	})
	return out
}

// pickClosest picks the start closest to the 1-based hint; with no hint
// the topmost occurrence wins. Ties prefer the earlier position.
func pickClosest(starts []int, startLine int) int {
	if startLine <= 0 {
		return starts[0]
	}
	want := startLine - 1
	best := starts[0]
	bestDist := abs(best - want)
	for _, s := range starts[1:] {
		if d := abs(s - want); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

// splitBlock splits a search/replace block into lines, normalizing line
// endings and dropping a single trailing newline. An empty block yields
// no lines, which deletes the matched range.
func splitBlock(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func stripCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}

// collapseWS trims the line and collapses interior whitespace runs.
func collapseWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dominantCRLF reports whether the file predominantly uses CRLF endings.
func dominantCRLF(lines []string) bool {
	crlf := 0
	total := 0
	for i, line := range lines {
		if i == len(lines)-1 && line == "" {
			continue
		}
		total++
		if strings.HasSuffix(line, "\r") {
			crlf++
		}
	}
	return total > 0 && crlf*2 > total
}

// joinWindow joins a window of file lines with CRs stripped for comparison.
func joinWindow(lines []string, start, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stripCR(lines[start+i]))
	}
	return b.String()
}

// fileContext renders a short numbered excerpt near the hinted line for
// no-match diagnostics.
func fileContext(lines []string, startLine int) string {
	const span = 8
	start := 0
	if startLine > 0 {
		start = startLine - 1 - span/2
		if start < 0 {
			start = 0
		}
	}
	end := start + span
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%d | %s\n", i+1, stripCR(lines[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
