package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// Hunk is one search/replace unit within a diff payload.
type Hunk struct {
	Path      string
	Search    string
	Replace   string
	StartLine int // 1-based hint, 0 when absent
}

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
	hintPrefix    = ":start_line:"
)

// ParsePayload parses a textual diff payload into hunks. Lines outside a
// search/replace block name the target path for subsequent blocks;
// defaultPath is used for blocks that appear before any path line.
//
// Block grammar:
//
//	<<<<<<< SEARCH
//	:start_line:42        (optional)
//	-------               (optional separator)
//	...search lines...
//	=======
//	...replace lines...
//	>>>>>>> REPLACE
func ParsePayload(payload, defaultPath string) ([]Hunk, error) {
	lines := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")

	const (
		stOutside = iota
		stSearch
		stReplace
	)

	var (
		hunks       []Hunk
		state       = stOutside
		currentPath = strings.TrimSpace(defaultPath)
		cur         Hunk
		searchBuf   []string
		replaceBuf  []string
		hintRegion  bool // right after the SEARCH marker, where hint/separator may appear
	)

	flush := func() {
		cur.Search = strings.Join(searchBuf, "\n")
		cur.Replace = strings.Join(replaceBuf, "\n")
		hunks = append(hunks, cur)
		searchBuf, replaceBuf = nil, nil
	}

	for i, line := range lines {
		switch state {
		case stOutside:
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == markerSearch:
				if currentPath == "" {
					return nil, &PayloadError{Reason: fmt.Sprintf("line %d: search block without a file path", i+1)}
				}
				cur = Hunk{Path: currentPath}
				state = stSearch
				hintRegion = true
			case trimmed == "" || strings.HasPrefix(trimmed, "```"):
				// blank lines and code fences between blocks are noise
			case trimmed == markerDivider || trimmed == markerReplace:
				return nil, &PayloadError{Reason: fmt.Sprintf("line %d: %s outside a search block", i+1, trimmed)}
			default:
				currentPath = trimmed
			}

		case stSearch:
			trimmed := strings.TrimRight(line, " \t")
			switch {
			case hintRegion && strings.HasPrefix(strings.TrimSpace(trimmed), hintPrefix):
				raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(trimmed), hintPrefix))
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 {
					return nil, &PayloadError{Reason: fmt.Sprintf("line %d: bad start line hint %q", i+1, raw)}
				}
				cur.StartLine = n
			case hintRegion && isDashSeparator(trimmed):
				hintRegion = false
			case trimmed == markerDivider:
				state = stReplace
			case strings.TrimSpace(trimmed) == markerSearch:
				return nil, &PayloadError{Reason: fmt.Sprintf("line %d: nested search marker", i+1)}
			default:
				hintRegion = false
				searchBuf = append(searchBuf, line)
			}

		case stReplace:
			if strings.TrimSpace(line) == markerReplace {
				if len(searchBuf) == 0 {
					return nil, &PayloadError{Reason: "empty search block"}
				}
				flush()
				state = stOutside
				continue
			}
			replaceBuf = append(replaceBuf, line)
		}
	}

	if state != stOutside {
		return nil, &PayloadError{Reason: "unterminated search/replace block"}
	}
	if len(hunks) == 0 {
		return nil, &PayloadError{Reason: "no search/replace blocks found"}
	}

	return hunks, nil
}

// isDashSeparator reports whether line is the optional hint separator
// (a run of at least three dashes alone on the line).
func isDashSeparator(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 {
		return false
	}
	for _, r := range line {
		if r != '-' {
			return false
		}
	}
	return true
}

// GroupByPath groups hunks by target path, preserving first-seen order.
func GroupByPath(hunks []Hunk) ([]string, map[string][]Hunk) {
	var order []string
	grouped := make(map[string][]Hunk)
	for _, h := range hunks {
		if _, seen := grouped[h.Path]; !seen {
			order = append(order, h.Path)
		}
		grouped[h.Path] = append(grouped[h.Path], h)
	}
	return order, grouped
}
