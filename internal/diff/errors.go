package diff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDiffDisabled is returned when a diff tool is dispatched while diff
// editing is turned off.
var ErrDiffDisabled = errors.New("diff editing is disabled")

// PayloadError reports a malformed or cross-file diff payload.
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return "invalid diff payload: " + e.Reason
}

// NoMatchError reports that a search block could not be located in the
// target file. It carries the search text and a short context excerpt so
// the model can correct its next request.
type NoMatchError struct {
	Path      string
	Search    string
	Context   string
	BestScore float64
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no match found for search block in %s", e.Path)
	if e.BestScore > 0 {
		fmt.Fprintf(&b, " (best similarity %.2f)", e.BestScore)
	}
	b.WriteString("\n\nSearch content:\n")
	b.WriteString(excerpt(e.Search, 6))
	if e.Context != "" {
		b.WriteString("\n\nFile context:\n")
		b.WriteString(e.Context)
	}
	return b.String()
}

// IsNoMatch reports whether err is a NoMatchError.
func IsNoMatch(err error) bool {
	var nm *NoMatchError
	return errors.As(err, &nm)
}

// IsInvalidPayload reports whether err is a PayloadError.
func IsInvalidPayload(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

// excerpt returns at most n lines of s, marking truncation.
func excerpt(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-n)
}
