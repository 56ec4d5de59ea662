package diff

import "fmt"

// MultiSearchReplace applies one or more search/replace hunks to a single
// file. Payloads addressing more than one path are rejected.
type MultiSearchReplace struct {
	engine *Engine
}

// NewMultiSearchReplace creates the single-file strategy.
func NewMultiSearchReplace(engine *Engine) *MultiSearchReplace {
	return &MultiSearchReplace{engine: engine}
}

func (s *MultiSearchReplace) Name() string { return "MultiSearchReplace" }

func (s *MultiSearchReplace) ToolDescription() string {
	return `Apply targeted search/replace edits to ONE file. Each block must contain
a SEARCH section exactly matching existing content and a REPLACE section
with the new content:

<<<<<<< SEARCH
:start_line: (optional, 1-based line of the first search line)
-------
[exact content to find]
=======
[new content]
>>>>>>> REPLACE

Multiple blocks for the same file may appear in one payload.`
}

func (s *MultiSearchReplace) ApplyDiff(req Request) (*Result, error) {
	hunks, err := ParsePayload(req.Payload, req.Path)
	if err != nil {
		return nil, err
	}

	for _, h := range hunks {
		if h.Path != req.Path {
			return nil, &PayloadError{
				Reason: fmt.Sprintf("payload addresses %s but this strategy edits only %s", h.Path, req.Path),
			}
		}
	}

	// A tool-level hint applies when the single hunk carries none itself.
	if req.StartLine > 0 && len(hunks) == 1 && hunks[0].StartLine == 0 {
		hunks[0].StartLine = req.StartLine
	}

	content, applied, err := s.engine.ApplyHunks(req.Path, req.Original, hunks)
	if err != nil {
		return &Result{Files: []FileResult{{Path: req.Path, Err: err}}}, nil
	}

	return &Result{Files: []FileResult{{Path: req.Path, Content: content, Applied: applied}}}, nil
}
