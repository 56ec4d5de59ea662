package diff

import "fmt"

// MultiFileSearchReplace applies search/replace hunks grouped by path
// across any number of files. Each file's hunks apply independently; a
// failure in one file never aborts the others.
type MultiFileSearchReplace struct {
	engine *Engine
}

// NewMultiFileSearchReplace creates the multi-file strategy.
func NewMultiFileSearchReplace(engine *Engine) *MultiFileSearchReplace {
	return &MultiFileSearchReplace{engine: engine}
}

func (s *MultiFileSearchReplace) Name() string { return "MultiFileSearchReplace" }

func (s *MultiFileSearchReplace) ToolDescription() string {
	return `Apply targeted search/replace edits across one or more files. Name the
target path on its own line before its blocks; blocks group under the most
recent path:

path/to/file.go
<<<<<<< SEARCH
:start_line: (optional)
-------
[exact content to find]
=======
[new content]
>>>>>>> REPLACE

Files are edited independently: a failed block in one file does not stop
edits to the others.`
}

func (s *MultiFileSearchReplace) ApplyDiff(req Request) (*Result, error) {
	hunks, err := ParsePayload(req.Payload, req.Path)
	if err != nil {
		return nil, err
	}

	order, grouped := GroupByPath(hunks)

	result := &Result{}
	for _, path := range order {
		original, err := s.load(req, path)
		if err != nil {
			result.Files = append(result.Files, FileResult{Path: path, Err: err})
			continue
		}

		content, applied, err := s.engine.ApplyHunks(path, original, grouped[path])
		if err != nil {
			// The file stays untouched; other files still proceed.
			result.Files = append(result.Files, FileResult{Path: path, Err: err})
			continue
		}

		result.Files = append(result.Files, FileResult{Path: path, Content: content, Applied: applied})
	}

	return result, nil
}

func (s *MultiFileSearchReplace) load(req Request, path string) (string, error) {
	if path == req.Path && req.Original != "" {
		return req.Original, nil
	}
	if req.Read == nil {
		if path == req.Path {
			return req.Original, nil
		}
		return "", fmt.Errorf("no file reader available for %s", path)
	}
	return req.Read(path)
}
