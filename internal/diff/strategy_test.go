package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mend/internal/experiments"
)

func TestSelectStrategy(t *testing.T) {
	engine := NewEngine(0)

	assert.Nil(t, Select(false, nil, engine))

	s := Select(true, experiments.Snapshot{}, engine)
	require.NotNil(t, s)
	assert.Equal(t, "MultiSearchReplace", s.Name())

	s = Select(true, experiments.Snapshot{experiments.MultiFileApplyDiff: true}, engine)
	require.NotNil(t, s)
	assert.Equal(t, "MultiFileSearchReplace", s.Name())
}

func TestMultiSearchReplaceApply(t *testing.T) {
	s := NewMultiSearchReplace(NewEngine(0))

	res, err := s.ApplyDiff(Request{
		Path:     "main.go",
		Original: "a\nb\nc\n",
		Payload:  "<<<<<<< SEARCH\nb\n=======\nB\n>>>>>>> REPLACE",
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	f := res.Files[0]
	assert.True(t, f.Changed())
	assert.Equal(t, "a\nB\nc\n", f.Content)
	assert.Equal(t, 1, f.Applied)
}

func TestMultiSearchReplaceRejectsOtherPaths(t *testing.T) {
	s := NewMultiSearchReplace(NewEngine(0))

	_, err := s.ApplyDiff(Request{
		Path:     "main.go",
		Original: "a\n",
		Payload:  "other.go\n<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE",
	})
	require.Error(t, err)
	assert.True(t, IsInvalidPayload(err))
}

func TestMultiSearchReplaceToolLevelHint(t *testing.T) {
	s := NewMultiSearchReplace(NewEngine(0))

	res, err := s.ApplyDiff(Request{
		Path:      "f.txt",
		Original:  "x\nmid\nx\n",
		Payload:   "<<<<<<< SEARCH\nx\n=======\nX\n>>>>>>> REPLACE",
		StartLine: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "x\nmid\nX\n", res.Files[0].Content)
}

func TestMultiSearchReplaceNoMatchIsFileResult(t *testing.T) {
	s := NewMultiSearchReplace(NewEngine(0))

	res, err := s.ApplyDiff(Request{
		Path:     "f.txt",
		Original: "a\n",
		Payload:  "<<<<<<< SEARCH\nmissing\n=======\nx\n>>>>>>> REPLACE",
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	assert.True(t, res.AllFailed())
	assert.True(t, IsNoMatch(res.Files[0].Err))
	assert.Contains(t, res.Summary(), "FAILED")
}

func TestMultiFileSearchReplacePartialSuccess(t *testing.T) {
	s := NewMultiFileSearchReplace(NewEngine(0))

	files := map[string]string{
		"a.go": "alpha\n",
		"b.go": "beta\n",
	}

	payload := `a.go
<<<<<<< SEARCH
alpha
=======
ALPHA
>>>>>>> REPLACE

b.go
<<<<<<< SEARCH
not present
=======
x
>>>>>>> REPLACE`

	res, err := s.ApplyDiff(Request{
		Path:     "a.go",
		Original: files["a.go"],
		Payload:  payload,
		Read: func(p string) (string, error) {
			c, ok := files[p]
			if !ok {
				return "", fmt.Errorf("no such file %s", p)
			}
			return c, nil
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	assert.False(t, res.AllFailed())
	assert.Equal(t, "ALPHA\n", res.Files[0].Content)
	assert.True(t, res.Files[0].Changed())
	assert.True(t, IsNoMatch(res.Files[1].Err))
}

func TestMultiFileSearchReplaceReadFailure(t *testing.T) {
	s := NewMultiFileSearchReplace(NewEngine(0))

	res, err := s.ApplyDiff(Request{
		Path:     "a.go",
		Original: "alpha\n",
		Payload:  "missing.go\n<<<<<<< SEARCH\nx\n=======\ny\n>>>>>>> REPLACE",
		Read: func(p string) (string, error) {
			return "", fmt.Errorf("no such file %s", p)
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.True(t, res.AllFailed())
	assert.Error(t, res.Files[0].Err)
}

func TestResultSummaryCountsHunks(t *testing.T) {
	r := &Result{Files: []FileResult{{Path: "x.go", Content: "c", Applied: 2}}}
	assert.Equal(t, "x.go: applied 2 hunk(s)", r.Summary())
}
