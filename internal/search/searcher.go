// Package search scans workspace files for a query, used by the
// codebase_search tool.
package search

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"mend/internal/logging"
)

// Match is one search hit.
type Match struct {
	Path string // workspace-relative
	Line int    // 1-based
	Text string
}

// Searcher scans files under the workspace root.
type Searcher struct {
	workDir     string
	maxFileSize int64
	maxResults  int
	// Concurrent batches file reads across a worker pool. Governed by
	// the concurrentFileReads experiment; read once per search.
	Concurrent bool
}

// NewSearcher creates a searcher rooted at workDir. maxResults caps
// matches per search when the caller passes no limit of its own.
func NewSearcher(workDir string, maxFileSize int64, maxResults int) *Searcher {
	if maxFileSize <= 0 {
		maxFileSize = 1 << 20
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Searcher{workDir: workDir, maxFileSize: maxFileSize, maxResults: maxResults}
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
}

// Search finds up to limit matches of query in files matching pathGlob
// (doublestar syntax, "**/*" when empty). The query is treated as a
// regular expression when it compiles, a literal otherwise.
func (s *Searcher) Search(ctx context.Context, query, pathGlob string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	if pathGlob == "" {
		pathGlob = "**/*"
	}

	re, err := regexp.Compile(query)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(query))
	}

	paths, err := s.candidates(pathGlob)
	if err != nil {
		return nil, err
	}

	var matches []Match
	if s.Concurrent {
		matches = s.scanParallel(ctx, paths, re, limit)
	} else {
		matches = s.scanSequential(ctx, paths, re, limit)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Searcher) candidates(pattern string) ([]string, error) {
	fsys := os.DirFS(s.workDir)
	names, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, name := range names {
		if skippable(name) {
			continue
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func skippable(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}

func (s *Searcher) scanSequential(ctx context.Context, paths []string, re *regexp.Regexp, limit int) []Match {
	var matches []Match
	for _, rel := range paths {
		if ctx.Err() != nil || len(matches) >= limit {
			break
		}
		matches = append(matches, s.scanFile(rel, re, limit-len(matches))...)
	}
	return matches
}

func (s *Searcher) scanParallel(ctx context.Context, paths []string, re *regexp.Regexp, limit int) []Match {
	const workers = 8

	var (
		mu      sync.Mutex
		matches []Match
		wg      sync.WaitGroup
	)
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				found := s.scanFile(rel, re, limit)
				if len(found) == 0 {
					continue
				}
				mu.Lock()
				matches = append(matches, found...)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, rel := range paths {
		mu.Lock()
		enough := len(matches) >= limit
		mu.Unlock()
		if enough {
			break
		}
		select {
		case jobs <- rel:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return matches
}

func (s *Searcher) scanFile(rel string, re *regexp.Regexp, limit int) []Match {
	abs := filepath.Join(s.workDir, rel)

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() || info.Size() > s.maxFileSize {
		return nil
	}

	f, err := os.Open(abs)
	if err != nil {
		logging.Debug("search open failed", "path", rel, "error", err)
		return nil
	}
	defer f.Close()

	var matches []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.IndexByte(line, 0) >= 0 {
			// Binary file; bail out.
			return matches
		}
		if re.MatchString(line) {
			matches = append(matches, Match{Path: rel, Line: lineNo, Text: strings.TrimSpace(line)})
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}
