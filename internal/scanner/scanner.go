package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/frherrer/treesync/internal/domain"
)

// Scanner turns command-line arguments into specification file paths.
type Scanner interface {
	Scan(rootDir string, patterns []string, excludes []string) ([]string, error)
	Expand(args []string, patterns []string, excludes []string) ([]string, error)
}

// FileScanner implements Scanner on the local filesystem.
type FileScanner struct {
	Recursive bool
}

// NewScanner creates a new FileScanner.
func NewScanner(recursive bool) *FileScanner {
	return &FileScanner{Recursive: recursive}
}

// Expand resolves each argument: directories are scanned for files matching
// patterns, arguments containing glob metacharacters are expanded with
// doublestar, and anything else is taken as a file path. Paths matching an
// exclude pattern are dropped. The result keeps argument order and contains
// no duplicates.
func (s *FileScanner) Expand(args []string, patterns []string, excludes []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(paths ...string) {
		for _, p := range paths {
			p = filepath.Clean(p)
			if seen[p] || excluded(p, excludes) {
				continue
			}
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			found, err := s.Scan(arg, patterns, excludes)
			if err != nil {
				return nil, err
			}
			add(found...)
			continue
		}

		if hasMeta(arg) {
			if !doublestar.ValidatePathPattern(arg) {
				return nil, domain.NewErrorWithSuggestion("scan", arg, 0,
					"invalid glob pattern",
					"quote the pattern and check its brackets and braces", nil)
			}
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, domain.NewError("scan", arg, 0, "failed to expand glob pattern", err)
			}
			sort.Strings(matches)
			add(matches...)
			continue
		}

		add(arg)
	}

	return files, nil
}

// Scan walks rootDir and returns sorted file paths matching any of the given
// glob patterns while excluding paths that match any exclude pattern.
func (s *FileScanner) Scan(rootDir string, patterns []string, excludes []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Get path relative to rootDir for pattern matching
		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			if !s.Recursive && relPath != "." {
				return filepath.SkipDir
			}
			if relPath != "." && excluded(relPath, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(relPath, excludes) {
			return nil
		}
		for _, pattern := range patterns {
			if matchGlob(relPath, pattern) {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return nil, domain.NewError("scan", rootDir, 0, "failed to scan directory", err)
	}

	sort.Strings(files)
	return files, nil
}

func excluded(path string, excludes []string) bool {
	for _, exc := range excludes {
		if matchGlob(path, exc) {
			return true
		}
	}
	return false
}

// matchGlob matches a doublestar pattern against the path and against every
// trailing run of its segments, so "vendor/**" and "*.tree" apply at any
// depth.
func matchGlob(path, pattern string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i := range parts {
		if ok, _ := doublestar.Match(pattern, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}

func hasMeta(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
