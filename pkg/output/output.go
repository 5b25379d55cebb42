// Package output names and writes the markdown files a run produces.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

const (
	// maxTitleRunes caps the title part of a per-PR file name.
	maxTitleRunes = 30

	dirPerm  = 0o755
	filePerm = 0o644
)

// Date formats t the way file names carry dates.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// PRFileName returns the file name for a pull request's analysis. Spaces in
// the title become underscores and the title is cut to 30 characters before
// anything outside letters, digits, '_', '-' and '.' is dropped.
func PRFileName(number int, title string) string {
	t := []rune(strings.ReplaceAll(title, " ", "_"))
	if len(t) > maxTitleRunes {
		t = t[:maxTitleRunes]
	}
	return sanitize("PR_" + strconv.Itoa(number) + "_" + string(t) + ".md")
}

// SummaryFileName returns the file name of a repository's brag document.
func SummaryFileName(repo prs.Repo, date string) string {
	return fmt.Sprintf("Brag_Doc_Summary_%s_%s_%s.md", repo.Owner, repo.Name, date)
}

// ReflectionFileName returns the file name of the self-reflection document.
func ReflectionFileName(date string) string {
	return fmt.Sprintf("Self_Reflection_%s.md", date)
}

// RunDirName returns the directory a repository's files are written to.
func RunDirName(repo prs.Repo, author, date string) string {
	return sanitize(fmt.Sprintf("PR_Analysis_%s_%s_%s_%s", repo.Owner, repo.Name, author, date))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, name)
}

// Dir is an output directory that is created on first write.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path. Nothing is created until Write.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Write stores content under name and returns the file's path.
func (d *Dir) Write(name, content string) (string, error) {
	if err := os.MkdirAll(d.path, dirPerm); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(d.path, name)
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// Read returns the content of a file in the directory. name is either a bare
// file name or a path as returned by Write, which is used unchanged.
func (d *Dir) Read(name string) (string, error) {
	path := name
	if filepath.Dir(name) == "." {
		path = filepath.Join(d.path, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}
