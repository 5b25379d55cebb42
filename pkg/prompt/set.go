package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// Placeholders used when a value is absent.
const (
	NoDescription    = "No description provided"
	NoReviewComments = "Review comments not available"
	NoCriteria       = "No leveling criteria provided."
)

// Set holds one template per kind.
type Set struct {
	Authored   *Template
	Reviewed   *Template
	Reflection *Template
}

// Builtins returns the built-in template set.
func Builtins() *Set {
	return &Set{
		Authored:   Builtin(KindAuthored),
		Reviewed:   Builtin(KindReviewed),
		Reflection: Builtin(KindReflection),
	}
}

// FileName returns the file a template of kind is read from.
func FileName(kind Kind) string {
	return string(kind) + ".tmpl"
}

// Load reads authored.tmpl, reviewed.tmpl and reflection.tmpl from dir. A
// template that is missing, unreadable or invalid is replaced by its
// built-in, with a warning. An empty dir yields the built-ins.
func Load(dir string, logger *slog.Logger) *Set {
	set := Builtins()
	if dir == "" {
		return set
	}
	if logger == nil {
		logger = slog.Default()
	}

	for _, kind := range Kinds {
		path := filepath.Join(dir, FileName(kind))
		t, err := LoadFile(dir, kind)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("template not found, using built-in", "kind", kind, "path", path)
			} else {
				logger.Warn("template unusable, using built-in", "kind", kind, "path", path, "error", err)
			}
			continue
		}
		logger.Debug("loaded template", "kind", kind, "path", path)
		switch kind {
		case KindAuthored:
			set.Authored = t
		case KindReviewed:
			set.Reviewed = t
		case KindReflection:
			set.Reflection = t
		}
	}
	return set
}

// LoadFile reads and parses the template of kind from dir.
func LoadFile(dir string, kind Kind) (*Template, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName(kind)))
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return Parse(kind, string(data))
}

// WriteBuiltins writes the built-in templates to dir as editable files and
// returns their paths. Existing files are only replaced when force is set.
func WriteBuiltins(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating template directory: %w", err)
	}
	var paths []string
	for _, kind := range Kinds {
		path := filepath.Join(dir, FileName(kind))
		if !force {
			if _, err := os.Stat(path); err == nil {
				return paths, fmt.Errorf("%s already exists", path)
			}
		}
		if err := os.WriteFile(path, []byte(BuiltinText(kind)), 0o644); err != nil {
			return paths, fmt.Errorf("writing template: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// AuthoredValues builds the substitution values for an authored pull request.
func AuthoredValues(pr *prs.PullRequest) Values {
	return Values{
		KeyTitle:        pr.Title,
		KeyURL:          pr.URL,
		KeyDescription:  fallback(pr.Body, NoDescription),
		KeyChangedFiles: strconv.Itoa(pr.ChangedFiles),
		KeyAdditions:    strconv.Itoa(pr.Additions),
		KeyDeletions:    strconv.Itoa(pr.Deletions),
	}
}

// ReviewedValues builds the substitution values for a reviewed pull request.
func ReviewedValues(pr *prs.ReviewedPullRequest) Values {
	v := AuthoredValues(&pr.PullRequest)
	v[KeyAuthor] = pr.Author
	v[KeyReviewComments] = fallback(strings.Join(pr.Reviews, "\n"), NoReviewComments)
	return v
}

// ReflectionValues builds the substitution values for the self-reflection prompt.
func ReflectionValues(summary, criteria string) Values {
	return Values{
		KeySummary:  summary,
		KeyCriteria: fallback(criteria, NoCriteria),
	}
}

func fallback(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
