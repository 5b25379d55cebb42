// Package prompt renders the prompts sent to the text-generation service.
//
// Templates use {{key}} placeholders. Each template kind has a fixed set of
// keys it must use. A template that misses one or names an unknown key is
// rejected when it is parsed.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// Key names a substitution point.
type Key string

// Substitution keys.
const (
	KeyTitle          Key = "title"
	KeyURL            Key = "url"
	KeyDescription    Key = "description"
	KeyChangedFiles   Key = "changed_files"
	KeyAdditions      Key = "additions"
	KeyDeletions      Key = "deletions"
	KeyAuthor         Key = "author"
	KeyReviewComments Key = "review_comments"
	KeySummary        Key = "summary"
	KeyCriteria       Key = "criteria"
)

// Values maps substitution keys to their rendered text.
type Values map[Key]string

// Kind identifies what a template is for.
type Kind string

// Template kinds.
const (
	KindAuthored   Kind = "authored"
	KindReviewed   Kind = "reviewed"
	KindReflection Kind = "reflection"
)

// Kinds lists every template kind.
var Kinds = []Kind{KindAuthored, KindReviewed, KindReflection}

// Keys returns the keys a template of this kind must use.
func (k Kind) Keys() []Key {
	switch k {
	case KindAuthored:
		return []Key{KeyTitle, KeyURL, KeyDescription, KeyChangedFiles, KeyAdditions, KeyDeletions}
	case KindReviewed:
		return []Key{KeyTitle, KeyURL, KeyAuthor, KeyReviewComments}
	case KindReflection:
		return []Key{KeySummary, KeyCriteria}
	default:
		return nil
	}
}

// Allowed returns the keys a template of this kind may use. Reviewed
// templates may also use the authored keys.
func (k Kind) Allowed() []Key {
	if k == KindReviewed {
		return append(KindAuthored.Keys(), KeyAuthor, KeyReviewComments)
	}
	return k.Keys()
}

// ErrInvalidTemplate is returned for templates that do not fit their kind.
var ErrInvalidTemplate = errors.New("invalid template")

// Template is a parsed prompt template of a particular kind.
type Template struct {
	tpl  *fasttemplate.Template
	kind Kind
}

// Parse parses text as a template of the given kind and checks that it uses
// every required key and no key outside the kind's allowed set.
func Parse(kind Kind, text string) (*Template, error) {
	allowed := kind.Allowed()
	if allowed == nil {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTemplate, kind)
	}
	tpl, err := fasttemplate.NewTemplate(text, startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	used := make(map[Key]bool)
	if _, err := tpl.ExecuteFuncStringWithErr(func(_ io.Writer, tag string) (int, error) {
		key := Key(strings.TrimSpace(tag))
		if !slices.Contains(allowed, key) {
			return 0, fmt.Errorf("unknown key %q", key)
		}
		used[key] = true
		return 0, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, kind, err)
	}

	var missing []string
	for _, key := range kind.Keys() {
		if !used[key] {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: missing keys %s", ErrInvalidTemplate, kind, strings.Join(missing, ", "))
	}

	return &Template{tpl: tpl, kind: kind}, nil
}

// Kind returns the template's kind.
func (t *Template) Kind() Kind {
	return t.kind
}

// Render substitutes values into the template. Every key the template uses
// must be present in values.
func (t *Template) Render(values Values) (string, error) {
	return t.tpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		key := Key(strings.TrimSpace(tag))
		v, ok := values[key]
		if !ok {
			return 0, fmt.Errorf("rendering %s prompt: no value for %q", t.kind, key)
		}
		return io.WriteString(w, v)
	})
}
