package prompt

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePR() *prs.PullRequest {
	return &prs.PullRequest{
		Title:        "Add caching layer",
		URL:          "https://github.com/acme/widgets/pull/1",
		Author:       "bob",
		Number:       1,
		ChangedFiles: 4,
		Additions:    120,
		Deletions:    7,
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		text    string
		wantErr string
	}{
		{
			name: "authored with every key",
			kind: KindAuthored,
			text: "{{title}} {{url}} {{description}} {{changed_files}} {{additions}} {{deletions}}",
		},
		{
			name: "tags may be padded",
			kind: KindReflection,
			text: "{{ summary }}\n{{ criteria }}",
		},
		{
			name: "reviewed may use authored keys",
			kind: KindReviewed,
			text: "{{title}} {{url}} {{author}} {{review_comments}} {{additions}}",
		},
		{
			name:    "missing key",
			kind:    KindAuthored,
			text:    "{{title}} {{url}}",
			wantErr: "missing keys description, changed_files, additions, deletions",
		},
		{
			name:    "unknown key",
			kind:    KindReflection,
			text:    "{{summary}} {{criteria}} {{mood}}",
			wantErr: `unknown key "mood"`,
		},
		{
			name:    "reflection may not use pull request keys",
			kind:    KindReflection,
			text:    "{{summary}} {{criteria}} {{title}}",
			wantErr: `unknown key "title"`,
		},
		{
			name:    "unknown kind",
			kind:    Kind("weekly"),
			text:    "{{summary}}",
			wantErr: "unknown kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := Parse(tt.kind, tt.text)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrInvalidTemplate)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, tpl)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tpl.Kind())
		})
	}
}

func TestBuiltinsParse(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			assert.NotPanics(t, func() { Builtin(kind) })
		})
	}
	assert.Panics(t, func() { Builtin(Kind("weekly")) })
}

func TestRender_Authored(t *testing.T) {
	out, err := Builtin(KindAuthored).Render(AuthoredValues(samplePR()))
	require.NoError(t, err)

	assert.Contains(t, out, "PR Title: Add caching layer")
	assert.Contains(t, out, "PR Description: "+NoDescription)
	assert.Contains(t, out, "Changed Files: 4")
	assert.Contains(t, out, "Additions: 120")
	assert.Contains(t, out, "Deletions: 7")
	assert.Contains(t, out, "I shipped this https://github.com/acme/widgets/pull/1 that")
	assert.NotContains(t, out, "{{")
}

func TestRender_Reviewed(t *testing.T) {
	pr := &prs.ReviewedPullRequest{
		PullRequest: *samplePR(),
		Reviews:     []string{"Consider extracting this helper", "Rename this variable please"},
	}
	out, err := Builtin(KindReviewed).Render(ReviewedValues(pr))
	require.NoError(t, err)

	assert.Contains(t, out, "PR Author: bob")
	assert.Contains(t, out, "My Review Comments: Consider extracting this helper\nRename this variable please")

	pr.Reviews = nil
	out, err = Builtin(KindReviewed).Render(ReviewedValues(pr))
	require.NoError(t, err)
	assert.Contains(t, out, "My Review Comments: "+NoReviewComments)
}

func TestRender_Reflection(t *testing.T) {
	out, err := Builtin(KindReflection).Render(ReflectionValues("# Brag doc", ""))
	require.NoError(t, err)
	assert.Contains(t, out, "# Brag doc")
	assert.Contains(t, out, NoCriteria)
}

func TestRender_MissingValue(t *testing.T) {
	_, err := Builtin(KindAuthored).Render(Values{KeyTitle: "only a title"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no value for "url"`)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom: {{title}} {{url}} {{description}} {{changed_files}} {{additions}} {{deletions}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(KindAuthored)), []byte(custom), 0o600))
	// Invalid: missing review_comments.
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(KindReviewed)), []byte("{{title}} {{url}} {{author}}"), 0o600))
	// reflection.tmpl is absent.

	set := Load(dir, quietLogger())

	out, err := set.Authored.Render(AuthoredValues(samplePR()))
	require.NoError(t, err)
	assert.Equal(t, "Custom: Add caching layer https://github.com/acme/widgets/pull/1 "+NoDescription+" 4 120 7", out)

	out, err = set.Reviewed.Render(ReviewedValues(&prs.ReviewedPullRequest{PullRequest: *samplePR()}))
	require.NoError(t, err)
	assert.Contains(t, out, "I provided key review for https://github.com/acme/widgets/pull/1")

	out, err = set.Reflection.Render(ReflectionValues("summary text", "criteria text"))
	require.NoError(t, err)
	assert.Contains(t, out, "summary text")
	assert.Contains(t, out, "criteria text")
}

func TestLoad_UnreadableDirectory(t *testing.T) {
	set := Load(filepath.Join(t.TempDir(), "does-not-exist"), quietLogger())

	pr := samplePR()
	pr.Body = "Adds an LRU in front of the store"
	out, err := set.Authored.Render(AuthoredValues(pr))
	require.NoError(t, err)
	for _, want := range []string{pr.Title, pr.URL, pr.Body, "4", "120", "7"} {
		assert.Contains(t, out, want)
	}
}

func TestLoad_EmptyDirUsesBuiltins(t *testing.T) {
	set := Load("", nil)
	require.NotNil(t, set.Authored)
	require.NotNil(t, set.Reviewed)
	require.NotNil(t, set.Reflection)
}

func TestWriteBuiltins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")

	paths, err := WriteBuiltins(dir, false)
	require.NoError(t, err)
	require.Len(t, paths, len(Kinds))

	for _, kind := range Kinds {
		tpl, err := LoadFile(dir, kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, tpl.Kind())

		data, err := os.ReadFile(filepath.Join(dir, FileName(kind)))
		require.NoError(t, err)
		assert.Equal(t, BuiltinText(kind), string(data))
	}

	_, err = WriteBuiltins(dir, false)
	require.Error(t, err, "existing files are kept without force")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(KindAuthored)), []byte("edited"), 0o644))
	_, err = WriteBuiltins(dir, true)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, FileName(KindAuthored)))
	require.NoError(t, err)
	assert.Equal(t, BuiltinText(KindAuthored), string(data))
}
