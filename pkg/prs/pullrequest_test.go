package prs

import (
	"testing"
	"time"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in      string
		want    Repo
		wantErr bool
	}{
		{in: "acme/widgets", want: Repo{Owner: "acme", Name: "widgets"}},
		{in: "  acme/widgets ", want: Repo{Owner: "acme", Name: "widgets"}},
		{in: "acme", wantErr: true},
		{in: "/widgets", wantErr: true},
		{in: "acme/", wantErr: true},
		{in: "acme/widgets/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepo(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRepo(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepo(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepo(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRepos(t *testing.T) {
	repos, err := ParseRepos([]string{"acme/widgets, acme/gadgets,", " ", "octo/cat"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"acme/widgets", "acme/gadgets", "octo/cat"}
	if len(repos) != len(want) {
		t.Fatalf("got %v, want %v", repos, want)
	}
	for i, repo := range repos {
		if repo.String() != want[i] {
			t.Errorf("repos[%d] = %s, want %s", i, repo, want[i])
		}
	}

	if _, err := ParseRepos([]string{"acme/widgets,broken"}); err == nil {
		t.Error("Expected error for malformed entry")
	}
}

func TestWindow(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: end}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{name: "start is inclusive", t: start, want: true},
		{name: "end is inclusive", t: end, want: true},
		{name: "inside", t: start.AddDate(0, 0, 14), want: true},
		{name: "just before start", t: start.Add(-time.Nanosecond), want: false},
		{name: "just after end", t: end.Add(time.Nanosecond), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}

	if got := w.Period(); got != "September 2024 - October 2024" {
		t.Errorf("Period() = %q", got)
	}
	if got := w.String(); got != "2024-09-01 to 2024-10-01" {
		t.Errorf("String() = %q", got)
	}
}

func TestWindowResolve(t *testing.T) {
	now := time.Date(2025, 3, 26, 12, 0, 0, 0, time.UTC)

	got := Window{}.Resolve(now)
	if !got.End.Equal(now) {
		t.Errorf("End = %v, want %v", got.End, now)
	}
	if want := time.Date(2024, 9, 26, 12, 0, 0, 0, time.UTC); !got.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", got.Start, want)
	}

	explicit := Window{Start: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), End: now}
	if explicit.Resolve(now.AddDate(1, 0, 0)) != explicit {
		t.Error("Resolve should keep explicit bounds")
	}

	onlyEnd := Window{End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}.Resolve(now)
	if want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC); !onlyEnd.Start.Equal(want) {
		t.Errorf("Start = %v, want %v (six months before end)", onlyEnd.Start, want)
	}
}

func TestWindowValidate(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	if err := (Window{Start: start, End: start.AddDate(0, 1, 0)}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := (Window{Start: start, End: start.AddDate(0, -1, 0)}).Validate(); err == nil {
		t.Error("Expected error for inverted window")
	}
}
