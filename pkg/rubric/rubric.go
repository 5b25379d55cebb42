// Package rubric loads the role-leveling criteria a self-reflection is mapped against.
package rubric

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rubric is a set of leveling expectations grouped into sections.
type Rubric struct {
	Role      string    `yaml:"role"`
	Framework string    `yaml:"framework,omitempty"`
	Sections  []Section `yaml:"sections"`
}

// Section groups related expectations.
type Section struct {
	Name         string   `yaml:"name"`
	Expectations []string `yaml:"expectations"`
}

// Default returns the built-in mid-level rubric.
func Default() *Rubric {
	return &Rubric{
		Role:      "C5",
		Framework: "mid-level engineering",
		Sections: []Section{
			{
				Name: "Craft Skills",
				Expectations: []string{
					"Execute well on defined problems. Learn continuously.",
					"Write code that is easy to understand, operate, and maintain.",
					"Know all the important details.",
					"Do things fast.",
				},
			},
			{
				Name: "Responsibilities To The Craft/Job",
				Expectations: []string{
					"Constantly charge your trust battery and make your team better.",
					"Leverage data effectively to build great things and make great decisions.",
					"Care deeply about the quality and proper usage of the data that powers your work.",
				},
			},
			{
				Name: "Responsibilities To The Company",
				Expectations: []string{
					"Treat project requirements as a minimum floor. Be ambitious about raising the ceiling.",
				},
			},
		},
	}
}

// Parse decodes a YAML rubric.
func Parse(data []byte) (*Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rubric: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads a YAML rubric from path.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric: %w", err)
	}
	return Parse(data)
}

// Validate reports a rubric with no sections or an empty section.
func (r *Rubric) Validate() error {
	if len(r.Sections) == 0 {
		return errors.New("rubric has no sections")
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("rubric section %d has no name", i+1)
		}
		if len(s.Expectations) == 0 {
			return fmt.Errorf("rubric section %q has no expectations", s.Name)
		}
	}
	return nil
}

// Text renders the rubric as the criteria block of the self-reflection prompt.
func (r *Rubric) Text() string {
	var b strings.Builder
	if r.Role != "" {
		fmt.Fprintf(&b, "%s Requirements", r.Role)
		if r.Framework != "" {
			fmt.Fprintf(&b, " (%s)", r.Framework)
		}
		b.WriteString("\n")
	}
	for _, s := range r.Sections {
		b.WriteString(s.Name + "\n")
		for _, e := range s.Expectations {
			b.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Criteria returns the criteria text for the rubric at path. An empty path
// yields an empty string, which renders as the no-criteria placeholder.
func Criteria(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	r, err := Load(path)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

const sampleHeader = "# Leveling rubric used to map contributions in the self-reflection.\n" +
	"# Point output.rubric_file at this file to use it.\n"

// WriteSample writes the default rubric to path. An existing file is only
// replaced when force is set.
func WriteSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding rubric: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(sampleHeader), data...), 0o644); err != nil {
		return fmt.Errorf("writing rubric: %w", err)
	}
	return nil
}
