// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/r3labs/diff"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// Empty reports whether the templates were equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0
}

// Compare compares two CloudFormation templates and returns differences.
func Compare(before, after *wetwire.Template, opts Options) (*Result, error) {
	differ, err := diff.NewDiffer(diff.SliceOrdering(!opts.IgnoreOrder))
	if err != nil {
		return nil, fmt.Errorf("creating differ: %w", err)
	}

	result := &Result{}

	for name, def := range after.Resources {
		if _, exists := before.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def := range before.Resources {
		other, exists := after.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{Resource: name, Type: def.Type})
			continue
		}
		if changes := compareResources(differ, def, other); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes a JSON or YAML template.
func ParseTemplate(data []byte) (*wetwire.Template, error) {
	var template wetwire.Template
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}
	return &template, nil
}

func compareResources(differ *diff.Differ, before, after wetwire.ResourceDef) []string {
	var changes []string

	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", before.Type, after.Type))
	}

	changes = append(changes, compareProperties(differ, before.Properties, after.Properties)...)

	if !reflect.DeepEqual(sortedCopy(before.DependsOn), sortedCopy(after.DependsOn)) {
		changes = append(changes, "DependsOn changed")
	}
	if before.Condition != after.Condition {
		changes = append(changes, "Condition changed")
	}

	return changes
}

// compareProperties reports property-path level changes, falling back to
// top-level keys when the structures cannot be diffed (e.g. a scalar that
// became a map).
func compareProperties(differ *diff.Differ, before, after map[string]any) []string {
	if reflect.DeepEqual(before, after) {
		return nil
	}
	if before == nil {
		before = map[string]any{}
	}
	if after == nil {
		after = map[string]any{}
	}

	changelog, err := differ.Diff(before, after)
	if err != nil {
		return compareTopLevel(before, after)
	}

	seen := make(map[string]bool)
	var changes []string
	for _, c := range changelog {
		line := describe(c)
		if !seen[line] {
			seen[line] = true
			changes = append(changes, line)
		}
	}
	sort.Strings(changes)
	return changes
}

func describe(c diff.Change) string {
	path := strings.Join(c.Path, ".")
	switch c.Type {
	case diff.CREATE:
		return path + " added"
	case diff.DELETE:
		return path + " removed"
	default:
		return path + " modified"
	}
}

func compareTopLevel(before, after map[string]any) []string {
	var changes []string
	for key, val := range after {
		if old, exists := before[key]; !exists {
			changes = append(changes, key+" added")
		} else if !reflect.DeepEqual(old, val) {
			changes = append(changes, key+" modified")
		}
	}
	for key := range before {
		if _, exists := after[key]; !exists {
			changes = append(changes, key+" removed")
		}
	}
	sort.Strings(changes)
	return changes
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
