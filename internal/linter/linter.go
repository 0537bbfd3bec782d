// Package linter checks synthesized CloudFormation templates for CodeBuild
// configurations that deploy fine but are usually mistakes.
package linter

import (
	"sort"

	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// Severity of a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding against one resource.
type Issue struct {
	Rule     string
	Resource string
	Path     string
	Severity Severity
	Message  string
}

// Result contains the outcome of linting.
type Result struct {
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// DisabledRules are skipped even when enabled.
	DisabledRules []string
	// FailOnWarning makes warnings fail the result as well as errors.
	FailOnWarning bool
}

// LintTemplate runs the rules over every resource of the template.
// Resources are visited in name order so output is stable.
func LintTemplate(tmpl *wetwire.Template, opts Options) Result {
	rules := getRules(opts)

	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []Issue
	for _, name := range names {
		def := tmpl.Resources[name]
		for _, rule := range rules {
			issues = append(issues, rule.Check(name, def)...)
		}
	}

	success := true
	for _, issue := range issues {
		if issue.Severity == SeverityError || (opts.FailOnWarning && issue.Severity == SeverityWarning) {
			success = false
			break
		}
	}

	return Result{Success: success, Issues: issues}
}

// LintResult converts the result into the CLI contract.
func (r Result) LintResult() wetwire.LintResult {
	out := wetwire.LintResult{Success: r.Success}
	for _, issue := range r.Issues {
		out.Issues = append(out.Issues, wetwire.LintIssue{
			Resource: issue.Resource,
			Path:     issue.Path,
			Severity: string(issue.Severity),
			Message:  issue.Message,
			Rule:     issue.Rule,
		})
	}
	return out
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}
	disabled := make(map[string]bool)
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if disabled[r.ID()] {
			continue
		}
		if len(enabled) > 0 && !enabled[r.ID()] {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
