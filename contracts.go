// Package wetwire_codebuild provides Go types for AWS CodeBuild infrastructure
// and the CloudFormation templates synthesized from them.
//
// Projects are declared with the construct layer in the codebuild package:
//
//	stack := codebuild.NewStack("ci")
//	project, err := codebuild.NewProject(stack, "Build", codebuild.ProjectProps{
//	    Source: codebuild.GitHubSource(codebuild.GitHubSourceProps{
//	        Owner: "acme",
//	        Repo:  "api",
//	    }),
//	})
//	tmpl, err := stack.Synth()
//
// The wetwire-codebuild CLI does the same from YAML project files.
package wetwire_codebuild

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource mirrors (codebuild.Project, iam.Role, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::CodeBuild::Project")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["BuildProject", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Tag is a CloudFormation resource tag.
type Tag struct {
	Key   string `json:"Key" yaml:"Key"`
	Value any    `json:"Value" yaml:"Value"`
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	Condition  string         `json:"Condition,omitempty" yaml:"Condition,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type           string `json:"Type" yaml:"Type"`
	Description    string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default        any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues  []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
	AllowedPattern string `json:"AllowedPattern,omitempty" yaml:"AllowedPattern,omitempty"`
	NoEcho         bool   `json:"NoEcho,omitempty" yaml:"NoEcho,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names an output for cross-stack imports.
type Export struct {
	Name any `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `wetwire-codebuild build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// LintResult is the JSON output from `wetwire-codebuild lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single linting issue.
type LintIssue struct {
	Resource string `json:"resource"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `wetwire-codebuild validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-codebuild list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TemplateDiff groups resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry describes one added, removed, or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
