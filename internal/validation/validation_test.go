package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-codebuild-go"
)

func TestCfnLintResult_TotalIssues(t *testing.T) {
	result := CfnLintResult{
		Errors:        []string{"E1"},
		Warnings:      []string{"W1", "W2"},
		Informational: []string{"I1"},
	}
	assert.Equal(t, 4, result.TotalIssues())
	assert.Equal(t, 0, CfnLintResult{}.TotalIssues())
}

func TestCfnLintResult_ValidateResult(t *testing.T) {
	result := CfnLintResult{
		Passed:        true,
		Warnings:      []string{"W1"},
		Informational: []string{"I1"},
	}
	assert.Equal(t, wetwire.ValidateResult{
		Success:   true,
		Resources: 3,
		Warnings:  []string{"W1", "I1"},
	}, result.ValidateResult(3))
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E3002"},
				Message: "Invalid property",
			},
			expected: "E3002: Invalid property",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "W1020"},
				Message: "Sub not needed",
				Location: lint.MatchLocation{
					Path: []any{"Resources", "Api", "Properties", "Name"},
				},
			},
			expected: "W1020: Sub not needed (at Resources/Api/Properties/Name)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestCategorize(t *testing.T) {
	result := categorize([]lint.Match{
		{Rule: lint.MatchRule{ID: "E1"}, Level: "Error", Message: "bad"},
		{Rule: lint.MatchRule{ID: "W1"}, Level: "Warning", Message: "meh"},
		{Rule: lint.MatchRule{ID: "I1"}, Level: "Informational", Message: "fyi"},
	})
	assert.False(t, result.Passed)
	assert.Equal(t, []string{"E1: bad"}, result.Errors)
	assert.Equal(t, []string{"W1: meh"}, result.Warnings)
	assert.Equal(t, []string{"I1: fyi"}, result.Informational)

	assert.True(t, categorize(nil).Passed)
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.yaml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`AWSTemplateFormatVersion: '2010-09-09'
Resources:
  Reports:
    Type: AWS::CodeBuild::ReportGroup
    Properties:
      Type: TEST
      ExportConfig:
        ExportConfigType: NO_EXPORT
`), 0o644))

	result, err := RunCfnLint(path)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestValidateTemplate(t *testing.T) {
	result, err := ValidateTemplate(&wetwire.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]wetwire.ResourceDef{
			"Reports": {
				Type: "AWS::CodeBuild::ReportGroup",
				Properties: map[string]any{
					"Type":         "TEST",
					"ExportConfig": map[string]any{"ExportConfigType": "NO_EXPORT"},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
