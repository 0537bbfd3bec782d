package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-codebuild-go"
)

func projectDef(props map[string]any) wetwire.ResourceDef {
	return wetwire.ResourceDef{Type: projectType, Properties: props}
}

// quiet carries the properties that keep WCB003 and WCB005 silent.
func quiet(props map[string]any) map[string]any {
	out := map[string]any{
		"TimeoutInMinutes": int64(30),
		"LogsConfig":       map[string]any{"CloudWatchLogs": map[string]any{"Status": "ENABLED"}},
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		def   wetwire.ResourceDef
		paths []string
	}{
		{
			name:  "privileged",
			rule:  PrivilegedMode{},
			def:   projectDef(map[string]any{"Environment": map[string]any{"PrivilegedMode": true}}),
			paths: []string{"Environment.PrivilegedMode"},
		},
		{
			name: "not privileged",
			rule: PrivilegedMode{},
			def:  projectDef(map[string]any{"Environment": map[string]any{"PrivilegedMode": false}}),
		},
		{
			name: "plaintext secrets",
			rule: PlaintextSecret{},
			def: projectDef(map[string]any{"Environment": map[string]any{"EnvironmentVariables": []any{
				map[string]any{"Name": "STAGE", "Value": "dev"},
				map[string]any{"Name": "NPM_TOKEN", "Value": "abc"},
				map[string]any{"Name": "DB_PASSWORD", "Type": "SECRETS_MANAGER", "Value": "db:password"},
				map[string]any{"Name": "API_KEY", "Type": "PLAINTEXT", "Value": "xyz"},
			}}}),
			paths: []string{"Environment.EnvironmentVariables[1]", "Environment.EnvironmentVariables[3]"},
		},
		{
			name:  "missing timeout",
			rule:  MissingTimeout{},
			def:   projectDef(map[string]any{}),
			paths: []string{"TimeoutInMinutes"},
		},
		{
			name: "timeout on report group is irrelevant",
			rule: MissingTimeout{},
			def:  wetwire.ResourceDef{Type: "AWS::CodeBuild::ReportGroup"},
		},
		{
			name: "unencrypted artifacts",
			rule: UnencryptedArtifacts{},
			def: projectDef(map[string]any{
				"Artifacts":          map[string]any{"Type": "S3", "EncryptionDisabled": true},
				"SecondaryArtifacts": []any{map[string]any{"Type": "S3"}, map[string]any{"EncryptionDisabled": "true"}},
			}),
			paths: []string{"Artifacts.EncryptionDisabled", "SecondaryArtifacts[1].EncryptionDisabled"},
		},
		{
			name:  "missing logs",
			rule:  MissingLogsConfig{},
			def:   projectDef(nil),
			paths: []string{"LogsConfig"},
		},
		{
			name:  "cache at bucket root",
			rule:  CacheWithoutPrefix{},
			def:   projectDef(map[string]any{"Cache": map[string]any{"Type": "S3", "Location": "ci-cache"}}),
			paths: []string{"Cache.Location"},
		},
		{
			name: "cache with prefix",
			rule: CacheWithoutPrefix{},
			def:  projectDef(map[string]any{"Cache": map[string]any{"Type": "S3", "Location": "ci-cache/api"}}),
		},
		{
			name: "cache location intrinsic",
			rule: CacheWithoutPrefix{},
			def:  projectDef(map[string]any{"Cache": map[string]any{"Type": "S3", "Location": map[string]any{"Ref": "Cache"}}}),
		},
		{
			name:  "webhook without filters",
			rule:  UnfilteredWebhook{},
			def:   projectDef(map[string]any{"Triggers": map[string]any{"Webhook": true}}),
			paths: []string{"Triggers.FilterGroups"},
		},
		{
			name: "webhook with filters",
			rule: UnfilteredWebhook{},
			def: projectDef(map[string]any{"Triggers": map[string]any{
				"Webhook":      true,
				"FilterGroups": []any{[]any{map[string]any{"Type": "EVENT", "Pattern": "PUSH"}}},
			}}),
		},
		{
			name: "hardcoded partition",
			rule: HardcodedPartition{},
			def: projectDef(map[string]any{
				"ServiceRole":   "arn:aws:iam::123456789012:role/build",
				"EncryptionKey": map[string]any{"Fn::Sub": "arn:aws:kms:${AWS::Region}:123456789012:alias/x"},
				"Tags":          []any{map[string]any{"Key": "owner", "Value": "arn:aws:iam::123456789012:user/me"}},
			}),
			paths: []string{"ServiceRole", "Tags[0].Value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := tt.rule.Check("Api", tt.def)

			var paths []string
			for _, issue := range issues {
				assert.Equal(t, tt.rule.ID(), issue.Rule)
				assert.Equal(t, "Api", issue.Resource)
				assert.NotEmpty(t, issue.Message)
				paths = append(paths, issue.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestAllRules_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, rule := range AllRules() {
		assert.False(t, seen[rule.ID()], rule.ID())
		assert.NotEmpty(t, rule.Description())
		seen[rule.ID()] = true
	}
	assert.Len(t, seen, 8)
}

func TestLintTemplate(t *testing.T) {
	tmpl := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Web": projectDef(quiet(map[string]any{"Environment": map[string]any{"PrivilegedMode": true}})),
		"Api": projectDef(quiet(map[string]any{"Environment": map[string]any{"EnvironmentVariables": []any{
			map[string]any{"Name": "GITHUB_TOKEN", "Value": "ghp_x"},
		}}})),
		"ApiRole": {Type: "AWS::IAM::Role"},
	}}

	result := LintTemplate(tmpl, Options{})
	assert.False(t, result.Success)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, "Api", result.Issues[0].Resource)
	assert.Equal(t, "WCB002", result.Issues[0].Rule)
	assert.Equal(t, "Web", result.Issues[1].Resource)
	assert.Equal(t, "WCB001", result.Issues[1].Rule)

	contract := result.LintResult()
	assert.False(t, contract.Success)
	require.Len(t, contract.Issues, 2)
	assert.Equal(t, "error", contract.Issues[0].Severity)
	assert.Equal(t, "Environment.EnvironmentVariables[0]", contract.Issues[0].Path)
}

func TestLintTemplate_Options(t *testing.T) {
	tmpl := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Web": projectDef(quiet(map[string]any{"Environment": map[string]any{"PrivilegedMode": true}})),
	}}

	assert.True(t, LintTemplate(tmpl, Options{}).Success)
	assert.False(t, LintTemplate(tmpl, Options{FailOnWarning: true}).Success)

	result := LintTemplate(tmpl, Options{DisabledRules: []string{"WCB001"}})
	assert.Empty(t, result.Issues)

	result = LintTemplate(projectTemplate(), Options{EnabledRules: []string{"WCB003"}})
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "WCB003", result.Issues[0].Rule)
}

func projectTemplate() *wetwire.Template {
	return &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Api": projectDef(map[string]any{"Name": "api"}),
	}}
}
