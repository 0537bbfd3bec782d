package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-codebuild-go/codebuild"
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
)

func TestBuildTemplate(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	tmpl, err := BuildTemplate(f, nil)
	require.NoError(t, err)

	assert.Equal(t, "CI projects", tmpl.Description)
	assert.Contains(t, tmpl.Parameters, "Stage")
	for _, name := range []string{
		"Artifacts",
		"Api", "ApiRole", "ApiRoleDefaultPolicy", "ApiNotifyFailed", "ApiFailedbuildsAlarm",
		"Deploy", "DeployRole",
		"UnitTests",
		"Github",
	} {
		assert.Contains(t, tmpl.Resources, name)
	}
	assert.Contains(t, tmpl.Outputs, "ApiArn")
	assert.Contains(t, tmpl.Outputs, "ApiName")

	api := tmpl.Resources["Api"].Properties
	assert.Equal(t, "api-build", api["Name"])
	assert.Equal(t, "main", api["SourceVersion"])
	assert.Equal(t, int64(45), api["TimeoutInMinutes"])
	assert.Equal(t, int64(120), api["QueuedTimeoutInMinutes"])
	assert.Equal(t, true, api["BadgeEnabled"])

	source := api["Source"].(map[string]any)
	assert.Equal(t, "GITHUB", source["Type"])
	assert.Equal(t, "https://github.com/acme/api.git", source["Location"])
	assert.Equal(t, int64(1), source["GitCloneDepth"])

	triggers := api["Triggers"].(map[string]any)
	assert.Equal(t, true, triggers["Webhook"])
	assert.Equal(t, []any{
		[]any{
			map[string]any{"Type": "EVENT", "Pattern": "PUSH"},
			map[string]any{"Type": "HEAD_REF", "Pattern": "refs/heads/main"},
		},
		[]any{
			map[string]any{"Type": "EVENT", "Pattern": "PULL_REQUEST_CREATED, PULL_REQUEST_UPDATED"},
			map[string]any{"Type": "BASE_REF", "Pattern": "refs/heads/main"},
			map[string]any{"Type": "FILE_PATH", "Pattern": "^docs/", "ExcludeMatchedPattern": true},
		},
	}, triggers["FilterGroups"])

	env := api["Environment"].(map[string]any)
	assert.Equal(t, "BUILD_GENERAL1_MEDIUM", env["ComputeType"])
	assert.Equal(t, true, env["PrivilegedMode"])
	assert.Equal(t, []any{
		map[string]any{"Name": "NPM_TOKEN", "Type": "SECRETS_MANAGER", "Value": "npm-token"},
		map[string]any{"Name": "RETRIES", "Type": "PLAINTEXT", "Value": "3"},
		map[string]any{"Name": "STAGE", "Type": "PLAINTEXT", "Value": map[string]any{"Ref": "Stage"}},
	}, env["EnvironmentVariables"])

	cache := api["Cache"].(map[string]any)
	assert.Equal(t, "LOCAL", cache["Type"])
	assert.Equal(t, []any{"LOCAL_SOURCE_CACHE", "LOCAL_DOCKER_LAYER_CACHE"}, cache["Modes"])

	artifacts := api["Artifacts"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "Artifacts"}, artifacts["Location"])

	deploy := tmpl.Resources["Deploy"].Properties
	assert.Equal(t, "CODEPIPELINE", deploy["Source"].(map[string]any)["Type"])
	assert.Equal(t, "deploy/buildspec.yml", deploy["Source"].(map[string]any)["BuildSpec"])

	assert.Equal(t, "GITHUB", tmpl.Resources["Github"].Properties["ServerType"])
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{
			name: "unknown source",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Source: &SourceSpec{Type: "svn"}}}},
			want: `unknown source type "svn"`,
		},
		{
			name: "pipeline with source",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Pipeline: true, Source: &SourceSpec{Type: "github"}}}},
			want: "pipeline projects",
		},
		{
			name: "bad filter",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Source: &SourceSpec{
				Type:           "github",
				Owner:          "acme",
				Repo:           "api",
				WebhookFilters: []FilterSpec{{Events: []string{"PUSH"}, BaseBranch: "main"}},
			}}}},
			want: "webhook_filters[0]",
		},
		{
			name: "bad buildspec",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", BuildSpec: 42}}},
			want: "buildspec must be",
		},
		{
			name: "bad certificate",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Environment: EnvironmentSpec{Certificate: "cert.pem"}}}},
			want: "certificate must be",
		},
		{
			name: "s3 cache without bucket",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Cache: &CacheSpec{Type: "s3"}}}},
			want: "requires a bucket",
		},
		{
			name: "unknown notification",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Notifications: []NotifySpec{{On: "queued", Target: "arn:aws:sns:us-east-1:1:x"}}}}},
			want: "notifications[0]",
		},
		{
			name: "unknown cache mode",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Cache: &CacheSpec{Type: "local", Modes: []string{"remote"}}}}},
			want: `unknown cache mode "remote"`,
		},
		{
			name: "unknown metric",
			file: File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Alarms: []AlarmSpec{{Metric: "Queued"}}}}},
			want: `unknown metric "Queued"`,
		},
		{
			name: "unknown report writer",
			file: File{Name: "ci", ReportGroups: []ReportGroupSpec{{ID: "reports", WriteAccess: []string{"web"}}}},
			want: `report_groups[0] (reports): write_access: unknown project "web"`,
		},
		{
			name: "unknown credential",
			file: File{Name: "ci", SourceCredentials: []CredentialSpec{{ID: "x", Type: "gitlab"}}},
			want: `unknown credential type "gitlab"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.file, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild_NotificationMessage(t *testing.T) {
	f := &File{Name: "ci", Projects: []ProjectSpec{{
		ID:        "api",
		BuildSpec: map[string]any{"version": "0.2", "phases": map[string]any{"build": map[string]any{"commands": []any{"make"}}}},
		Notifications: []NotifySpec{{
			On:      "failed",
			Target:  "arn:aws:sns:us-east-1:123456789012:alerts",
			Message: "Build \"<project>\" is <status>\n\tsee <build>\x01",
		}},
	}}}

	tmpl, err := BuildTemplate(f, nil)
	require.NoError(t, err)

	targets := tmpl.Resources["ApiNotifyFailed"].Properties["Targets"].([]any)
	transformer := targets[0].(map[string]any)["InputTransformer"].(map[string]any)
	input := transformer["InputTemplate"].(string)
	assert.Equal(t, `"Build \"<project>\" is <status>\n\tsee <build>\u0001"`, input)

	var decoded string
	require.NoError(t, json.Unmarshal([]byte(input), &decoded))
	assert.Equal(t, f.Projects[0].Notifications[0].Message, decoded)
}

func TestBuild_SynthValidation(t *testing.T) {
	f := &File{Name: "ci", Projects: []ProjectSpec{{ID: "api", Timeout: 1}}}

	stack, err := Build(f, nil)
	require.NoError(t, err)

	_, err = stack.Synth()
	require.ErrorIs(t, err, codebuild.ErrValidation)
}

func TestBuilder_Value(t *testing.T) {
	b := &builder{file: &File{Parameters: map[string]Parameter{"Env": {Type: "String"}}}}

	assert.Equal(t, intrinsics.Ref{LogicalName: "Env"}, b.value("${Env}"))
	assert.Equal(t, intrinsics.Sub{String: "${Other}"}, b.value("${Other}"))
	assert.Equal(t, intrinsics.Sub{String: "arn:${AWS::Partition}:s3:::x"}, b.value("arn:${AWS::Partition}:s3:::x"))
	assert.Equal(t, "${!literal}", b.value("${!literal}"))
	assert.Equal(t, "plain", b.value("plain"))
	assert.Nil(t, b.optionalValue(""))
}

func TestBuild_SourcesAndLogging(t *testing.T) {
	webhook := false
	f := &File{
		Name: "ci",
		Projects: []ProjectSpec{{
			ID: "web",
			Source: &SourceSpec{
				Type:           "bitbucket",
				Owner:          "acme",
				Repo:           "web",
				Webhook:        &webhook,
				BuildStatusURL: "https://ci.example.com",
			},
			SecondarySources: []SourceSpec{
				{Type: "codecommit", Repository: "shared", Identifier: "shared"},
				{Type: "s3", Bucket: "ci-src", Path: "web/assets.zip", Identifier: "assets"},
			},
			SecondaryArtifacts: []ArtifactsSpec{{Type: "s3", Bucket: "ci-out", Identifier: "report"}},
			BuildSpec:          "buildspec.yml",
			Logging: &LoggingSpec{
				CloudWatch: &CloudWatchLogSpec{Disabled: true},
				S3:         &S3LogSpec{Bucket: "ci-logs", Prefix: "web"},
			},
			Vpc: &VpcSpec{VpcID: "vpc-1", Subnets: []string{"subnet-1"}, SecurityGroups: []string{"sg-1"}},
		}},
	}

	tmpl, err := BuildTemplate(f, nil)
	require.NoError(t, err)

	props := tmpl.Resources["Web"].Properties
	assert.Equal(t, "BITBUCKET", props["Source"].(map[string]any)["Type"])
	assert.Len(t, props["SecondarySources"], 2)
	assert.Len(t, props["SecondaryArtifacts"], 1)
	assert.NotContains(t, props, "Triggers")

	logs := props["LogsConfig"].(map[string]any)
	assert.Equal(t, "DISABLED", logs["CloudWatchLogs"].(map[string]any)["Status"])
	assert.Equal(t, "ENABLED", logs["S3Logs"].(map[string]any)["Status"])
	assert.Equal(t, "vpc-1", props["VpcConfig"].(map[string]any)["VpcId"])
	assert.Equal(t, "AWS::IAM::Policy", tmpl.Resources["WebPolicyDocument"].Type)
	assert.Equal(t, []string{"WebPolicyDocument"}, tmpl.Resources["Web"].DependsOn)
}
