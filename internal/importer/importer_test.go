package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-codebuild-go/internal/config"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

const handWritten = `
Description: Hand written CI
Parameters:
  Stage:
    Type: String
    Default: dev
Resources:
  BuildCache:
    Type: AWS::S3::Bucket
    Properties:
      VersioningConfiguration:
        Status: Enabled
      LifecycleConfiguration:
        Rules:
          - Status: Enabled
            ExpirationInDays: 30
  WebBuild:
    Type: AWS::CodeBuild::Project
    Properties:
      Name: !Sub "${Stage}-web"
      ServiceRole: arn:aws:iam::123456789012:role/ci
      SourceVersion: refs/heads/develop
      Source:
        Type: BITBUCKET
        Location: https://bitbucket.org/acme/web.git
        GitCloneDepth: 1
        BuildSpec: ci/buildspec.yml
      Triggers:
        Webhook: true
        BuildType: BUILD_BATCH
        FilterGroups:
          - - Type: EVENT
              Pattern: PUSH
            - Type: HEAD_REF
              Pattern: ^refs/tags/v1$
            - Type: COMMIT_MESSAGE
              Pattern: "\\[skip ci\\]"
              ExcludeMatchedPattern: true
          - - Type: EVENT
              Pattern: PULL_REQUEST_CREATED, PULL_REQUEST_MERGED
            - Type: HEAD_REF
              Pattern: ^refs/heads/feature/.*
            - Type: BASE_REF
              Pattern: refs/heads/main
      Environment:
        Type: LINUX_CONTAINER
        Image: aws/codebuild/standard:7.0
        ComputeType: BUILD_GENERAL1_LARGE
        EnvironmentVariables:
          - Name: STAGE
            Value: !Ref Stage
          - Name: TOKEN
            Type: PARAMETER_STORE
            Value: /ci/token
      Artifacts:
        Type: NO_ARTIFACTS
      Cache:
        Type: S3
        Location: !Join ["/", [!Ref BuildCache, web]]
      TimeoutInMinutes: 20
      LogsConfig:
        CloudWatchLogs:
          Status: ENABLED
          GroupName: /ci/web
      Tags:
        - Key: team
          Value: web
  Tests:
    Type: AWS::CodeBuild::ReportGroup
    Properties:
      Type: TEST
      ExportConfig:
        ExportConfigType: S3
        S3Destination:
          Bucket: !Ref BuildCache
          Path: reports
          Packaging: ZIP
  Credentials:
    Type: AWS::CodeBuild::SourceCredential
    Properties:
      ServerType: BITBUCKET
      AuthType: BASIC_AUTH
      Username: ci-bot
      Token: "{{resolve:secretsmanager:bitbucket}}"
  Topic:
    Type: AWS::SNS::Topic
`

func TestImport(t *testing.T) {
	tmpl, err := ParseTemplateContent([]byte(handWritten), "web-ci.yaml")
	require.NoError(t, err)

	result, err := Import(tmpl, "")
	require.NoError(t, err)
	f := result.File

	assert.Equal(t, "web-ci", f.Name)
	assert.Equal(t, "Hand written CI", f.Description)
	assert.Equal(t, config.Parameter{Type: "String", Default: "dev"}, f.Parameters["Stage"])
	assert.Equal(t, config.BucketSpec{Versioned: true, ExpirationDays: 30}, f.Buckets["build-cache"])

	require.Len(t, f.Projects, 1)
	web := f.Projects[0]
	assert.Equal(t, "web-build", web.ID)
	assert.Equal(t, "${Stage}-web", web.Name)
	assert.Equal(t, "arn:aws:iam::123456789012:role/ci", web.RoleArn)
	assert.Equal(t, 20*time.Minute, web.Timeout)
	assert.Equal(t, "ci/buildspec.yml", web.BuildSpec)
	assert.Nil(t, web.Artifacts)
	assert.Equal(t, map[string]string{"team": "web"}, web.Tags)

	require.NotNil(t, web.Source)
	assert.Equal(t, "bitbucket", web.Source.Type)
	assert.Equal(t, "acme", web.Source.Owner)
	assert.Equal(t, "web", web.Source.Repo)
	assert.Equal(t, "develop", web.Source.Branch)
	assert.Equal(t, 1, web.Source.CloneDepth)
	assert.True(t, *web.Source.Webhook)
	assert.True(t, web.Source.WebhookTriggersBatchBuild)
	assert.Equal(t, []config.FilterSpec{
		{Events: []string{"PUSH"}, Tag: "v1", CommitMessageNot: `\[skip ci\]`},
		{Events: []string{"PULL_REQUEST_CREATED", "PULL_REQUEST_MERGED"}, HeadRef: "^refs/heads/feature/.*", BaseBranch: "main"},
	}, web.Source.WebhookFilters)

	assert.Equal(t, "BUILD_GENERAL1_LARGE", web.Environment.Compute)
	assert.Equal(t, map[string]config.VariableSpec{
		"STAGE": {Value: "${Stage}"},
		"TOKEN": {Value: "/ci/token", Type: "parameter_store"},
	}, web.Environment.Variables)

	assert.Equal(t, &config.CacheSpec{Type: "s3", Bucket: "build-cache", Prefix: "web"}, web.Cache)
	assert.Equal(t, &config.LoggingSpec{CloudWatch: &config.CloudWatchLogSpec{LogGroup: "/ci/web"}}, web.Logging)

	require.Len(t, f.ReportGroups, 1)
	assert.Equal(t, config.ReportGroupSpec{
		ID:           "tests",
		Type:         "test",
		ExportBucket: "build-cache",
		ExportPath:   "reports",
		Zip:          true,
	}, f.ReportGroups[0])

	require.Len(t, f.SourceCredentials, 1)
	assert.Equal(t, config.CredentialSpec{
		ID:       "credentials",
		Type:     "bitbucket",
		Token:    "{{resolve:secretsmanager:bitbucket}}",
		Username: "ci-bot",
	}, f.SourceCredentials[0])

	assert.Equal(t, []string{"Topic: AWS::SNS::Topic is not imported"}, result.Warnings)

	_, err = config.BuildTemplate(f, nil)
	require.NoError(t, err)
}

const roundTripFile = `
name: ci
parameters:
  Stage:
    type: String
    default: dev
buckets:
  artifacts:
    versioned: true
projects:
  - id: api
    source:
      type: github
      owner: acme
      repo: api
      branch: main
      webhook_filters:
        - events: [PUSH]
          branch: main
        - events: [PULL_REQUEST_CREATED]
          base_branch: main
          file_path_not: ^docs/
    buildspec:
      version: "0.2"
      phases:
        build:
          commands: [make test]
    environment:
      image: aws/codebuild/standard:7.0
      compute: BUILD_GENERAL1_SMALL
      variables:
        STAGE: ${Stage}
        TOKEN:
          type: parameter_store
          value: /ci/token
    artifacts:
      type: s3
      bucket: artifacts
      path: api
    cache:
      type: local
      modes: [source]
    timeout: 30m
  - id: deploy
    pipeline: true
    buildspec: deploy/buildspec.yml
`

func TestImport_RoundTrip(t *testing.T) {
	original, err := config.Parse([]byte(roundTripFile))
	require.NoError(t, err)
	synthesized, err := config.BuildTemplate(original, nil)
	require.NoError(t, err)
	data, err := template.ToJSON(synthesized)
	require.NoError(t, err)

	tmpl, err := ParseTemplateContent(data, "ci.json")
	require.NoError(t, err)
	result, err := Import(tmpl, "ci")
	require.NoError(t, err)
	f := result.File

	require.Len(t, f.Projects, 2)
	api, deploy := f.Projects[0], f.Projects[1]
	assert.Equal(t, "api", api.ID)
	assert.Equal(t, "deploy", deploy.ID)

	assert.Equal(t, "acme", api.Source.Owner)
	assert.Equal(t, "main", api.Source.Branch)
	assert.Equal(t, original.Projects[0].Source.WebhookFilters, api.Source.WebhookFilters)
	assert.Equal(t, original.Projects[0].Environment.Variables, api.Environment.Variables)
	assert.Equal(t, map[string]any{
		"version": "0.2",
		"phases":  map[string]any{"build": map[string]any{"commands": []any{"make test"}}},
	}, api.BuildSpec)
	assert.Equal(t, "artifacts", api.Artifacts.Bucket)
	assert.Equal(t, "api", api.Artifacts.Path)
	assert.Equal(t, []string{"source"}, api.Cache.Modes)
	assert.Equal(t, 30*time.Minute, api.Timeout)
	assert.Empty(t, api.RoleArn)

	assert.True(t, deploy.Pipeline)
	assert.Nil(t, deploy.Source)
	assert.Nil(t, deploy.Artifacts)
	assert.Equal(t, "deploy/buildspec.yml", deploy.BuildSpec)

	rebuilt, err := config.BuildTemplate(f, nil)
	require.NoError(t, err)
	for _, prop := range []string{"Source", "Triggers", "Environment", "Cache", "Artifacts"} {
		assert.Equal(t, synthesized.Resources["Api"].Properties[prop], rebuilt.Resources["Api"].Properties[prop], prop)
	}
}

func TestConvertProject_Warnings(t *testing.T) {
	spec, warnings := ConvertProject("Api", map[string]any{
		"Name": map[string]any{"Fn::If": []any{"IsProd", "api", "api-dev"}},
		"Source": map[string]any{
			"Type":     "GITHUB",
			"Location": "https://example.com/acme/api.git",
		},
		"Triggers": map[string]any{
			"Webhook":      true,
			"FilterGroups": []any{[]any{map[string]any{"Type": "WORKFLOW_NAME", "Pattern": "ci"}}},
		},
	})

	assert.Equal(t, "api", spec.ID)
	assert.Empty(t, spec.Name)
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "Api.Name")
	assert.Contains(t, warnings[1], "cannot read owner")
	assert.Contains(t, warnings[2], "WORKFLOW_NAME")
}

func TestLiteralRef(t *testing.T) {
	tests := []struct {
		pattern, prefix, want string
		ok                    bool
	}{
		{"refs/heads/main", "refs/heads/", "main", true},
		{"^refs/heads/release$", "refs/heads/", "release", true},
		{"refs/heads/feature/.*", "refs/heads/", "", false},
		{"refs/tags/v1", "refs/heads/", "", false},
		{"refs/heads/", "refs/heads/", "", false},
	}
	for _, tt := range tests {
		got, ok := literalRef(tt.pattern, tt.prefix)
		assert.Equal(t, tt.ok, ok, tt.pattern)
		assert.Equal(t, tt.want, got, tt.pattern)
	}
}
