package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
name: ci
description: CI projects
parameters:
  Stage:
    type: String
    default: dev
buckets:
  artifacts:
    versioned: true
projects:
  - id: api
    name: api-build
    source:
      type: github
      owner: acme
      repo: api
      branch: main
      clone_depth: 1
      webhook_filters:
        - events: [push]
          branch: main
        - events: [PULL_REQUEST_CREATED, PULL_REQUEST_UPDATED]
          base_branch: main
          file_path_not: ^docs/
    buildspec:
      version: "0.2"
      phases:
        build:
          commands: [make test]
    environment:
      image: aws/codebuild/standard:7.0
      compute: BUILD_GENERAL1_MEDIUM
      privileged: true
      variables:
        STAGE: ${Stage}
        RETRIES: 3
        NPM_TOKEN:
          type: secrets_manager
          value: npm-token
    artifacts:
      type: s3
      bucket: artifacts
      path: api
    cache:
      type: local
      modes: [source, docker_layer]
    timeout: 45m
    queued_timeout: 2h
    badge: true
    tags:
      team: platform
    notifications:
      - on: failed
        target: arn:aws:sns:us-east-1:123456789012:alerts
        message: "<project> is <status>"
    alarms:
      - metric: FailedBuilds
        threshold: 1
        period: 15m
    outputs: true
  - id: deploy
    pipeline: true
    buildspec: deploy/buildspec.yml
report_groups:
  - id: unit-tests
    write_access: [api]
source_credentials:
  - id: github
    type: github
    token: "{{resolve:secretsmanager:github-token}}"
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	assert.Equal(t, "ci", f.Name)
	assert.Equal(t, Parameter{Type: "String", Default: "dev"}, f.Parameters["Stage"])
	assert.Equal(t, BucketSpec{Versioned: true}, f.Buckets["artifacts"])
	require.Len(t, f.Projects, 2)

	api := f.Projects[0]
	assert.Equal(t, 45*time.Minute, api.Timeout)
	assert.Equal(t, 2*time.Hour, api.QueuedTimeout)
	assert.Equal(t, "github", api.Source.Type)
	require.Len(t, api.Source.WebhookFilters, 2)
	assert.Equal(t, []string{"push"}, api.Source.WebhookFilters[0].Events)
	assert.Equal(t, "^docs/", api.Source.WebhookFilters[1].FilePathNot)
	assert.Equal(t, map[string]VariableSpec{
		"STAGE":     {Value: "${Stage}"},
		"RETRIES":   {Value: "3"},
		"NPM_TOKEN": {Value: "npm-token", Type: "secrets_manager"},
	}, api.Environment.Variables)
	assert.IsType(t, map[string]any{}, api.BuildSpec)
	assert.Equal(t, 15*time.Minute, api.Alarms[0].Period)

	deploy := f.Projects[1]
	assert.True(t, deploy.Pipeline)
	assert.Equal(t, "deploy/buildspec.yml", deploy.BuildSpec)

	assert.Equal(t, []string{"api"}, f.ReportGroups[0].WriteAccess)
	assert.Equal(t, "{{resolve:secretsmanager:github-token}}", f.SourceCredentials[0].Token)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "name: [", "parsing YAML"},
		{"unknown key", "name: ci\nprojects:\n  - id: api\n    timeuot: 5m\n", "timeuot"},
		{"bad duration", "name: ci\nprojects:\n  - id: api\n    timeout: soon\n", "decoding project file"},
		{"no name", "projects: []\n", "requires a name"},
		{"no project id", "name: ci\nprojects:\n  - description: x\n", "id is required"},
		{"duplicate project", "name: ci\nprojects:\n  - id: api\n  - id: api\n", "duplicate id"},
		{"unknown report writer", "name: ci\nreport_groups:\n  - id: r\n    write_access: [web]\n", `unknown project "web"`},
		{"credential id", "name: ci\nsource_credentials:\n  - type: github\n", "id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ci", f.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFile_MarshalRoundTrip(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	data, err := f.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "STAGE:")
	assert.Contains(t, string(data), "timeout: 45m0s")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func TestEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WETWIRE_CODEBUILD_FORMAT=yaml\nAWS_REGION=eu-west-1\n"), 0o644))

	env, err := EnvFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Env{Format: "yaml", Region: "eu-west-1"}, env)

	t.Setenv(EnvFormat, "")
	t.Setenv(EnvProfile, "ci")
	env = EnvFromOS()
	assert.Equal(t, "json", env.Format)
	assert.Equal(t, "ci", env.Profile)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WETWIRE_CODEBUILD_LOG_LEVEL=debug\nWETWIRE_CODEBUILD_OUTPUT=from-file\n"), 0o644))

	t.Setenv(EnvOutput, "from-env")
	t.Setenv(EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(EnvLogLevel))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "debug", os.Getenv(EnvLogLevel))
	assert.Equal(t, "from-env", os.Getenv(EnvOutput))
}
