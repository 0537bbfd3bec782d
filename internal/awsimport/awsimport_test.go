package awsimport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-codebuild-go/internal/config"
)

type fakeClient struct {
	projects map[string]types.Project
	pages    [][]string
	requests [][]string
	err      error
}

func (f *fakeClient) BatchGetProjects(_ context.Context, in *codebuild.BatchGetProjectsInput, _ ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, in.Names)
	out := &codebuild.BatchGetProjectsOutput{}
	for _, name := range in.Names {
		if p, ok := f.projects[name]; ok {
			out.Projects = append(out.Projects, p)
		} else {
			out.ProjectsNotFound = append(out.ProjectsNotFound, name)
		}
	}
	return out, nil
}

func (f *fakeClient) ListProjects(_ context.Context, in *codebuild.ListProjectsInput, _ ...func(*codebuild.Options)) (*codebuild.ListProjectsOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = len(aws.ToString(in.NextToken))
	}
	out := &codebuild.ListProjectsOutput{Projects: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(string(make([]byte, page+1)))
	}
	return out, nil
}

func apiProject() types.Project {
	return types.Project{
		Name:             aws.String("api-build"),
		ServiceRole:      aws.String("arn:aws:iam::123456789012:role/ci"),
		TimeoutInMinutes: aws.Int32(45),
		Badge:            &types.ProjectBadge{BadgeEnabled: true},
		Source: &types.ProjectSource{
			Type:          types.SourceTypeGithub,
			Location:      aws.String("https://github.com/acme/api.git"),
			GitCloneDepth: aws.Int32(1),
			Buildspec:     aws.String("buildspec.yml"),
		},
		SourceVersion: aws.String("main"),
		Webhook: &types.Webhook{
			FilterGroups: [][]types.WebhookFilter{{
				{Type: types.WebhookFilterTypeEvent, Pattern: aws.String("PUSH")},
				{Type: types.WebhookFilterTypeHeadRef, Pattern: aws.String("^refs/heads/main$")},
				{Type: types.WebhookFilterTypeFilePath, Pattern: aws.String("^docs/"), ExcludeMatchedPattern: aws.Bool(true)},
			}},
		},
		Environment: &types.ProjectEnvironment{
			Type:           types.EnvironmentTypeLinuxContainer,
			Image:          aws.String("aws/codebuild/standard:7.0"),
			ComputeType:    types.ComputeTypeBuildGeneral1Medium,
			PrivilegedMode: aws.Bool(true),
			EnvironmentVariables: []types.EnvironmentVariable{
				{Name: aws.String("STAGE"), Value: aws.String("prod"), Type: types.EnvironmentVariableTypePlaintext},
				{Name: aws.String("TOKEN"), Value: aws.String("ci/token"), Type: types.EnvironmentVariableTypeSecretsManager},
			},
		},
		Artifacts: &types.ProjectArtifacts{
			Type:          types.ArtifactsTypeS3,
			Location:      aws.String("ci-artifacts"),
			Path:          aws.String("api"),
			NamespaceType: types.ArtifactNamespaceBuildId,
			Packaging:     types.ArtifactPackagingZip,
		},
		Cache: &types.ProjectCache{
			Type:  types.CacheTypeLocal,
			Modes: []types.CacheMode{types.CacheModeLocalSourceCache, types.CacheModeLocalDockerLayerCache},
		},
		LogsConfig: &types.LogsConfig{
			CloudWatchLogs: &types.CloudWatchLogsConfig{Status: types.LogsConfigStatusTypeEnabled},
			S3Logs: &types.S3LogsConfig{
				Status:   types.LogsConfigStatusTypeEnabled,
				Location: aws.String("ci-logs/api"),
			},
		},
		Tags: []types.Tag{{Key: aws.String("team"), Value: aws.String("platform")}},
	}
}

func TestImporter_Projects(t *testing.T) {
	client := &fakeClient{projects: map[string]types.Project{"api-build": apiProject()}}

	specs, warnings, err := New(client, nil).Projects(context.Background(), []string{"api-build"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, specs, 1)

	api := specs[0]
	assert.Equal(t, "api-build", api.ID)
	assert.Equal(t, "api-build", api.Name)
	assert.Equal(t, "arn:aws:iam::123456789012:role/ci", api.RoleArn)
	assert.Equal(t, 45*time.Minute, api.Timeout)
	assert.True(t, api.Badge)
	assert.Equal(t, "buildspec.yml", api.BuildSpec)

	assert.Equal(t, "github", api.Source.Type)
	assert.Equal(t, "acme", api.Source.Owner)
	assert.Equal(t, "api", api.Source.Repo)
	assert.Equal(t, "main", api.Source.Branch)
	assert.Equal(t, []config.FilterSpec{{Events: []string{"PUSH"}, Branch: "main", FilePathNot: "^docs/"}}, api.Source.WebhookFilters)

	assert.True(t, api.Environment.Privileged)
	assert.Equal(t, map[string]config.VariableSpec{
		"STAGE": {Value: "prod"},
		"TOKEN": {Value: "ci/token", Type: "secrets_manager"},
	}, api.Environment.Variables)

	assert.Equal(t, "ci-artifacts", api.Artifacts.Bucket)
	assert.Equal(t, []string{"source", "docker_layer"}, api.Cache.Modes)
	assert.Equal(t, &config.S3LogSpec{Bucket: "ci-logs", Prefix: "api"}, api.Logging.S3)
	assert.Equal(t, map[string]string{"team": "platform"}, api.Tags)

	_, err = config.BuildTemplate(&config.File{Name: "ci", Projects: specs}, nil)
	require.NoError(t, err)
}

func TestImporter_ProjectsErrors(t *testing.T) {
	client := &fakeClient{projects: map[string]types.Project{}}
	_, _, err := New(client, nil).Projects(context.Background(), []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	client.err = errors.New("access denied")
	_, _, err = New(client, nil).Projects(context.Background(), []string{"api"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestImporter_FileListsEveryProject(t *testing.T) {
	projects := map[string]types.Project{}
	var names []string
	for i := 0; i < 150; i++ {
		name := "p" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		names = append(names, name)
		projects[name] = types.Project{
			Name:   aws.String(name),
			Source: &types.ProjectSource{Type: types.SourceTypeNoSource, Buildspec: aws.String("version: 0.2\nphases: {}\n")},
		}
	}
	client := &fakeClient{projects: projects, pages: [][]string{names[:90], names[90:]}}

	result, err := New(client, nil).File(context.Background(), "account", nil)
	require.NoError(t, err)
	assert.Equal(t, "account", result.File.Name)
	assert.Len(t, result.File.Projects, 150)
	require.Len(t, client.requests, 2)
	assert.Len(t, client.requests[0], 100)
	assert.Len(t, client.requests[1], 50)
	assert.Equal(t, "none", result.File.Projects[0].Source.Type)
	assert.IsType(t, map[string]any{}, result.File.Projects[0].BuildSpec)
}
