package codebuild

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
	"github.com/lex00/wetwire-codebuild-go/resources/iam"
)

func inlineBuildSpec() BuildSpec {
	return BuildSpecFromObject(map[string]any{
		"version": "0.2",
		"phases": map[string]any{
			"build": map[string]any{"commands": []any{"make test"}},
		},
	})
}

func synth(t *testing.T, stack *Stack) *wetwire.Template {
	t.Helper()
	tmpl, err := stack.Synth()
	require.NoError(t, err)
	return tmpl
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func TestNewProject_Defaults(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()},
	})
	require.NoError(t, err)

	assert.Equal(t, "Api", p.LogicalID())
	assert.Equal(t, intrinsics.GetAtt{LogicalName: "Api", Attribute: "Arn"}, p.ProjectArn())
	assert.Equal(t, intrinsics.Ref{LogicalName: "Api"}, p.ProjectName())

	role := p.ServiceRole()
	require.NotNil(t, role)
	assert.Equal(t, "ApiRole", role.LogicalID())
	assert.Equal(t, "ApiRoleDefaultPolicy", role.PolicyLogicalID())
	assert.Equal(t, role, p.Role())

	r := p.Resource()
	assert.Equal(t, role.RoleArn(), r.ServiceRole)
	assert.Equal(t, cfn.SourceTypeNoSource, r.Source.Type)
	assert.Contains(t, r.Source.BuildSpec, `"version": "0.2"`)
	assert.Equal(t, cfn.ArtifactsTypeNoArtifacts, r.Artifacts.Type)
	assert.Equal(t, cfn.EnvironmentTypeLinuxContainer, r.Environment.Type)
	assert.Equal(t, "aws/codebuild/standard:7.0", r.Environment.Image)
	assert.Equal(t, string(ComputeTypeSmall), r.Environment.ComputeType)
	assert.Equal(t, string(ImagePullPrincipalCodeBuild), r.Environment.ImagePullCredentialsType)
	assert.Nil(t, r.Cache)
	assert.Nil(t, r.TimeoutInMinutes)

	statements := role.Statements()
	require.Len(t, statements, 2)
	assert.Equal(t, intrinsics.Allow(
		[]string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
		intrinsics.RegionalArn("logs", "log-group:/aws/codebuild/${Api}"),
		intrinsics.RegionalArn("logs", "log-group:/aws/codebuild/${Api}:*"),
	), statements[0])
	assert.Equal(t, intrinsics.RegionalArn("codebuild", "report-group/${Api}-*"), statements[1].Resource)
}

func TestNewProject_Synth(t *testing.T) {
	stack := NewStack("ci")
	_, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()},
	})
	require.NoError(t, err)

	tmpl := synth(t, stack)
	require.Len(t, tmpl.Resources, 3)
	assert.Equal(t, "AWS::CodeBuild::Project", tmpl.Resources["Api"].Type)
	assert.Equal(t, "AWS::IAM::Role", tmpl.Resources["ApiRole"].Type)
	assert.Equal(t, "AWS::IAM::Policy", tmpl.Resources["ApiRoleDefaultPolicy"].Type)

	deps := template.Dependencies(tmpl)
	assert.Equal(t, []string{"ApiRole"}, deps["Api"])
	assert.Equal(t, []string{"Api", "ApiRole"}, deps["ApiRoleDefaultPolicy"])

	role := tmpl.Resources["ApiRole"].Properties
	assert.Equal(t, map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{map[string]any{
			"Effect":    "Allow",
			"Principal": map[string]any{"Service": "codebuild.amazonaws.com"},
			"Action":    "sts:AssumeRole",
		}},
	}, role["AssumeRolePolicyDocument"])

	policy := tmpl.Resources["ApiRoleDefaultPolicy"].Properties
	assert.Equal(t, "ApiRoleDefaultPolicy", policy["PolicyName"])
	assert.Equal(t, []any{map[string]any{"Ref": "ApiRole"}}, policy["Roles"])

	project := tmpl.Resources["Api"].Properties
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"ApiRole", "Arn"}}, project["ServiceRole"])
	assert.Equal(t, map[string]any{"Type": "NO_ARTIFACTS"}, project["Artifacts"])
}

func TestNewProject_Properties(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{
			ProjectName:          "api-build",
			Description:          "builds the api",
			Timeout:              90 * time.Minute,
			QueuedTimeout:        30 * time.Minute,
			Badge:                true,
			ConcurrentBuildLimit: 2,
			Visibility:           cfn.VisibilityPublicRead,
			AutoRetryLimit:       intPtr(3),
			EncryptionKeyArn:     "arn:aws:kms:us-east-1:123456789012:key/abc",
			Tags:                 map[string]string{"team": "platform", "cost-center": "ci"},
		},
		Source: GitHubSource(GitHubSourceProps{Owner: "acme", Repo: "api"}),
	})
	require.NoError(t, err)

	r := p.Resource()
	assert.Equal(t, "api-build", r.Name)
	assert.Equal(t, "builds the api", r.Description)
	assert.Equal(t, 90, r.TimeoutInMinutes)
	assert.Equal(t, 30, r.QueuedTimeoutInMinutes)
	assert.Equal(t, true, r.BadgeEnabled)
	assert.Equal(t, 2, r.ConcurrentBuildLimit)
	assert.Equal(t, "PUBLIC_READ", r.Visibility)
	assert.Equal(t, 3, r.AutoRetryLimit)
	assert.Equal(t, "arn:aws:kms:us-east-1:123456789012:key/abc", r.EncryptionKey)
	assert.Equal(t, []wetwire.Tag{{Key: "cost-center", Value: "ci"}, {Key: "team", Value: "platform"}}, r.Tags)

	assert.Contains(t, p.ServiceRole().Statements(), intrinsics.Allow(
		[]string{"kms:Decrypt", "kms:Encrypt", "kms:ReEncrypt*", "kms:GenerateDataKey*"},
		"arn:aws:kms:us-east-1:123456789012:key/abc",
	))

	tmpl := synth(t, stack)
	assert.Equal(t, int64(90), tmpl.Resources["Api"].Properties["TimeoutInMinutes"])
}

func TestNewProject_DuplicateID(t *testing.T) {
	stack := NewStack("ci")
	_, err := NewProject(stack, "api", ProjectProps{})
	require.NoError(t, err)

	_, err = NewProject(stack, "api", ProjectProps{})
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestNewProject_ExistingRole(t *testing.T) {
	stack := NewStack("ci")
	role := RoleFromArn("arn:aws:iam::123456789012:role/ci-builds")

	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec(), Role: role},
	})
	require.NoError(t, err)

	assert.Nil(t, p.ServiceRole())
	assert.Equal(t, "arn:aws:iam::123456789012:role/ci-builds", p.Resource().ServiceRole)
	assert.Equal(t, "ci-builds", role.RoleName())

	p.AddToRolePolicy(intrinsics.Allow([]string{"s3:GetObject"}, "*"))

	tmpl := synth(t, stack)
	assert.Len(t, tmpl.Resources, 1)
}

func TestNewProject_Validation(t *testing.T) {
	tests := []struct {
		name  string
		props ProjectProps
		want  string
	}{
		{
			name:  "timeout too short",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Timeout: 3 * time.Minute}},
			want:  "api/Timeout",
		},
		{
			name:  "timeout not whole minutes",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Timeout: 90*time.Minute + 30*time.Second}},
			want:  "api/Timeout",
		},
		{
			name:  "queued timeout too long",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{QueuedTimeout: 481 * time.Minute}},
			want:  "api/QueuedTimeout",
		},
		{
			name:  "auto retry limit",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{AutoRetryLimit: intPtr(11)}},
			want:  "api/AutoRetryLimit",
		},
		{
			name:  "negative concurrent build limit",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{ConcurrentBuildLimit: -1}},
			want:  "api/ConcurrentBuildLimit",
		},
		{
			name:  "badge without source",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Badge: true}},
			want:  "badge is not supported for source type NO_SOURCE",
		},
		{
			name:  "pipeline source without pipeline artifacts",
			props: ProjectProps{Source: CodePipelineSource()},
			want:  "both source and artifacts must be set to CodePipeline",
		},
		{
			name: "arm image with medium compute",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Environment: BuildEnvironment{
				BuildImage:  LinuxArmBuildImageAmazonLinux2Standard3,
				ComputeType: ComputeTypeMedium,
			}}},
			want: "ARM images only support",
		},
		{
			name: "lambda compute on a standard image",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Environment: BuildEnvironment{
				ComputeType: ComputeTypeLambda2GB,
			}}},
			want: "requires a Lambda image",
		},
		{
			name: "privileged lambda image",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Environment: BuildEnvironment{
				BuildImage: LinuxLambdaBuildImageNodejs20,
				Privileged: true,
			}}},
			want: "privileged mode",
		},
		{
			name: "lambda with timeout",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				Environment: BuildEnvironment{BuildImage: LinuxLambdaBuildImagePython3_12},
				Timeout:     10 * time.Minute,
			}},
			want: "Lambda compute does not support timeouts",
		},
		{
			name: "lambda with cache",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				Environment: BuildEnvironment{BuildImage: LinuxLambdaBuildImagePython3_12},
				Cache:       LocalCache(LocalCacheModeSource),
			}},
			want: "Lambda compute does not support caching",
		},
		{
			name: "plaintext secret",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				EnvironmentVariables: map[string]BuildEnvironmentVariable{
					"TOKEN": {Value: "{{resolve:secretsmanager:ci/token:SecretString:token}}"},
				},
			}},
			want: "plaintext environment variable TOKEN contains a secret reference",
		},
		{
			name: "plaintext secret in a Sub",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				EnvironmentVariables: map[string]BuildEnvironmentVariable{
					"PASSWORD": {Value: intrinsics.Sub{String: "{{resolve:ssm-secure:/${AWS::StackName}/password}}"}},
				},
			}},
			want: "plaintext environment variable PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := NewStack("ci")
			if tt.props.BuildSpec.IsZero() {
				tt.props.BuildSpec = inlineBuildSpec()
			}
			_, err := NewProject(stack, "api", tt.props)
			require.NoError(t, err)

			_, err = stack.Synth()
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewProject_SecretCheckDisabled(t *testing.T) {
	stack := NewStack("ci")
	_, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		BuildSpec:                           inlineBuildSpec(),
		CheckSecretsInPlainTextEnvVariables: boolPtr(false),
		EnvironmentVariables: map[string]BuildEnvironmentVariable{
			"TOKEN": {Value: "{{resolve:secretsmanager:ci/token}}"},
		},
	}})
	require.NoError(t, err)

	_, err = stack.Synth()
	require.NoError(t, err)
}

func TestNewProject_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name  string
		props ProjectProps
		want  string
	}{
		{
			name:  "s3 source without bucket",
			props: ProjectProps{Source: S3Source(S3SourceProps{Path: "src.zip"})},
			want:  "S3 source requires a bucket",
		},
		{
			name:  "s3 artifacts without bucket",
			props: ProjectProps{Artifacts: S3Artifacts(S3ArtifactsProps{})},
			want:  "S3 artifacts require a bucket",
		},
		{
			name:  "bucket cache without bucket",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{Cache: BucketCache(nil, "cache")}},
			want:  "bucket cache requires a bucket",
		},
		{
			name: "clone depth",
			props: ProjectProps{Source: GitHubSource(GitHubSourceProps{
				Owner: "acme", Repo: "api", CloneDepth: 1001,
			})},
			want: "clone depth must be between 0 and 1000",
		},
		{
			name: "s3 logging without bucket",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				Logging: &LoggingOptions{S3: &S3LoggingOptions{}},
			}},
			want: "S3 logging requires a bucket",
		},
		{
			name: "vpc without subnets",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				Vpc: &VpcConfig{VpcID: "vpc-1", SecurityGroupIDs: []any{"sg-1"}},
			}},
			want: "at least one subnet",
		},
		{
			name: "incomplete file system location",
			props: ProjectProps{CommonProjectProps: CommonProjectProps{
				FileSystemLocations: []EfsFileSystemLocation{{Identifier: "cache"}},
			}},
			want: "api/FileSystemLocations[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProject(NewStack("ci"), "api", tt.props)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewProject_EnvironmentVariables(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		BuildSpec: inlineBuildSpec(),
		Environment: BuildEnvironment{
			Privileged: true,
			EnvironmentVariables: map[string]BuildEnvironmentVariable{
				"STAGE": {Value: "dev"},
				"TOKEN": {Value: "/ci/token", Type: EnvVarParameterStore},
			},
		},
		EnvironmentVariables: map[string]BuildEnvironmentVariable{
			"STAGE": {Value: "prod"},
			"DB":    {Value: "ci/db:password", Type: EnvVarSecretsManager},
		},
	}})
	require.NoError(t, err)

	env := p.Resource().Environment
	assert.Equal(t, true, env.PrivilegedMode)
	assert.Equal(t, []cfn.Project_EnvironmentVariable{
		{Name: "DB", Type: "SECRETS_MANAGER", Value: "ci/db:password"},
		{Name: "STAGE", Type: "PLAINTEXT", Value: "prod"},
		{Name: "TOKEN", Type: "PARAMETER_STORE", Value: "/ci/token"},
	}, env.EnvironmentVariables)

	statements := p.ServiceRole().Statements()
	assert.Contains(t, statements, intrinsics.Allow([]string{"ssm:GetParameters"},
		intrinsics.RegionalArn("ssm", "parameter/ci/token")))
	assert.Contains(t, statements, intrinsics.Allow([]string{"secretsmanager:GetSecretValue"},
		intrinsics.RegionalArn("secretsmanager", "secret:ci/db-??????")))
}

func TestSecretArn(t *testing.T) {
	assert.Equal(t, "arn:aws:secretsmanager:us-east-1:123456789012:secret:ci/db-AbCdEf*",
		secretArn("arn:aws:secretsmanager:us-east-1:123456789012:secret:ci/db-AbCdEf:password::"))
	assert.Equal(t, intrinsics.RegionalArn("secretsmanager", "secret:ci/db-??????"), secretArn("ci/db"))
	assert.Equal(t, intrinsics.Join{Delimiter: "", Values: []any{intrinsics.Ref{LogicalName: "Secret"}, "*"}},
		secretArn(intrinsics.Ref{LogicalName: "Secret"}))
}

func TestParameterArn(t *testing.T) {
	assert.Equal(t, "arn:aws:ssm:us-east-1:123456789012:parameter/ci/token",
		parameterArn("arn:aws:ssm:us-east-1:123456789012:parameter/ci/token"))
	assert.Equal(t, intrinsics.RegionalArn("ssm", "parameter/ci/token"), parameterArn("ci/token"))
}

func TestNewProject_Artifacts(t *testing.T) {
	stack := NewStack("ci")
	bucket := BucketFromName("ci-artifacts")

	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()},
		Artifacts:          S3Artifacts(S3ArtifactsProps{Bucket: bucket, Path: "api", Encryption: boolPtr(false)}),
	})
	require.NoError(t, err)

	a := p.Resource().Artifacts
	assert.Equal(t, cfn.ArtifactsTypeS3, a.Type)
	assert.Equal(t, "ci-artifacts", a.Location)
	assert.Equal(t, "api", a.Path)
	assert.Nil(t, a.Name)
	assert.Equal(t, cfn.NamespaceTypeBuildID, a.NamespaceType)
	assert.Equal(t, cfn.PackagingZip, a.Packaging)
	assert.Equal(t, true, a.OverrideArtifactName)
	assert.Equal(t, true, a.EncryptionDisabled)

	actions := append(append([]string{}, bucketReadActions...), bucketWriteActions...)
	assert.Contains(t, p.ServiceRole().Statements(), intrinsics.Allow(actions,
		intrinsics.GlobalArn("s3", "ci-artifacts"),
		intrinsics.GlobalArn("s3", "ci-artifacts/*")))
}

func TestNewProject_ArtifactsNamed(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()},
		Artifacts: S3Artifacts(S3ArtifactsProps{
			Bucket:         BucketFromName("ci-artifacts"),
			Name:           "api.zip",
			IncludeBuildID: boolPtr(false),
			PackageZip:     boolPtr(false),
		}),
	})
	require.NoError(t, err)

	a := p.Resource().Artifacts
	assert.Equal(t, "api.zip", a.Name)
	assert.Equal(t, cfn.NamespaceTypeNone, a.NamespaceType)
	assert.Equal(t, cfn.PackagingNone, a.Packaging)
	assert.Nil(t, a.OverrideArtifactName)
	assert.Nil(t, a.EncryptionDisabled)
}

func TestNewProject_Cache(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		p, err := NewProject(NewStack("ci"), "api", ProjectProps{CommonProjectProps: CommonProjectProps{
			Cache: LocalCache(LocalCacheModeSource, LocalCacheModeDockerLayer),
		}})
		require.NoError(t, err)

		assert.Equal(t, &cfn.Project_ProjectCache{
			Type:  cfn.CacheTypeLocal,
			Modes: []any{"LOCAL_SOURCE_CACHE", "LOCAL_DOCKER_LAYER_CACHE"},
		}, p.Resource().Cache)
	})

	t.Run("bucket", func(t *testing.T) {
		p, err := NewProject(NewStack("ci"), "api", ProjectProps{CommonProjectProps: CommonProjectProps{
			Cache: BucketCache(BucketFromName("ci-cache"), "api"),
		}})
		require.NoError(t, err)

		assert.Equal(t, &cfn.Project_ProjectCache{Type: cfn.CacheTypeS3, Location: "ci-cache/api"}, p.Resource().Cache)
		actions := append(append([]string{}, bucketReadActions...), bucketWriteActions...)
		assert.Contains(t, p.ServiceRole().Statements(), intrinsics.Allow(actions,
			intrinsics.GlobalArn("s3", "ci-cache"),
			intrinsics.GlobalArn("s3", "ci-cache/api/*")))
	})

	t.Run("owned bucket", func(t *testing.T) {
		stack := NewStack("ci")
		bucket, err := NewBucket(stack, "cache", BucketProps{ExpirationDays: 7})
		require.NoError(t, err)

		p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
			BuildSpec: inlineBuildSpec(),
			Cache:     BucketCache(bucket, "api"),
		}})
		require.NoError(t, err)

		assert.Equal(t, intrinsics.Join{Delimiter: "", Values: []any{intrinsics.Ref{LogicalName: "Cache"}, "/api"}},
			p.Resource().Cache.Location)

		tmpl := synth(t, stack)
		assert.Contains(t, template.Dependencies(tmpl)["Api"], "Cache")
	})

	t.Run("none", func(t *testing.T) {
		p, err := NewProject(NewStack("ci"), "api", ProjectProps{CommonProjectProps: CommonProjectProps{Cache: NoCache()}})
		require.NoError(t, err)
		assert.Equal(t, &cfn.Project_ProjectCache{Type: cfn.CacheTypeNoCache}, p.Resource().Cache)
	})
}

func TestNewProject_Logging(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		BuildSpec: inlineBuildSpec(),
		Logging: &LoggingOptions{
			CloudWatch: &CloudWatchLoggingOptions{LogGroupName: "/ci/api", Prefix: "build"},
			S3:         &S3LoggingOptions{Bucket: BucketFromName("ci-logs"), Prefix: "api", Encrypted: boolPtr(false)},
		},
	}})
	require.NoError(t, err)

	logs := p.Resource().LogsConfig
	require.NotNil(t, logs)
	assert.Equal(t, &cfn.Project_CloudWatchLogsConfig{
		Status:     cfn.LogsStatusEnabled,
		GroupName:  "/ci/api",
		StreamName: "build",
	}, logs.CloudWatchLogs)
	assert.Equal(t, &cfn.Project_S3LogsConfig{
		Status:             cfn.LogsStatusEnabled,
		Location:           "ci-logs/api",
		EncryptionDisabled: true,
	}, logs.S3Logs)

	statements := p.ServiceRole().Statements()
	assert.Contains(t, statements, intrinsics.Allow([]string{"logs:CreateLogStream", "logs:PutLogEvents"},
		intrinsics.RegionalArn("logs", "log-group:/ci/api:*")))
	assert.Contains(t, statements, intrinsics.Allow(bucketWriteActions,
		intrinsics.GlobalArn("s3", "ci-logs"),
		intrinsics.GlobalArn("s3", "ci-logs/api/*")))
}

func TestNewProject_LoggingDisabled(t *testing.T) {
	p, err := NewProject(NewStack("ci"), "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		Logging: &LoggingOptions{CloudWatch: &CloudWatchLoggingOptions{Enabled: boolPtr(false)}},
	}})
	require.NoError(t, err)

	assert.Equal(t, &cfn.Project_CloudWatchLogsConfig{Status: cfn.LogsStatusDisabled}, p.Resource().LogsConfig.CloudWatchLogs)
	assert.Nil(t, p.Resource().LogsConfig.S3Logs)
}

func TestNewProject_Vpc(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		Vpc: &VpcConfig{VpcID: "vpc-1", SubnetIDs: []any{"subnet-a"}, SecurityGroupIDs: []any{"sg-1"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, &cfn.Project_VpcConfig{
		VpcId:            "vpc-1",
		Subnets:          []any{"subnet-a"},
		SecurityGroupIds: []any{"sg-1"},
	}, p.Resource().VpcConfig)

	res, ok := stack.Resource("ApiPolicyDocument")
	require.True(t, ok)
	policy := res.(*iam.Policy)
	assert.Equal(t, []any{intrinsics.Ref{LogicalName: "ApiRole"}}, policy.Roles)

	var found bool
	for _, s := range policy.PolicyDocument.(*intrinsics.PolicyDocument).Statement {
		if s := s.(intrinsics.PolicyStatement); s.Action == "ec2:CreateNetworkInterfacePermission" {
			found = true
			cond := s.Condition[intrinsics.StringEquals].(intrinsics.Json)
			assert.Equal(t, "codebuild.amazonaws.com", cond["ec2:AuthorizedService"])
		}
	}
	assert.True(t, found)
	for _, s := range p.ServiceRole().Statements() {
		assert.NotEqual(t, "ec2:CreateNetworkInterfacePermission", s.Action)
	}

	tmpl := synth(t, stack)
	deps := template.Dependencies(tmpl)
	assert.Equal(t, []string{"ApiPolicyDocument", "ApiRole"}, deps["Api"])
	assert.Equal(t, []string{"ApiRole"}, deps["ApiPolicyDocument"])
	assert.Equal(t, []string{"Api", "ApiRole"}, deps["ApiRoleDefaultPolicy"])
}

func TestNewProject_VpcImportedRole(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		Role: RoleFromArn("arn:aws:iam::123456789012:role/ci"),
		Vpc:  &VpcConfig{VpcID: "vpc-1", SubnetIDs: []any{"subnet-a"}, SecurityGroupIDs: []any{"sg-1"}},
	}})
	require.NoError(t, err)

	_, ok := stack.Resource("ApiPolicyDocument")
	assert.False(t, ok)
	assert.NotNil(t, p.Resource().VpcConfig)
	synth(t, stack)
}

func TestNewProject_RollsBackOnError(t *testing.T) {
	stack := NewStack("ci")
	role, err := NewRole(stack, "shared", RoleProps{AssumedBy: []string{"codebuild.amazonaws.com"}})
	require.NoError(t, err)
	before := stack.Resources()

	_, err = NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{
			Role: role,
			Vpc:  &VpcConfig{VpcID: "vpc-1", SubnetIDs: []any{"subnet-a"}, SecurityGroupIDs: []any{"sg-1"}},
		},
		Source:             S3Source(S3SourceProps{Bucket: BucketFromName("ci-src"), Path: "src.zip"}),
		SecondaryArtifacts: []IArtifacts{S3Artifacts(S3ArtifactsProps{Bucket: BucketFromName("ci-out")})},
	})
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, before, stack.Resources())
	assert.Empty(t, role.Statements())
	assert.Empty(t, role.PolicyLogicalID())
	require.NoError(t, stack.Validate())

	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		Role:      role,
		BuildSpec: inlineBuildSpec(),
	}})
	require.NoError(t, err)
	assert.Equal(t, "Api", p.LogicalID())
	assert.Equal(t, "SharedDefaultPolicy", role.PolicyLogicalID())
	synth(t, stack)
}

func TestNewProject_FileSystemLocations(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{
		BuildSpec: inlineBuildSpec(),
		FileSystemLocations: []EfsFileSystemLocation{{
			Identifier: "deps",
			Location:   "fs-1.efs.us-east-1.amazonaws.com:/deps",
			MountPoint: "/mnt/deps",
		}},
	}})
	require.NoError(t, err)

	require.NoError(t, p.AddFileSystemLocation(EfsFileSystemLocation{
		Identifier:   "cache",
		Location:     "fs-1.efs.us-east-1.amazonaws.com:/cache",
		MountPoint:   "/mnt/cache",
		MountOptions: "nfsvers=4.1",
	}))
	err = p.AddFileSystemLocation(EfsFileSystemLocation{Identifier: "broken"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "FileSystemLocations[2]")

	locations := p.Resource().FileSystemLocations
	require.Len(t, locations, 2)
	assert.Equal(t, "EFS", locations[0].Type)
	assert.Nil(t, locations[0].MountOptions)
	assert.Equal(t, "nfsvers=4.1", locations[1].MountOptions)
}

func TestProject_SecondarySources(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()},
		SecondarySources: []ISource{
			GitHubSource(GitHubSourceProps{Owner: "acme", Repo: "lib", BranchOrRef: "v1", Identifier: "lib"}),
		},
		SecondaryArtifacts: []IArtifacts{
			S3Artifacts(S3ArtifactsProps{Bucket: BucketFromName("ci-reports"), Identifier: "reports"}),
		},
	})
	require.NoError(t, err)

	r := p.Resource()
	require.Len(t, r.SecondarySources, 1)
	assert.Equal(t, "lib", r.SecondarySources[0].SourceIdentifier)
	assert.Equal(t, []cfn.Project_ProjectSourceVersion{{SourceIdentifier: "lib", SourceVersion: "v1"}}, r.SecondarySourceVersions)
	require.Len(t, r.SecondaryArtifacts, 1)
	assert.Equal(t, "reports", r.SecondaryArtifacts[0].ArtifactIdentifier)

	err = p.AddSecondarySource(S3Source(S3SourceProps{Bucket: BucketFromName("ci-src")}))
	require.ErrorIs(t, err, ErrValidation)
	err = p.AddSecondaryArtifact(S3Artifacts(S3ArtifactsProps{Bucket: BucketFromName("ci-src")}))
	require.ErrorIs(t, err, ErrValidation)

	synth(t, stack)
}

func TestProject_SecondarySourceLimits(t *testing.T) {
	t.Run("too many", func(t *testing.T) {
		stack := NewStack("ci")
		p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()}})
		require.NoError(t, err)
		for i := 0; i < 13; i++ {
			require.NoError(t, p.AddSecondarySource(S3Source(S3SourceProps{
				Bucket:     BucketFromName("ci-src"),
				Path:       "src.zip",
				Identifier: "src" + strings.Repeat("x", i),
			})))
		}

		_, err = stack.Synth()
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "at most 12 secondary sources")
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		stack := NewStack("ci")
		p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()}})
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			require.NoError(t, p.AddSecondarySource(S3Source(S3SourceProps{Bucket: BucketFromName("ci-src"), Identifier: "src"})))
		}

		_, err = stack.Synth()
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), `duplicate secondary source identifier "src"`)
	})
}

func TestProject_EnableBatchBuilds(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()}})
	require.NoError(t, err)

	cfg, err := p.EnableBatchBuilds()
	require.NoError(t, err)
	require.NotNil(t, cfg.Role)
	assert.Equal(t, "ApiBatchServiceRole", cfg.Role.LogicalID())
	assert.Equal(t, []intrinsics.PolicyStatement{intrinsics.Allow(
		[]string{"codebuild:StartBuild", "codebuild:StopBuild", "codebuild:RetryBuild"},
		p.ProjectArn(),
	)}, cfg.Role.Statements())
	assert.Equal(t, cfg.Role.RoleArn(), p.Resource().BuildBatchConfig.ServiceRole)

	again, err := p.EnableBatchBuilds()
	require.NoError(t, err)
	assert.Same(t, cfg.Role, again.Role)

	tmpl := synth(t, stack)
	assert.Contains(t, tmpl.Resources, "ApiBatchServiceRoleDefaultPolicy")
}

func TestPipelineProject(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewPipelineProject(stack, "deploy", PipelineProjectProps{CommonProjectProps: CommonProjectProps{
		Environment: BuildEnvironment{ComputeType: ComputeTypeMedium},
	}})
	require.NoError(t, err)

	r := p.Resource()
	assert.Equal(t, cfn.SourceTypeCodePipeline, r.Source.Type)
	assert.Equal(t, cfn.ArtifactsTypeCodePipeline, r.Artifacts.Type)
	assert.Equal(t, string(ComputeTypeMedium), r.Environment.ComputeType)

	require.NoError(t, p.BindToCodePipeline(BucketFromName("pipeline-artifacts")))
	actions := append(append([]string{}, bucketReadActions...), bucketWriteActions...)
	assert.Contains(t, p.ServiceRole().Statements(), intrinsics.Allow(actions,
		intrinsics.GlobalArn("s3", "pipeline-artifacts"),
		intrinsics.GlobalArn("s3", "pipeline-artifacts/*")))

	synth(t, stack)
}

func TestProject_BindToCodePipeline_RequiresPipelineSource(t *testing.T) {
	p, err := NewProject(NewStack("ci"), "api", ProjectProps{CommonProjectProps: CommonProjectProps{BuildSpec: inlineBuildSpec()}})
	require.NoError(t, err)

	err = p.BindToCodePipeline(BucketFromName("pipeline-artifacts"))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "source type is NO_SOURCE")
}

func TestProjectFromName(t *testing.T) {
	p := ProjectFromName(NewStack("ci"), "legacy")

	assert.Equal(t, "legacy", p.ProjectName())
	assert.Equal(t, intrinsics.RegionalArn("codebuild", "project/legacy"), p.ProjectArn())
	assert.Nil(t, p.Role())
}

func TestNewProject_LiteralNamesInArns(t *testing.T) {
	stack := NewStack("ci")
	p, err := NewProject(stack, "api", ProjectProps{
		CommonProjectProps: CommonProjectProps{
			BuildSpec: inlineBuildSpec(),
			EnvironmentVariables: map[string]BuildEnvironmentVariable{
				"TOKEN": {Value: "/ci/${token}", Type: EnvVarParameterStore},
				"DB":    {Value: "ci/${db}:password", Type: EnvVarSecretsManager},
			},
			Logging: &LoggingOptions{CloudWatch: &CloudWatchLoggingOptions{LogGroupName: "/ci/${stage}"}},
		},
		Source: S3Source(S3SourceProps{Bucket: BucketFromName("src-${env}"), Path: "api.zip"}),
	})
	require.NoError(t, err)

	statements := p.ServiceRole().Statements()
	assert.Contains(t, statements, intrinsics.Allow([]string{"ssm:GetParameters"},
		intrinsics.RegionalArn("ssm", "parameter/ci/${!token}")))
	assert.Contains(t, statements, intrinsics.Allow([]string{"secretsmanager:GetSecretValue"},
		intrinsics.RegionalArn("secretsmanager", "secret:ci/${!db}-??????")))
	assert.Contains(t, statements, intrinsics.Allow([]string{"logs:CreateLogStream", "logs:PutLogEvents"},
		intrinsics.RegionalArn("logs", "log-group:/ci/${!stage}:*")))

	legacy := ProjectFromName(stack, "legacy-${x}")
	assert.Equal(t, intrinsics.RegionalArn("codebuild", "project/legacy-${!x}"), legacy.ProjectArn())
	stack.AddOutput("LegacyArn", wetwire.Output{Value: legacy.ProjectArn()})

	_, err = stack.Synth()
	require.NoError(t, err)
}

func TestProjectFromArn(t *testing.T) {
	p, err := ProjectFromArn(NewStack("ci"), "arn:aws:codebuild:us-east-1:123456789012:project/legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", p.ProjectName())
	assert.Equal(t, "arn:aws:codebuild:us-east-1:123456789012:project/legacy", p.ProjectArn())

	for _, arn := range []string{
		"arn:aws:s3:::bucket",
		"arn:aws:codebuild:us-east-1:123456789012:report-group/tests",
		"arn:aws:codebuild:us-east-1:123456789012:project/",
		"legacy",
	} {
		_, err := ProjectFromArn(NewStack("ci"), arn)
		assert.Error(t, err, arn)
	}
}
