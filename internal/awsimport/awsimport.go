// Package awsimport reads existing CodeBuild projects from an AWS account and
// converts them into project file specs.
package awsimport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/internal/config"
	"github.com/lex00/wetwire-codebuild-go/internal/importer"
)

// batchSize is the BatchGetProjects name limit.
const batchSize = 100

// API is the part of the CodeBuild client the importer uses.
type API interface {
	BatchGetProjects(ctx context.Context, params *codebuild.BatchGetProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error)
	ListProjects(ctx context.Context, params *codebuild.ListProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.ListProjectsOutput, error)
}

// Importer converts live projects.
type Importer struct {
	client API
	logger *zap.Logger
}

// New creates an importer around a CodeBuild client.
func New(client API, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{client: client, logger: logger}
}

// NewFromConfig creates an importer from the default AWS configuration chain.
// Empty region and profile fall back to the SDK defaults.
func NewFromConfig(ctx context.Context, region, profile string, logger *zap.Logger) (*Importer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return New(codebuild.NewFromConfig(cfg), logger), nil
}

// ListProjects returns the names of every project in the account and region.
func (i *Importer) ListProjects(ctx context.Context) ([]string, error) {
	var names []string
	paginator := codebuild.NewListProjectsPaginator(i.client, &codebuild.ListProjectsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		names = append(names, page.Projects...)
	}
	return names, nil
}

// Projects fetches the named projects and converts them. Names that do not
// exist are an error.
func (i *Importer) Projects(ctx context.Context, names []string) ([]config.ProjectSpec, []string, error) {
	var (
		specs    []config.ProjectSpec
		warnings []string
	)
	for start := 0; start < len(names); start += batchSize {
		end := min(start+batchSize, len(names))
		out, err := i.client.BatchGetProjects(ctx, &codebuild.BatchGetProjectsInput{Names: names[start:end]})
		if err != nil {
			return nil, nil, fmt.Errorf("getting projects: %w", err)
		}
		if len(out.ProjectsNotFound) > 0 {
			return nil, nil, fmt.Errorf("projects not found: %v", out.ProjectsNotFound)
		}
		for _, p := range out.Projects {
			name := aws.ToString(p.Name)
			i.logger.Debug("converting project", zap.String("project", name))
			spec, w := importer.ConvertProject(strcase.ToCamel(name), Properties(p))
			specs = append(specs, spec)
			warnings = append(warnings, w...)
		}
	}
	return specs, warnings, nil
}

// File imports the named projects, or every project when names is empty,
// into a project file called fileName.
func (i *Importer) File(ctx context.Context, fileName string, names []string) (*importer.Result, error) {
	if len(names) == 0 {
		all, err := i.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		names = all
	}
	specs, warnings, err := i.Projects(ctx, names)
	if err != nil {
		return nil, err
	}
	f := &config.File{Name: fileName, Projects: specs}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &importer.Result{File: f, Warnings: warnings}, nil
}

// Properties renders a project returned by the API in the property layout of
// AWS::CodeBuild::Project.
func Properties(p types.Project) map[string]any {
	props := map[string]any{}
	set(props, "Name", aws.ToString(p.Name))
	set(props, "Description", aws.ToString(p.Description))
	set(props, "ServiceRole", aws.ToString(p.ServiceRole))
	set(props, "SourceVersion", aws.ToString(p.SourceVersion))
	set(props, "EncryptionKey", aws.ToString(p.EncryptionKey))
	set(props, "Visibility", string(p.ProjectVisibility))
	set(props, "TimeoutInMinutes", int(aws.ToInt32(p.TimeoutInMinutes)))
	set(props, "QueuedTimeoutInMinutes", int(aws.ToInt32(p.QueuedTimeoutInMinutes)))
	set(props, "ConcurrentBuildLimit", int(aws.ToInt32(p.ConcurrentBuildLimit)))
	set(props, "AutoRetryLimit", int(aws.ToInt32(p.AutoRetryLimit)))
	if p.Badge != nil && p.Badge.BadgeEnabled {
		props["BadgeEnabled"] = true
	}
	if p.BuildBatchConfig != nil {
		props["BuildBatchConfig"] = map[string]any{}
	}

	if p.Source != nil {
		props["Source"] = source(*p.Source)
	}
	if len(p.SecondarySources) > 0 {
		items := make([]any, len(p.SecondarySources))
		for i, s := range p.SecondarySources {
			items[i] = source(s)
		}
		props["SecondarySources"] = items
	}
	if p.Artifacts != nil {
		props["Artifacts"] = artifacts(*p.Artifacts)
	}
	if len(p.SecondaryArtifacts) > 0 {
		items := make([]any, len(p.SecondaryArtifacts))
		for i, a := range p.SecondaryArtifacts {
			items[i] = artifacts(a)
		}
		props["SecondaryArtifacts"] = items
	}
	if p.Environment != nil {
		props["Environment"] = environment(*p.Environment)
	}
	if p.Cache != nil {
		cache := map[string]any{"Type": string(p.Cache.Type)}
		set(cache, "Location", aws.ToString(p.Cache.Location))
		if len(p.Cache.Modes) > 0 {
			modes := make([]any, len(p.Cache.Modes))
			for i, m := range p.Cache.Modes {
				modes[i] = string(m)
			}
			cache["Modes"] = modes
		}
		props["Cache"] = cache
	}
	if p.Webhook != nil {
		props["Triggers"] = triggers(*p.Webhook)
	}
	if p.LogsConfig != nil {
		props["LogsConfig"] = logsConfig(*p.LogsConfig)
	}
	if p.VpcConfig != nil {
		props["VpcConfig"] = map[string]any{
			"VpcId":            aws.ToString(p.VpcConfig.VpcId),
			"Subnets":          stringList(p.VpcConfig.Subnets),
			"SecurityGroupIds": stringList(p.VpcConfig.SecurityGroupIds),
		}
	}
	if len(p.FileSystemLocations) > 0 {
		items := make([]any, len(p.FileSystemLocations))
		for i, fs := range p.FileSystemLocations {
			loc := map[string]any{"Type": string(fs.Type)}
			set(loc, "Identifier", aws.ToString(fs.Identifier))
			set(loc, "Location", aws.ToString(fs.Location))
			set(loc, "MountPoint", aws.ToString(fs.MountPoint))
			set(loc, "MountOptions", aws.ToString(fs.MountOptions))
			items[i] = loc
		}
		props["FileSystemLocations"] = items
	}
	if len(p.Tags) > 0 {
		tags := make([]any, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = map[string]any{"Key": aws.ToString(t.Key), "Value": aws.ToString(t.Value)}
		}
		props["Tags"] = tags
	}
	return props
}

func source(s types.ProjectSource) map[string]any {
	out := map[string]any{"Type": string(s.Type)}
	set(out, "Location", aws.ToString(s.Location))
	set(out, "BuildSpec", aws.ToString(s.Buildspec))
	set(out, "SourceIdentifier", aws.ToString(s.SourceIdentifier))
	set(out, "GitCloneDepth", int(aws.ToInt32(s.GitCloneDepth)))
	if s.InsecureSsl != nil {
		out["InsecureSsl"] = *s.InsecureSsl
	}
	if s.ReportBuildStatus != nil {
		out["ReportBuildStatus"] = *s.ReportBuildStatus
	}
	if s.GitSubmodulesConfig != nil {
		out["GitSubmodulesConfig"] = map[string]any{"FetchSubmodules": aws.ToBool(s.GitSubmodulesConfig.FetchSubmodules)}
	}
	if s.BuildStatusConfig != nil {
		status := map[string]any{}
		set(status, "Context", aws.ToString(s.BuildStatusConfig.Context))
		set(status, "TargetUrl", aws.ToString(s.BuildStatusConfig.TargetUrl))
		out["BuildStatusConfig"] = status
	}
	return out
}

func artifacts(a types.ProjectArtifacts) map[string]any {
	out := map[string]any{"Type": string(a.Type)}
	set(out, "Location", aws.ToString(a.Location))
	set(out, "Path", aws.ToString(a.Path))
	set(out, "Name", aws.ToString(a.Name))
	set(out, "ArtifactIdentifier", aws.ToString(a.ArtifactIdentifier))
	set(out, "NamespaceType", string(a.NamespaceType))
	set(out, "Packaging", string(a.Packaging))
	if a.EncryptionDisabled != nil {
		out["EncryptionDisabled"] = *a.EncryptionDisabled
	}
	return out
}

func environment(e types.ProjectEnvironment) map[string]any {
	out := map[string]any{
		"Type":        string(e.Type),
		"ComputeType": string(e.ComputeType),
	}
	set(out, "Image", aws.ToString(e.Image))
	set(out, "Certificate", aws.ToString(e.Certificate))
	if aws.ToBool(e.PrivilegedMode) {
		out["PrivilegedMode"] = true
	}
	if e.RegistryCredential != nil {
		out["RegistryCredential"] = map[string]any{"Credential": aws.ToString(e.RegistryCredential.Credential)}
	}
	if e.Fleet != nil {
		out["Fleet"] = map[string]any{"FleetArn": aws.ToString(e.Fleet.FleetArn)}
	}
	if len(e.EnvironmentVariables) > 0 {
		vars := make([]any, len(e.EnvironmentVariables))
		for i, v := range e.EnvironmentVariables {
			vars[i] = map[string]any{
				"Name":  aws.ToString(v.Name),
				"Value": aws.ToString(v.Value),
				"Type":  string(v.Type),
			}
		}
		out["EnvironmentVariables"] = vars
	}
	return out
}

func triggers(w types.Webhook) map[string]any {
	out := map[string]any{"Webhook": true}
	set(out, "BuildType", string(w.BuildType))
	if len(w.FilterGroups) > 0 {
		groups := make([]any, len(w.FilterGroups))
		for i, group := range w.FilterGroups {
			filters := make([]any, len(group))
			for j, f := range group {
				filter := map[string]any{"Type": string(f.Type), "Pattern": aws.ToString(f.Pattern)}
				if aws.ToBool(f.ExcludeMatchedPattern) {
					filter["ExcludeMatchedPattern"] = true
				}
				filters[j] = filter
			}
			groups[i] = filters
		}
		out["FilterGroups"] = groups
	}
	return out
}

func logsConfig(l types.LogsConfig) map[string]any {
	out := map[string]any{}
	if cw := l.CloudWatchLogs; cw != nil {
		logs := map[string]any{"Status": string(cw.Status)}
		set(logs, "GroupName", aws.ToString(cw.GroupName))
		set(logs, "StreamName", aws.ToString(cw.StreamName))
		out["CloudWatchLogs"] = logs
	}
	if s3 := l.S3Logs; s3 != nil {
		logs := map[string]any{"Status": string(s3.Status)}
		set(logs, "Location", aws.ToString(s3.Location))
		if aws.ToBool(s3.EncryptionDisabled) {
			logs["EncryptionDisabled"] = true
		}
		out["S3Logs"] = logs
	}
	return out
}

func set[V comparable](m map[string]any, key string, v V) {
	var zero V
	if v != zero {
		m[key] = v
	}
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
