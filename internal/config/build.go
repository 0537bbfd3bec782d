package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/codebuild"
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
)

var (
	paramOnly = regexp.MustCompile(`^\$\{([A-Za-z0-9]+)\}$`)
	anyVar    = regexp.MustCompile(`\$\{[^}!]`)
)

// builder turns a File into a stack.
type builder struct {
	file     *File
	stack    *codebuild.Stack
	buckets  map[string]codebuild.IBucket
	projects map[string]*codebuild.Project
}

// Build creates the stack described by f. Construction errors name the part
// of the file they come from; validation errors are reported by Synth.
func Build(f *File, logger *zap.Logger) (*codebuild.Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &builder{
		file:     f,
		stack:    codebuild.NewStack(f.Name, codebuild.WithDescription(f.Description), codebuild.WithLogger(logger)),
		buckets:  make(map[string]codebuild.IBucket),
		projects: make(map[string]*codebuild.Project),
	}

	for _, name := range sortedKeys(f.Parameters) {
		p := f.Parameters[name]
		b.stack.AddParameter(name, wetwire.Parameter{
			Type:          p.Type,
			Description:   p.Description,
			Default:       p.Default,
			AllowedValues: p.AllowedValues,
			NoEcho:        p.NoEcho,
		})
	}

	for _, key := range sortedKeys(f.Buckets) {
		spec := f.Buckets[key]
		var name any
		if spec.Name != "" {
			name = b.value(spec.Name)
		}
		bucket, err := codebuild.NewBucket(b.stack, key, codebuild.BucketProps{
			BucketName:     name,
			Versioned:      spec.Versioned,
			ExpirationDays: spec.ExpirationDays,
			Tags:           spec.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("buckets.%s: %w", key, err)
		}
		b.buckets[key] = bucket
	}

	for i := range f.Projects {
		if err := b.project(&f.Projects[i]); err != nil {
			return nil, fmt.Errorf("projects[%d] (%s): %w", i, f.Projects[i].ID, err)
		}
	}

	for i, spec := range f.ReportGroups {
		if err := b.reportGroup(spec); err != nil {
			return nil, fmt.Errorf("report_groups[%d] (%s): %w", i, spec.ID, err)
		}
	}

	for i, spec := range f.SourceCredentials {
		if err := b.credentials(spec); err != nil {
			return nil, fmt.Errorf("source_credentials[%d] (%s): %w", i, spec.ID, err)
		}
	}

	return b.stack, nil
}

// BuildTemplate builds and synthesizes f.
func BuildTemplate(f *File, logger *zap.Logger) (*wetwire.Template, error) {
	stack, err := Build(f, logger)
	if err != nil {
		return nil, err
	}
	return stack.Synth()
}

// value turns "${Param}" into a Ref, other "${...}" strings into a Sub, and
// leaves plain strings alone.
func (b *builder) value(s string) any {
	if m := paramOnly.FindStringSubmatch(s); m != nil {
		if _, ok := b.file.Parameters[m[1]]; ok {
			return intrinsics.Ref{LogicalName: m[1]}
		}
	}
	if anyVar.MatchString(s) {
		return intrinsics.Sub{String: s}
	}
	return s
}

func (b *builder) optionalValue(s string) any {
	if s == "" {
		return nil
	}
	return b.value(s)
}

// bucket resolves a bucket key of the file or an existing bucket name.
func (b *builder) bucket(name string) codebuild.IBucket {
	if name == "" {
		return nil
	}
	if bucket, ok := b.buckets[name]; ok {
		return bucket
	}
	return codebuild.BucketFromName(name)
}

func (b *builder) project(spec *ProjectSpec) error {
	env, err := b.environment(spec.Environment)
	if err != nil {
		return err
	}
	buildSpec, err := buildSpecOf(spec.BuildSpec)
	if err != nil {
		return err
	}

	common := codebuild.CommonProjectProps{
		ProjectName:           b.optionalValue(spec.Name),
		Description:           spec.Description,
		BuildSpec:             buildSpec,
		Environment:           env,
		Timeout:               spec.Timeout,
		QueuedTimeout:         spec.QueuedTimeout,
		Badge:                 spec.Badge,
		ConcurrentBuildLimit:  spec.ConcurrentBuilds,
		EncryptionKeyArn:      b.optionalValue(spec.EncryptionKey),
		Visibility:            spec.Visibility,
		SSMSessionPermissions: spec.SSMSession,
		Tags:                  spec.Tags,
		Logging:               b.logging(spec.Logging),
		Vpc:                   b.vpc(spec.Vpc),
	}
	if spec.AutoRetryLimit > 0 {
		limit := spec.AutoRetryLimit
		common.AutoRetryLimit = &limit
	}
	if spec.RoleArn != "" {
		common.Role = codebuild.RoleFromArn(b.value(spec.RoleArn))
	}
	if spec.Cache != nil {
		if common.Cache, err = b.cache(*spec.Cache); err != nil {
			return err
		}
	}
	for _, fs := range spec.FileSystems {
		common.FileSystemLocations = append(common.FileSystemLocations, codebuild.EfsFileSystemLocation{
			Identifier:   fs.Identifier,
			Location:     fs.Location,
			MountPoint:   fs.MountPoint,
			MountOptions: fs.MountOptions,
		})
	}

	var project *codebuild.Project
	if spec.Pipeline {
		if spec.Source != nil || spec.Artifacts != nil {
			return fmt.Errorf("pipeline projects take their source and artifacts from CodePipeline")
		}
		pp, err := codebuild.NewPipelineProject(b.stack, spec.ID, codebuild.PipelineProjectProps{CommonProjectProps: common})
		if err != nil {
			return err
		}
		project = pp.Project
	} else {
		props := codebuild.ProjectProps{CommonProjectProps: common}
		if spec.Source != nil {
			if props.Source, err = b.source(*spec.Source); err != nil {
				return err
			}
		}
		if spec.Artifacts != nil {
			if props.Artifacts, err = b.artifacts(*spec.Artifacts); err != nil {
				return err
			}
		}
		for _, s := range spec.SecondarySources {
			src, err := b.source(s)
			if err != nil {
				return err
			}
			props.SecondarySources = append(props.SecondarySources, src)
		}
		for _, a := range spec.SecondaryArtifacts {
			art, err := b.artifacts(a)
			if err != nil {
				return err
			}
			props.SecondaryArtifacts = append(props.SecondaryArtifacts, art)
		}
		if project, err = codebuild.NewProject(b.stack, spec.ID, props); err != nil {
			return err
		}
	}
	b.projects[spec.ID] = project

	if spec.BatchBuilds {
		if _, err := project.EnableBatchBuilds(); err != nil {
			return err
		}
	}
	for i, n := range spec.Notifications {
		if err := b.notification(project, i, n); err != nil {
			return fmt.Errorf("notifications[%d]: %w", i, err)
		}
	}
	for i, a := range spec.Alarms {
		if err := b.alarm(project, i, a); err != nil {
			return fmt.Errorf("alarms[%d]: %w", i, err)
		}
	}
	if spec.Outputs {
		id := project.LogicalID()
		b.stack.AddOutput(id+"Arn", wetwire.Output{Value: project.ProjectArn()})
		b.stack.AddOutput(id+"Name", wetwire.Output{Value: project.ProjectName()})
	}
	return nil
}

func buildSpecOf(v any) (codebuild.BuildSpec, error) {
	switch spec := v.(type) {
	case nil:
		return codebuild.BuildSpec{}, nil
	case string:
		return codebuild.BuildSpecFromSourceFilename(spec), nil
	case map[string]any:
		return codebuild.BuildSpecFromObjectToYAML(spec), nil
	default:
		return codebuild.BuildSpec{}, fmt.Errorf("buildspec must be a file name or an inline mapping, got %T", v)
	}
}

func (b *builder) environment(spec EnvironmentSpec) (codebuild.BuildEnvironment, error) {
	env := codebuild.BuildEnvironment{
		ComputeType: codebuild.ComputeType(spec.Compute),
		Privileged:  spec.Privileged,
		FleetArn:    b.optionalValue(spec.Fleet),
	}

	switch {
	case spec.ImageCredentials != "":
		env.BuildImage = codebuild.LinuxBuildImageFromDockerRegistry(spec.Image, codebuild.DockerImageOptions{
			SecretsManagerCredentials: spec.ImageCredentials,
		})
	case spec.Image != "":
		env.BuildImage = codebuild.BuildImageFromID(spec.Image)
	}

	if spec.Certificate != "" {
		bucket, key, ok := strings.Cut(spec.Certificate, "/")
		if !ok || key == "" {
			return env, fmt.Errorf("environment.certificate must be <bucket>/<key>, got %q", spec.Certificate)
		}
		env.Certificate = &codebuild.BuildEnvironmentCertificate{Bucket: b.bucket(bucket), ObjectKey: key}
	}

	if len(spec.Variables) > 0 {
		env.EnvironmentVariables = make(map[string]codebuild.BuildEnvironmentVariable, len(spec.Variables))
		for name, v := range spec.Variables {
			env.EnvironmentVariables[name] = codebuild.BuildEnvironmentVariable{
				Value: b.value(v.Value),
				Type:  codebuild.BuildEnvironmentVariableType(strings.ToUpper(v.Type)),
			}
		}
	}
	return env, nil
}

func (b *builder) source(spec SourceSpec) (codebuild.ISource, error) {
	filters, err := filterGroups(spec.WebhookFilters)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(spec.Type) {
	case "github":
		return codebuild.GitHubSource(codebuild.GitHubSourceProps{
			Owner:                     spec.Owner,
			Repo:                      spec.Repo,
			BranchOrRef:               spec.Branch,
			CloneDepth:                spec.CloneDepth,
			FetchSubmodules:           spec.FetchSubmodules,
			ReportBuildStatus:         spec.ReportBuildStatus,
			BuildStatusContext:        spec.BuildStatusContext,
			BuildStatusURL:            spec.BuildStatusURL,
			Webhook:                   spec.Webhook,
			WebhookTriggersBatchBuild: spec.WebhookTriggersBatchBuild,
			WebhookFilters:            filters,
			Identifier:                spec.Identifier,
		}), nil
	case "github_enterprise":
		return codebuild.GitHubEnterpriseSource(codebuild.GitHubEnterpriseSourceProps{
			HTTPSCloneURL:             spec.URL,
			IgnoreSSLErrors:           spec.IgnoreSSLErrors,
			BranchOrRef:               spec.Branch,
			CloneDepth:                spec.CloneDepth,
			FetchSubmodules:           spec.FetchSubmodules,
			ReportBuildStatus:         spec.ReportBuildStatus,
			BuildStatusContext:        spec.BuildStatusContext,
			BuildStatusURL:            spec.BuildStatusURL,
			Webhook:                   spec.Webhook,
			WebhookTriggersBatchBuild: spec.WebhookTriggersBatchBuild,
			WebhookFilters:            filters,
			Identifier:                spec.Identifier,
		}), nil
	case "bitbucket":
		return codebuild.BitBucketSource(codebuild.BitBucketSourceProps{
			Owner:                     spec.Owner,
			Repo:                      spec.Repo,
			BranchOrRef:               spec.Branch,
			CloneDepth:                spec.CloneDepth,
			FetchSubmodules:           spec.FetchSubmodules,
			ReportBuildStatus:         spec.ReportBuildStatus,
			BuildStatusURL:            spec.BuildStatusURL,
			Webhook:                   spec.Webhook,
			WebhookTriggersBatchBuild: spec.WebhookTriggersBatchBuild,
			WebhookFilters:            filters,
			Identifier:                spec.Identifier,
		}), nil
	case "codecommit":
		if spec.Repository == "" {
			return nil, fmt.Errorf("codecommit source requires a repository")
		}
		return codebuild.CodeCommitSource(codebuild.CodeCommitSourceProps{
			Repository:      codebuild.RepositoryFromName(spec.Repository),
			BranchOrRef:     spec.Branch,
			CloneDepth:      spec.CloneDepth,
			FetchSubmodules: spec.FetchSubmodules,
			Identifier:      spec.Identifier,
		}), nil
	case "s3":
		return codebuild.S3Source(codebuild.S3SourceProps{
			Bucket:     b.bucket(spec.Bucket),
			Path:       spec.Path,
			Version:    spec.Version,
			Identifier: spec.Identifier,
		}), nil
	case "codepipeline":
		return codebuild.CodePipelineSource(), nil
	case "none", "":
		return codebuild.NoSource(), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", spec.Type)
	}
}

// filterGroups converts filter specs; errors surface here rather than at synth.
func filterGroups(specs []FilterSpec) ([]codebuild.FilterGroup, error) {
	var groups []codebuild.FilterGroup
	for i, spec := range specs {
		actions := make([]codebuild.EventAction, len(spec.Events))
		for j, e := range spec.Events {
			actions[j] = codebuild.EventAction(strings.ToUpper(e))
		}
		g := codebuild.InEventOf(actions...)

		conditions := []struct {
			pattern string
			apply   func(codebuild.FilterGroup, string) codebuild.FilterGroup
		}{
			{spec.Branch, codebuild.FilterGroup.AndBranchIs},
			{spec.BranchNot, codebuild.FilterGroup.AndBranchIsNot},
			{spec.Tag, codebuild.FilterGroup.AndTagIs},
			{spec.TagNot, codebuild.FilterGroup.AndTagIsNot},
			{spec.HeadRef, codebuild.FilterGroup.AndHeadRefIs},
			{spec.HeadRefNot, codebuild.FilterGroup.AndHeadRefIsNot},
			{spec.BaseBranch, codebuild.FilterGroup.AndBaseBranchIs},
			{spec.BaseRef, codebuild.FilterGroup.AndBaseRefIs},
			{spec.BaseRefNot, codebuild.FilterGroup.AndBaseRefIsNot},
			{spec.FilePath, codebuild.FilterGroup.AndFilePathIs},
			{spec.FilePathNot, codebuild.FilterGroup.AndFilePathIsNot},
			{spec.Actor, codebuild.FilterGroup.AndActorIs},
			{spec.ActorNot, codebuild.FilterGroup.AndActorIsNot},
			{spec.CommitMessage, codebuild.FilterGroup.AndCommitMessageIs},
			{spec.CommitMessageNot, codebuild.FilterGroup.AndCommitMessageIsNot},
			{spec.RepositoryName, codebuild.FilterGroup.AndRepositoryNameIs},
			{spec.RepositoryNameNot, codebuild.FilterGroup.AndRepositoryNameIsNot},
		}
		for _, c := range conditions {
			if c.pattern != "" {
				g = c.apply(g, c.pattern)
			}
		}

		if err := g.Err(); err != nil {
			return nil, fmt.Errorf("webhook_filters[%d]: %w", i, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (b *builder) artifacts(spec ArtifactsSpec) (codebuild.IArtifacts, error) {
	switch strings.ToLower(spec.Type) {
	case "s3":
		return codebuild.S3Artifacts(codebuild.S3ArtifactsProps{
			Bucket:         b.bucket(spec.Bucket),
			Path:           spec.Path,
			Name:           spec.Name,
			IncludeBuildID: spec.IncludeBuildID,
			PackageZip:     spec.Zip,
			Encryption:     spec.Encryption,
			Identifier:     spec.Identifier,
		}), nil
	case "codepipeline":
		return codebuild.CodePipelineArtifacts(), nil
	case "none", "":
		return codebuild.NoArtifacts(), nil
	default:
		return nil, fmt.Errorf("unknown artifacts type %q", spec.Type)
	}
}

func (b *builder) cache(spec CacheSpec) (codebuild.Cache, error) {
	switch strings.ToLower(spec.Type) {
	case "local":
		modes := make([]codebuild.LocalCacheMode, len(spec.Modes))
		for i, m := range spec.Modes {
			mode, err := cacheMode(m)
			if err != nil {
				return codebuild.Cache{}, err
			}
			modes[i] = mode
		}
		return codebuild.LocalCache(modes...), nil
	case "s3":
		if spec.Bucket == "" {
			return codebuild.Cache{}, fmt.Errorf("s3 cache requires a bucket")
		}
		return codebuild.BucketCache(b.bucket(spec.Bucket), spec.Prefix), nil
	case "none":
		return codebuild.NoCache(), nil
	default:
		return codebuild.Cache{}, fmt.Errorf("unknown cache type %q", spec.Type)
	}
}

func cacheMode(m string) (codebuild.LocalCacheMode, error) {
	switch strings.ToUpper(m) {
	case "SOURCE", string(codebuild.LocalCacheModeSource):
		return codebuild.LocalCacheModeSource, nil
	case "DOCKER_LAYER", string(codebuild.LocalCacheModeDockerLayer):
		return codebuild.LocalCacheModeDockerLayer, nil
	case "CUSTOM", string(codebuild.LocalCacheModeCustom):
		return codebuild.LocalCacheModeCustom, nil
	}
	return "", fmt.Errorf("unknown cache mode %q", m)
}

func (b *builder) logging(spec *LoggingSpec) *codebuild.LoggingOptions {
	if spec == nil {
		return nil
	}
	opts := &codebuild.LoggingOptions{}
	if cw := spec.CloudWatch; cw != nil {
		enabled := !cw.Disabled
		opts.CloudWatch = &codebuild.CloudWatchLoggingOptions{
			Enabled:      &enabled,
			LogGroupName: cw.LogGroup,
			Prefix:       cw.Prefix,
		}
	}
	if s3 := spec.S3; s3 != nil {
		encrypted := !s3.Unencrypted
		opts.S3 = &codebuild.S3LoggingOptions{
			Bucket:    b.bucket(s3.Bucket),
			Prefix:    s3.Prefix,
			Encrypted: &encrypted,
		}
	}
	return opts
}

func (b *builder) vpc(spec *VpcSpec) *codebuild.VpcConfig {
	if spec == nil {
		return nil
	}
	cfg := &codebuild.VpcConfig{VpcID: b.value(spec.VpcID)}
	for _, s := range spec.Subnets {
		cfg.SubnetIDs = append(cfg.SubnetIDs, b.value(s))
	}
	for _, sg := range spec.SecurityGroups {
		cfg.SecurityGroupIDs = append(cfg.SecurityGroupIDs, b.value(sg))
	}
	return cfg
}

func (b *builder) notification(p *codebuild.Project, index int, spec NotifySpec) error {
	if spec.Target == "" {
		return fmt.Errorf("notification requires a target")
	}
	opts := codebuild.OnEventOptions{
		Disabled: spec.Disabled,
		Targets:  []codebuild.RuleTarget{{Arn: b.value(spec.Target)}},
	}
	if spec.Message != "" {
		opts.Targets[0].InputPaths = map[string]string{
			"project": codebuild.StateChangeEventProjectName,
			"status":  codebuild.StateChangeEventBuildStatus,
			"build":   codebuild.StateChangeEventBuildID,
		}
		tmpl, err := jsonString(spec.Message)
		if err != nil {
			return err
		}
		opts.Targets[0].InputTemplate = tmpl
	}

	id := fmt.Sprintf("notify-%s", strings.ToLower(spec.On))
	if index > 0 {
		id = fmt.Sprintf("%s-%d", id, index)
	}

	var err error
	switch strings.ToLower(spec.On) {
	case "state":
		_, err = p.OnStateChange(id, opts)
	case "phase":
		_, err = p.OnPhaseChange(id, opts)
	case "started":
		_, err = p.OnBuildStarted(id, opts)
	case "succeeded":
		_, err = p.OnBuildSucceeded(id, opts)
	case "failed":
		_, err = p.OnBuildFailed(id, opts)
	default:
		err = fmt.Errorf("unknown event %q", spec.On)
	}
	return err
}

// jsonString quotes s as a JSON string. "<" and ">" stay literal so input
// transformer placeholders still match.
func jsonString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (b *builder) alarm(p *codebuild.Project, index int, spec AlarmSpec) error {
	opts := codebuild.MetricOptions{Statistic: spec.Statistic, Period: spec.Period}

	var metric codebuild.Metric
	switch spec.Metric {
	case codebuild.MetricNameBuilds:
		metric = p.MetricBuilds(opts)
	case codebuild.MetricNameDuration:
		metric = p.MetricDuration(opts)
	case codebuild.MetricNameSucceededBuilds:
		metric = p.MetricSucceededBuilds(opts)
	case codebuild.MetricNameFailedBuilds:
		metric = p.MetricFailedBuilds(opts)
	default:
		return fmt.Errorf("unknown metric %q", spec.Metric)
	}

	var actions []any
	for _, a := range spec.Actions {
		actions = append(actions, b.value(a))
	}

	id := fmt.Sprintf("%s-%s-alarm", p.LogicalID(), strings.ToLower(spec.Metric))
	if index > 0 {
		id = fmt.Sprintf("%s-%d", id, index)
	}
	_, err := metric.CreateAlarm(b.stack, id, codebuild.AlarmOptions{
		Threshold:          spec.Threshold,
		EvaluationPeriods:  spec.EvaluationPeriods,
		ComparisonOperator: spec.Comparison,
		AlarmActions:       actions,
	})
	return err
}

func (b *builder) reportGroup(spec ReportGroupSpec) error {
	group, err := codebuild.NewReportGroup(b.stack, spec.ID, codebuild.ReportGroupProps{
		ReportGroupName: b.optionalValue(spec.Name),
		Type:            codebuild.ReportGroupType(strings.ToUpper(spec.Type)),
		ExportBucket:    b.bucket(spec.ExportBucket),
		ExportPath:      spec.ExportPath,
		ZipExport:       spec.Zip,
		DeleteReports:   spec.DeleteReports,
		Tags:            spec.Tags,
	})
	if err != nil {
		return err
	}
	for _, id := range spec.WriteAccess {
		project, ok := b.projects[id]
		if !ok {
			return fmt.Errorf("write_access: unknown project %q", id)
		}
		if role := project.Role(); role != nil {
			group.GrantWrite(role)
		}
	}
	return nil
}

func (b *builder) credentials(spec CredentialSpec) error {
	var err error
	switch strings.ToLower(spec.Type) {
	case "github":
		_, err = codebuild.NewGitHubSourceCredentials(b.stack, spec.ID, codebuild.GitHubSourceCredentialsProps{
			AccessToken: b.optionalValue(spec.Token),
		})
	case "github_enterprise":
		_, err = codebuild.NewGitHubEnterpriseSourceCredentials(b.stack, spec.ID, codebuild.GitHubEnterpriseSourceCredentialsProps{
			AccessToken: b.optionalValue(spec.Token),
		})
	case "bitbucket":
		_, err = codebuild.NewBitBucketSourceCredentials(b.stack, spec.ID, codebuild.BitBucketSourceCredentialsProps{
			Username: b.optionalValue(spec.Username),
			Password: b.optionalValue(spec.Token),
		})
	default:
		err = fmt.Errorf("unknown credential type %q", spec.Type)
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
