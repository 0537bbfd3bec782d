package codebuild

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

const (
	maxSecondarySources   = 12
	maxSecondaryArtifacts = 12
)

// IProject is a CodeBuild project, either defined in the stack or imported.
type IProject interface {
	ProjectArn() any
	ProjectName() any
	// Role is the service role of the project, nil for imported projects.
	Role() IRole

	OnEvent(id string, opts OnEventOptions) (*EventRule, error)
	OnStateChange(id string, opts OnEventOptions) (*EventRule, error)
	OnPhaseChange(id string, opts OnEventOptions) (*EventRule, error)
	OnBuildStarted(id string, opts OnEventOptions) (*EventRule, error)
	OnBuildFailed(id string, opts OnEventOptions) (*EventRule, error)
	OnBuildSucceeded(id string, opts OnEventOptions) (*EventRule, error)

	Metric(metricName string, opts MetricOptions) Metric
	MetricBuilds(opts MetricOptions) Metric
	MetricDuration(opts MetricOptions) Metric
	MetricSucceededBuilds(opts MetricOptions) Metric
	MetricFailedBuilds(opts MetricOptions) Metric
}

// CommonProjectProps are the settings shared by Project and PipelineProject.
type CommonProjectProps struct {
	// ProjectName is the physical name. Empty lets CloudFormation pick one.
	ProjectName any
	Description string
	// BuildSpec defaults to the buildspec.yml in the source root.
	BuildSpec   BuildSpec
	Environment BuildEnvironment
	// EnvironmentVariables are added to the environment's variables and
	// override them on name clashes.
	EnvironmentVariables map[string]BuildEnvironmentVariable
	// Role is the service role. A role is created when nil.
	Role  IRole
	Cache Cache
	// Timeout defaults to 60 minutes on the service side.
	Timeout       time.Duration
	QueuedTimeout time.Duration
	// Badge enables the public build badge.
	Badge                bool
	Logging              *LoggingOptions
	Vpc                  *VpcConfig
	ConcurrentBuildLimit int
	FileSystemLocations  []EfsFileSystemLocation
	EncryptionKeyArn     any
	Visibility           string
	AutoRetryLimit       *int
	// GrantReportGroupPermissions lets the role create report groups named
	// after the project. Defaults to true.
	GrantReportGroupPermissions *bool
	// CheckSecretsInPlainTextEnvVariables rejects plaintext variables that
	// resolve secrets. Defaults to true.
	CheckSecretsInPlainTextEnvVariables *bool
	// SSMSessionPermissions grants the permissions needed to pause builds
	// with Session Manager.
	SSMSessionPermissions bool
	Tags                  map[string]string
}

// ProjectProps configures NewProject.
type ProjectProps struct {
	CommonProjectProps

	// Source defaults to NoSource.
	Source ISource
	// Artifacts defaults to NoArtifacts.
	Artifacts          IArtifacts
	SecondarySources   []ISource
	SecondaryArtifacts []IArtifacts
}

// projectBase holds what owned and imported projects have in common.
type projectBase struct {
	stack *Stack
	path  string
	arn   any
	name  any
	role  IRole
}

func (p *projectBase) ProjectArn() any  { return p.arn }
func (p *projectBase) ProjectName() any { return p.name }
func (p *projectBase) Role() IRole      { return p.role }

// Project is an AWS::CodeBuild::Project defined in a stack.
type Project struct {
	projectBase

	logicalID string
	resource  *cfn.Project
	props     CommonProjectProps

	source             ISource
	artifacts          IArtifacts
	secondarySources   []ISource
	secondaryArtifacts []IArtifacts
	envVars            map[string]BuildEnvironmentVariable

	ownRole     *Role
	batchRole   *Role
	vpcPolicyID string
}

// NewProject adds a CodeBuild project, and the role it runs with when none
// is given, to the stack. On error the stack and a passed-in role are left
// as they were.
func NewProject(stack *Stack, id string, props ProjectProps) (*Project, error) {
	snap := stack.snapshot()
	role, _ := props.Role.(*Role)
	var roleSnap roleSnapshot
	if role != nil {
		roleSnap = role.snapshot()
	}

	p, err := newProject(stack, id, props)
	if err != nil {
		if role != nil {
			role.restore(roleSnap)
		}
		stack.restore(snap)
		return nil, err
	}
	return p, nil
}

func newProject(stack *Stack, id string, props ProjectProps) (*Project, error) {
	logicalID := LogicalID(id)
	if _, exists := stack.resources[logicalID]; exists {
		return nil, fmt.Errorf("%w: %s (logical id %s)", ErrDuplicateID, id, logicalID)
	}

	p := &Project{
		projectBase: projectBase{
			stack: stack,
			path:  id,
			arn:   intrinsics.GetAtt{LogicalName: logicalID, Attribute: cfn.ProjectAttrArn},
			name:  intrinsics.Ref{LogicalName: logicalID},
		},
		logicalID: logicalID,
		resource:  &cfn.Project{},
		props:     props.CommonProjectProps,
		source:    props.Source,
		artifacts: props.Artifacts,
	}
	if p.source == nil {
		p.source = NoSource()
	}
	if p.artifacts == nil {
		p.artifacts = NoArtifacts()
	}

	if props.Role != nil {
		p.role = props.Role
	} else {
		role, err := NewRole(stack, id+"/Role", RoleProps{AssumedBy: []string{"codebuild.amazonaws.com"}})
		if err != nil {
			return nil, err
		}
		p.role = role
		p.ownRole = role
	}
	p.resource.ServiceRole = p.role.RoleArn()

	if err := p.render(props); err != nil {
		return nil, err
	}

	if _, err := stack.AddResource(id, p.resource); err != nil {
		return nil, err
	}
	if p.vpcPolicyID != "" {
		if err := stack.AddDependency(p.logicalID, p.vpcPolicyID); err != nil {
			return nil, err
		}
	}
	p.grantDefaults()
	stack.addValidation(p.validate)

	for _, s := range props.SecondarySources {
		if err := p.AddSecondarySource(s); err != nil {
			return nil, err
		}
	}
	for _, a := range props.SecondaryArtifacts {
		if err := p.AddSecondaryArtifact(a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Project) render(props ProjectProps) error {
	r := p.resource
	common := props.CommonProjectProps

	cfg, err := p.source.Bind(p)
	if err != nil {
		return err
	}
	src := cfg.Source
	if !common.BuildSpec.IsZero() {
		spec, err := common.BuildSpec.ToBuildSpec()
		if err != nil {
			return err
		}
		src.BuildSpec = spec
	}
	r.Source = &src
	r.SourceVersion = optional(cfg.SourceVersion)
	r.Triggers = cfg.Triggers

	artifacts, err := p.artifacts.Bind(p)
	if err != nil {
		return err
	}
	r.Artifacts = &artifacts

	p.envVars = make(map[string]BuildEnvironmentVariable)
	for name, v := range common.Environment.EnvironmentVariables {
		p.envVars[name] = v
	}
	for name, v := range common.EnvironmentVariables {
		p.envVars[name] = v
	}
	r.Environment = renderEnvironment(p, common.Environment, common.EnvironmentVariables)

	if r.Cache, err = common.Cache.Bind(p); err != nil {
		return err
	}
	if r.LogsConfig, err = renderLogging(p, common.Logging); err != nil {
		return err
	}
	if r.VpcConfig, err = renderVpc(p, common.Vpc); err != nil {
		return err
	}
	for i, l := range common.FileSystemLocations {
		if err := l.validate(fmt.Sprintf("%s/FileSystemLocations[%d]", p.path, i)); err != nil {
			return err
		}
		r.FileSystemLocations = append(r.FileSystemLocations, l.render())
	}

	r.Name = common.ProjectName
	r.Description = optional(common.Description)
	if common.Timeout > 0 {
		r.TimeoutInMinutes = int(common.Timeout / time.Minute)
	}
	if common.QueuedTimeout > 0 {
		r.QueuedTimeoutInMinutes = int(common.QueuedTimeout / time.Minute)
	}
	if common.Badge {
		r.BadgeEnabled = true
	}
	if common.ConcurrentBuildLimit != 0 {
		r.ConcurrentBuildLimit = common.ConcurrentBuildLimit
	}
	if common.EncryptionKeyArn != nil {
		r.EncryptionKey = common.EncryptionKeyArn
		grant(p.role, []string{"kms:Decrypt", "kms:Encrypt", "kms:ReEncrypt*", "kms:GenerateDataKey*"}, common.EncryptionKeyArn)
	}
	r.Visibility = optional(common.Visibility)
	if common.AutoRetryLimit != nil {
		r.AutoRetryLimit = *common.AutoRetryLimit
	}
	r.Tags = renderTags(common.Tags)

	if cfg.BatchBuilds {
		return p.enableBatchBuilds()
	}
	return nil
}

// grantDefaults gives the role access to the project's log group and
// report groups.
func (p *Project) grantDefaults() {
	logGroup := "log-group:/aws/codebuild/${" + p.logicalID + "}"
	grant(p.role, []string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
		intrinsics.RegionalArn("logs", logGroup),
		intrinsics.RegionalArn("logs", logGroup+":*"))

	if boolValue(p.props.GrantReportGroupPermissions, true) {
		grant(p.role, []string{
			"codebuild:CreateReportGroup",
			"codebuild:CreateReport",
			"codebuild:UpdateReport",
			"codebuild:BatchPutTestCases",
			"codebuild:BatchPutCodeCoverages",
		}, intrinsics.RegionalArn("codebuild", "report-group/${"+p.logicalID+"}-*"))
	}

	if p.props.SSMSessionPermissions {
		grant(p.role, []string{
			"ssmmessages:CreateControlChannel",
			"ssmmessages:CreateDataChannel",
			"ssmmessages:OpenControlChannel",
			"ssmmessages:OpenDataChannel",
			"logs:DescribeLogGroups",
			"logs:CreateLogStream",
			"logs:PutLogEvents",
			"s3:GetEncryptionConfiguration",
			"s3:PutObject",
		}, "*")
	}
}

// LogicalID returns the logical id of the project resource.
func (p *Project) LogicalID() string {
	return p.logicalID
}

// Resource returns the project resource as it will be rendered.
func (p *Project) Resource() *cfn.Project {
	return p.resource
}

// Source returns the primary source.
func (p *Project) Source() ISource {
	return p.source
}

// ServiceRole returns the role created for the project, nil when the role
// was passed in.
func (p *Project) ServiceRole() *Role {
	return p.ownRole
}

// AddToRolePolicy adds a statement to the project role. It is dropped for
// imported roles.
func (p *Project) AddToRolePolicy(statement intrinsics.PolicyStatement) {
	if !p.role.AddToPolicy(statement) {
		p.stack.logger.Debug("statement dropped for immutable role", zap.String("project", p.path))
	}
}

// AddSecondarySource adds a source with an identifier. Builds see it under
// CODEBUILD_SRC_DIR_<identifier>.
func (p *Project) AddSecondarySource(source ISource) error {
	if source.Identifier() == "" {
		return validationErrorf(p.path+"/SecondarySources", "the identifier attribute is mandatory for secondary sources")
	}
	cfg, err := source.Bind(p)
	if err != nil {
		return err
	}
	p.secondarySources = append(p.secondarySources, source)
	p.resource.SecondarySources = append(p.resource.SecondarySources, cfg.Source)
	if cfg.SourceVersion != "" {
		p.resource.SecondarySourceVersions = append(p.resource.SecondarySourceVersions, cfn.Project_ProjectSourceVersion{
			SourceIdentifier: source.Identifier(),
			SourceVersion:    cfg.SourceVersion,
		})
	}
	return nil
}

// AddSecondaryArtifact adds an artifact with an identifier.
func (p *Project) AddSecondaryArtifact(artifacts IArtifacts) error {
	if artifacts.Identifier() == "" {
		return validationErrorf(p.path+"/SecondaryArtifacts", "the identifier attribute is mandatory for secondary artifacts")
	}
	out, err := artifacts.Bind(p)
	if err != nil {
		return err
	}
	p.secondaryArtifacts = append(p.secondaryArtifacts, artifacts)
	p.resource.SecondaryArtifacts = append(p.resource.SecondaryArtifacts, out)
	return nil
}

// AddFileSystemLocation mounts an EFS file system into builds.
func (p *Project) AddFileSystemLocation(location EfsFileSystemLocation) error {
	path := fmt.Sprintf("%s/FileSystemLocations[%d]", p.path, len(p.resource.FileSystemLocations))
	if err := location.validate(path); err != nil {
		return err
	}
	p.props.FileSystemLocations = append(p.props.FileSystemLocations, location)
	p.resource.FileSystemLocations = append(p.resource.FileSystemLocations, location.render())
	return nil
}

// BatchBuildConfig describes batch builds enabled on a project.
type BatchBuildConfig struct {
	// Role is the role batch builds start the individual builds with.
	Role *Role
}

// EnableBatchBuilds creates the batch service role and turns on batch
// builds. Calling it again returns the existing configuration.
func (p *Project) EnableBatchBuilds() (*BatchBuildConfig, error) {
	if err := p.enableBatchBuilds(); err != nil {
		return nil, err
	}
	return &BatchBuildConfig{Role: p.batchRole}, nil
}

func (p *Project) enableBatchBuilds() error {
	if p.batchRole != nil {
		return nil
	}
	role, err := NewRole(p.stack, p.path+"/BatchServiceRole", RoleProps{AssumedBy: []string{"codebuild.amazonaws.com"}})
	if err != nil {
		return err
	}
	role.AddToPolicy(intrinsics.Allow([]string{
		"codebuild:StartBuild",
		"codebuild:StopBuild",
		"codebuild:RetryBuild",
	}, p.ProjectArn()))
	p.batchRole = role
	p.resource.BuildBatchConfig = &cfn.Project_ProjectBuildBatchConfig{ServiceRole: role.RoleArn()}
	return nil
}

// BindToCodePipeline grants the project access to the pipeline's artifact
// bucket. Only projects whose source is CodePipelineSource can be bound.
func (p *Project) BindToCodePipeline(artifactBucket IBucket) error {
	if p.source.Type() != cfn.SourceTypeCodePipeline {
		return validationErrorf(p.path, "only a PipelineProject can be bound to CodePipeline, source type is %s", p.source.Type())
	}
	grantBucketReadWrite(p.role, artifactBucket, "*")
	return nil
}

func (p *Project) validate() []error {
	var errs []error
	add := func(suffix, format string, args ...any) {
		errs = append(errs, validationErrorf(p.path+suffix, format, args...))
	}
	props := p.props

	if props.Timeout != 0 {
		if !wholeMinutes(props.Timeout, 5, 2160) {
			add("/Timeout", "timeout must be a whole number of minutes between 5 and 2160, got %s", props.Timeout)
		}
	}
	if props.QueuedTimeout != 0 {
		if !wholeMinutes(props.QueuedTimeout, 5, 480) {
			add("/QueuedTimeout", "queued timeout must be a whole number of minutes between 5 and 480, got %s", props.QueuedTimeout)
		}
	}
	if props.AutoRetryLimit != nil && (*props.AutoRetryLimit < 0 || *props.AutoRetryLimit > 10) {
		add("/AutoRetryLimit", "auto retry limit must be between 0 and 10, got %d", *props.AutoRetryLimit)
	}
	if props.ConcurrentBuildLimit < 0 {
		add("/ConcurrentBuildLimit", "concurrent build limit must be at least 1, got %d", props.ConcurrentBuildLimit)
	}

	if p.source.Type() == cfn.SourceTypeNoSource && !props.BuildSpec.IsImmediate() {
		add("/BuildSpec", "a project without a source needs an inline build spec")
	}
	if props.Badge && !p.source.BadgeSupported() {
		add("/Badge", "badge is not supported for source type %s", p.source.Type())
	}
	if (p.source.Type() == cfn.SourceTypeCodePipeline) != (p.artifacts.Type() == cfn.ArtifactsTypeCodePipeline) {
		add("", "both source and artifacts must be set to CodePipeline")
	}

	if n := len(p.secondarySources); n > maxSecondarySources {
		add("/SecondarySources", "a project can have at most %d secondary sources, got %d", maxSecondarySources, n)
	}
	if n := len(p.secondaryArtifacts); n > maxSecondaryArtifacts {
		add("/SecondaryArtifacts", "a project can have at most %d secondary artifacts, got %d", maxSecondaryArtifacts, n)
	}
	seen := make(map[string]bool)
	for _, s := range p.secondarySources {
		if seen[s.Identifier()] {
			add("/SecondarySources", "duplicate secondary source identifier %q", s.Identifier())
		}
		seen[s.Identifier()] = true
	}

	env := props.Environment
	for _, problem := range env.image().Validate(env) {
		add("/Environment", "%s", problem)
	}

	if env.computeType().IsLambda() {
		if props.Timeout != 0 || props.QueuedTimeout != 0 {
			add("/Environment", "Lambda compute does not support timeouts")
		}
		if !props.Cache.IsZero() && props.Cache.Type() != cfn.CacheTypeNoCache {
			add("/Cache", "Lambda compute does not support caching")
		}
		if props.Vpc != nil {
			add("/Vpc", "Lambda compute does not support VPC configuration")
		}
		if len(props.FileSystemLocations) > 0 {
			add("/FileSystemLocations", "Lambda compute does not support file system locations")
		}
		if props.SSMSessionPermissions {
			add("/Environment", "Lambda compute does not support Session Manager")
		}
	}

	if boolValue(props.CheckSecretsInPlainTextEnvVariables, true) {
		for _, name := range sortedKeys(p.envVars) {
			v := p.envVars[name]
			if (v.Type == "" || v.Type == EnvVarPlaintext) && looksLikeSecret(v.Value) {
				add("/EnvironmentVariables", "plaintext environment variable %s contains a secret reference; use %s or %s instead",
					name, EnvVarSecretsManager, EnvVarParameterStore)
			}
		}
	}
	return errs
}

func wholeMinutes(d time.Duration, lo, hi int) bool {
	if d%time.Minute != 0 {
		return false
	}
	minutes := int(d / time.Minute)
	return minutes >= lo && minutes <= hi
}

// PipelineProjectProps configures NewPipelineProject.
type PipelineProjectProps struct {
	CommonProjectProps
}

// PipelineProject is a project whose source and artifacts come from, and go
// back to, CodePipeline.
type PipelineProject struct {
	*Project
}

// NewPipelineProject adds a CodePipeline-driven project to the stack.
func NewPipelineProject(stack *Stack, id string, props PipelineProjectProps) (*PipelineProject, error) {
	p, err := NewProject(stack, id, ProjectProps{
		CommonProjectProps: props.CommonProjectProps,
		Source:             CodePipelineSource(),
		Artifacts:          CodePipelineArtifacts(),
	})
	if err != nil {
		return nil, err
	}
	return &PipelineProject{Project: p}, nil
}

type importedProject struct {
	projectBase
}

// ProjectFromName references an existing project in the stack's account and
// region.
func ProjectFromName(stack *Stack, name string) IProject {
	return &importedProject{projectBase{
		stack: stack,
		path:  name,
		arn:   intrinsics.RegionalArn("codebuild", "project/"+intrinsics.EscapeSub(name)),
		name:  name,
	}}
}

// ProjectFromArn references an existing project by ARN.
func ProjectFromArn(stack *Stack, arn string) (IProject, error) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "codebuild" || !strings.HasPrefix(parts[5], "project/") {
		return nil, fmt.Errorf("invalid CodeBuild project ARN %q", arn)
	}
	name := strings.TrimPrefix(parts[5], "project/")
	if name == "" {
		return nil, fmt.Errorf("invalid CodeBuild project ARN %q", arn)
	}
	return &importedProject{projectBase{
		stack: stack,
		path:  name,
		arn:   arn,
		name:  name,
	}}, nil
}
