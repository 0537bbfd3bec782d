package codebuild

import (
	"fmt"
	"strings"

	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// ISource is one of the source kinds a project builds from.
type ISource interface {
	Type() string
	// Identifier names a secondary source. Primary sources leave it empty.
	Identifier() string
	BadgeSupported() bool
	// Bind renders the source for project and grants the project role
	// whatever the source needs to read.
	Bind(project *Project) (SourceConfig, error)
}

// SourceConfig is the result of binding a source to a project.
type SourceConfig struct {
	Source        cfn.Project_Source
	SourceVersion string
	Triggers      *cfn.Project_ProjectTriggers
	// BatchBuilds is set when webhook events should start batch builds.
	BatchBuilds bool
}

type noSource struct{}

// NoSource is a project without a source. The build spec must then be given
// inline.
func NoSource() ISource {
	return noSource{}
}

func (noSource) Type() string         { return cfn.SourceTypeNoSource }
func (noSource) Identifier() string   { return "" }
func (noSource) BadgeSupported() bool { return false }

func (noSource) Bind(*Project) (SourceConfig, error) {
	return SourceConfig{Source: cfn.Project_Source{Type: cfn.SourceTypeNoSource}}, nil
}

// S3SourceProps configures S3Source.
type S3SourceProps struct {
	Bucket IBucket
	// Path is the object key of the source archive or folder.
	Path string
	// Version is the object version to build.
	Version    string
	Identifier string
}

type s3Source struct {
	props S3SourceProps
}

// S3Source builds from an object in S3.
func S3Source(props S3SourceProps) ISource {
	return s3Source{props: props}
}

func (s s3Source) Type() string         { return cfn.SourceTypeS3 }
func (s s3Source) Identifier() string   { return s.props.Identifier }
func (s s3Source) BadgeSupported() bool { return false }

func (s s3Source) Bind(p *Project) (SourceConfig, error) {
	if s.props.Bucket == nil {
		return SourceConfig{}, validationErrorf(p.path+"/Source", "S3 source requires a bucket")
	}
	grantBucketRead(p.Role(), s.props.Bucket, strings.TrimPrefix(s.props.Path, "/"))
	return SourceConfig{
		Source: cfn.Project_Source{
			Type:             cfn.SourceTypeS3,
			Location:         joinPath(s.props.Bucket.BucketName(), s.props.Path),
			SourceIdentifier: optional(s.props.Identifier),
		},
		SourceVersion: s.props.Version,
	}, nil
}

// CodeCommitSourceProps configures CodeCommitSource.
type CodeCommitSourceProps struct {
	Repository  IRepository
	BranchOrRef string
	// CloneDepth limits the git history fetched. Zero keeps the full history.
	CloneDepth      int
	FetchSubmodules bool
	Identifier      string
}

type codeCommitSource struct {
	props CodeCommitSourceProps
}

// CodeCommitSource builds from a CodeCommit repository.
func CodeCommitSource(props CodeCommitSourceProps) ISource {
	return codeCommitSource{props: props}
}

func (s codeCommitSource) Type() string         { return cfn.SourceTypeCodeCommit }
func (s codeCommitSource) Identifier() string   { return s.props.Identifier }
func (s codeCommitSource) BadgeSupported() bool { return true }

func (s codeCommitSource) Bind(p *Project) (SourceConfig, error) {
	path := p.path + "/Source"
	if s.props.Repository == nil {
		return SourceConfig{}, validationErrorf(path, "CodeCommit source requires a repository")
	}
	src, err := gitSource(path, cfn.SourceTypeCodeCommit, s.props.Repository.RepositoryCloneURLHTTP(),
		s.props.CloneDepth, s.props.FetchSubmodules, s.props.Identifier)
	if err != nil {
		return SourceConfig{}, err
	}
	grant(p.Role(), []string{"codecommit:GitPull"}, s.props.Repository.RepositoryArn())
	return SourceConfig{Source: src, SourceVersion: s.props.BranchOrRef}, nil
}

// GitHubSourceProps configures GitHubSource.
type GitHubSourceProps struct {
	Owner       string
	Repo        string
	BranchOrRef string
	// CloneDepth limits the git history fetched. Zero keeps the full history.
	CloneDepth      int
	FetchSubmodules bool
	// ReportBuildStatus defaults to true.
	ReportBuildStatus *bool
	// BuildStatusContext and BuildStatusURL customize the commit status.
	BuildStatusContext string
	BuildStatusURL     string
	// Webhook defaults to true when WebhookFilters are set.
	Webhook                   *bool
	WebhookTriggersBatchBuild bool
	WebhookFilters            []FilterGroup
	Identifier                string
}

type gitHubSource struct {
	props GitHubSourceProps
}

// GitHubSource builds from a github.com repository.
func GitHubSource(props GitHubSourceProps) ISource {
	return gitHubSource{props: props}
}

func (s gitHubSource) Type() string         { return cfn.SourceTypeGitHub }
func (s gitHubSource) Identifier() string   { return s.props.Identifier }
func (s gitHubSource) BadgeSupported() bool { return true }

func (s gitHubSource) Bind(p *Project) (SourceConfig, error) {
	return thirdPartyGit{
		sourceType:         cfn.SourceTypeGitHub,
		location:           fmt.Sprintf("https://github.com/%s/%s.git", s.props.Owner, s.props.Repo),
		branchOrRef:        s.props.BranchOrRef,
		cloneDepth:         s.props.CloneDepth,
		fetchSubmodules:    s.props.FetchSubmodules,
		reportBuildStatus:  s.props.ReportBuildStatus,
		buildStatusContext: s.props.BuildStatusContext,
		buildStatusURL:     s.props.BuildStatusURL,
		webhook:            s.props.Webhook,
		triggersBatchBuild: s.props.WebhookTriggersBatchBuild,
		filters:            s.props.WebhookFilters,
		identifier:         s.props.Identifier,
	}.bind(p.path + "/Source")
}

// GitHubEnterpriseSourceProps configures GitHubEnterpriseSource.
type GitHubEnterpriseSourceProps struct {
	HTTPSCloneURL   string
	IgnoreSSLErrors bool
	BranchOrRef     string
	// CloneDepth limits the git history fetched. Zero keeps the full history.
	CloneDepth         int
	FetchSubmodules    bool
	ReportBuildStatus  *bool
	BuildStatusContext string
	BuildStatusURL     string
	// Webhook defaults to true when WebhookFilters are set.
	Webhook                   *bool
	WebhookTriggersBatchBuild bool
	WebhookFilters            []FilterGroup
	Identifier                string
}

type gitHubEnterpriseSource struct {
	props GitHubEnterpriseSourceProps
}

// GitHubEnterpriseSource builds from a GitHub Enterprise Server repository.
func GitHubEnterpriseSource(props GitHubEnterpriseSourceProps) ISource {
	return gitHubEnterpriseSource{props: props}
}

func (s gitHubEnterpriseSource) Type() string         { return cfn.SourceTypeGitHubEnterprise }
func (s gitHubEnterpriseSource) Identifier() string   { return s.props.Identifier }
func (s gitHubEnterpriseSource) BadgeSupported() bool { return true }

func (s gitHubEnterpriseSource) Bind(p *Project) (SourceConfig, error) {
	path := p.path + "/Source"
	for i, g := range s.props.WebhookFilters {
		if !hasPullRequestEvent(g) {
			continue
		}
		if g.hasFilter(cfn.WebhookFilterCommitMessage) {
			return SourceConfig{}, validationErrorf(filterPath(path, i), "COMMIT_MESSAGE filters cannot be used with GitHub Enterprise Server pull request events")
		}
		if g.hasFilter(cfn.WebhookFilterFilePath) {
			return SourceConfig{}, validationErrorf(filterPath(path, i), "FILE_PATH filters cannot be used with GitHub Enterprise Server pull request events")
		}
	}

	cfg, err := thirdPartyGit{
		sourceType:         cfn.SourceTypeGitHubEnterprise,
		location:           s.props.HTTPSCloneURL,
		branchOrRef:        s.props.BranchOrRef,
		cloneDepth:         s.props.CloneDepth,
		fetchSubmodules:    s.props.FetchSubmodules,
		reportBuildStatus:  s.props.ReportBuildStatus,
		buildStatusContext: s.props.BuildStatusContext,
		buildStatusURL:     s.props.BuildStatusURL,
		webhook:            s.props.Webhook,
		triggersBatchBuild: s.props.WebhookTriggersBatchBuild,
		filters:            s.props.WebhookFilters,
		identifier:         s.props.Identifier,
	}.bind(path)
	if err != nil {
		return SourceConfig{}, err
	}
	if s.props.IgnoreSSLErrors {
		cfg.Source.InsecureSsl = true
	}
	return cfg, nil
}

// BitBucketSourceProps configures BitBucketSource.
type BitBucketSourceProps struct {
	Owner       string
	Repo        string
	BranchOrRef string
	// CloneDepth limits the git history fetched. Zero keeps the full history.
	CloneDepth        int
	FetchSubmodules   bool
	ReportBuildStatus *bool
	BuildStatusURL    string
	// Webhook defaults to true when WebhookFilters are set.
	Webhook                   *bool
	WebhookTriggersBatchBuild bool
	WebhookFilters            []FilterGroup
	Identifier                string
}

type bitBucketSource struct {
	props BitBucketSourceProps
}

// BitBucketSource builds from a bitbucket.org repository.
func BitBucketSource(props BitBucketSourceProps) ISource {
	return bitBucketSource{props: props}
}

func (s bitBucketSource) Type() string         { return cfn.SourceTypeBitbucket }
func (s bitBucketSource) Identifier() string   { return s.props.Identifier }
func (s bitBucketSource) BadgeSupported() bool { return true }

func (s bitBucketSource) Bind(p *Project) (SourceConfig, error) {
	path := p.path + "/Source"
	for i, g := range s.props.WebhookFilters {
		for _, a := range g.actions {
			switch a {
			case EventActionPullRequestReopened, EventActionReleased, EventActionPrereleased, EventActionWorkflowJobQueued:
				return SourceConfig{}, validationErrorf(filterPath(path, i), "BitBucket sources do not support the %s webhook event action", a)
			}
		}
		if g.hasFilter(cfn.WebhookFilterFilePath) {
			return SourceConfig{}, validationErrorf(filterPath(path, i), "BitBucket sources do not support file path conditions for webhook filters")
		}
	}

	return thirdPartyGit{
		sourceType:         cfn.SourceTypeBitbucket,
		location:           fmt.Sprintf("https://bitbucket.org/%s/%s.git", s.props.Owner, s.props.Repo),
		branchOrRef:        s.props.BranchOrRef,
		cloneDepth:         s.props.CloneDepth,
		fetchSubmodules:    s.props.FetchSubmodules,
		reportBuildStatus:  s.props.ReportBuildStatus,
		buildStatusURL:     s.props.BuildStatusURL,
		webhook:            s.props.Webhook,
		triggersBatchBuild: s.props.WebhookTriggersBatchBuild,
		filters:            s.props.WebhookFilters,
		identifier:         s.props.Identifier,
	}.bind(path)
}

type codePipelineSource struct{}

// CodePipelineSource receives its input from a CodePipeline action. It is
// the source of every PipelineProject.
func CodePipelineSource() ISource {
	return codePipelineSource{}
}

func (codePipelineSource) Type() string         { return cfn.SourceTypeCodePipeline }
func (codePipelineSource) Identifier() string   { return "" }
func (codePipelineSource) BadgeSupported() bool { return false }

func (codePipelineSource) Bind(*Project) (SourceConfig, error) {
	return SourceConfig{Source: cfn.Project_Source{Type: cfn.SourceTypeCodePipeline}}, nil
}

// thirdPartyGit holds the settings shared by GitHub, GitHub Enterprise, and
// BitBucket sources.
type thirdPartyGit struct {
	sourceType         string
	location           string
	branchOrRef        string
	cloneDepth         int
	fetchSubmodules    bool
	reportBuildStatus  *bool
	buildStatusContext string
	buildStatusURL     string
	webhook            *bool
	triggersBatchBuild bool
	filters            []FilterGroup
	identifier         string
}

func (g thirdPartyGit) bind(path string) (SourceConfig, error) {
	src, err := gitSource(path, g.sourceType, g.location, g.cloneDepth, g.fetchSubmodules, g.identifier)
	if err != nil {
		return SourceConfig{}, err
	}
	src.ReportBuildStatus = boolValue(g.reportBuildStatus, true)
	if g.buildStatusContext != "" || g.buildStatusURL != "" {
		src.BuildStatusConfig = &cfn.Project_BuildStatusConfig{
			Context:   optional(g.buildStatusContext),
			TargetUrl: optional(g.buildStatusURL),
		}
	}

	webhook := g.webhook
	if webhook == nil && len(g.filters) > 0 {
		enabled := true
		webhook = &enabled
	}
	enabled := webhook != nil && *webhook
	if !enabled && len(g.filters) > 0 {
		return SourceConfig{}, validationErrorf(path, "webhook filters cannot be used when webhook is false")
	}
	if !enabled && g.triggersBatchBuild {
		return SourceConfig{}, validationErrorf(path, "webhook triggers batch build cannot be used when webhook is false")
	}

	cfg := SourceConfig{Source: src, SourceVersion: g.branchOrRef, BatchBuilds: g.triggersBatchBuild}
	if webhook == nil {
		return cfg, nil
	}

	triggers := &cfn.Project_ProjectTriggers{Webhook: *webhook}
	if g.triggersBatchBuild {
		triggers.BuildType = cfn.WebhookBuildTypeBuildBatch
	}
	for i, fg := range g.filters {
		if err := fg.Err(); err != nil {
			return SourceConfig{}, validationErrorf(filterPath(path, i), "%s", err.Error())
		}
		triggers.FilterGroups = append(triggers.FilterGroups, fg.Render())
	}
	cfg.Triggers = triggers
	return cfg, nil
}

func gitSource(path, sourceType string, location any, cloneDepth int, fetchSubmodules bool, identifier string) (cfn.Project_Source, error) {
	if cloneDepth < 0 || cloneDepth > 1000 {
		return cfn.Project_Source{}, validationErrorf(path, "clone depth must be between 0 and 1000, got %d", cloneDepth)
	}
	src := cfn.Project_Source{
		Type:             sourceType,
		Location:         location,
		SourceIdentifier: optional(identifier),
	}
	if cloneDepth > 0 {
		src.GitCloneDepth = cloneDepth
	}
	if fetchSubmodules {
		src.GitSubmodulesConfig = &cfn.Project_GitSubmodulesConfig{FetchSubmodules: true}
	}
	return src, nil
}

func hasPullRequestEvent(g FilterGroup) bool {
	for _, a := range g.actions {
		if strings.HasPrefix(string(a), "PULL_REQUEST_") {
			return true
		}
	}
	return false
}

func filterPath(path string, index int) string {
	return fmt.Sprintf("%s/WebhookFilters[%d]", path, index)
}

// optional returns nil for the empty string so the property is omitted.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func joinPath(bucketName any, path string) any {
	if path == "" {
		return bucketName
	}
	return intrinsics.JoinStrings(bucketName, "/"+strings.TrimPrefix(path, "/"))
}
