package codebuild

// Allowed values for string-typed CodeBuild properties.

// Source and artifact types.
const (
	SourceTypeBitbucket         = "BITBUCKET"
	SourceTypeCodeCommit        = "CODECOMMIT"
	SourceTypeCodePipeline      = "CODEPIPELINE"
	SourceTypeGitHub            = "GITHUB"
	SourceTypeGitHubEnterprise  = "GITHUB_ENTERPRISE"
	SourceTypeGitLab            = "GITLAB"
	SourceTypeGitLabSelfManaged = "GITLAB_SELF_MANAGED"
	SourceTypeNoSource          = "NO_SOURCE"
	SourceTypeS3                = "S3"

	ArtifactsTypeCodePipeline = "CODEPIPELINE"
	ArtifactsTypeNoArtifacts  = "NO_ARTIFACTS"
	ArtifactsTypeS3           = "S3"
)

// Artifact packaging and naming.
const (
	PackagingNone = "NONE"
	PackagingZip  = "ZIP"

	NamespaceTypeBuildID = "BUILD_ID"
	NamespaceTypeNone    = "NONE"
)

// Environment types.
const (
	EnvironmentTypeArmContainer         = "ARM_CONTAINER"
	EnvironmentTypeArmLambdaContainer   = "ARM_LAMBDA_CONTAINER"
	EnvironmentTypeLinuxContainer       = "LINUX_CONTAINER"
	EnvironmentTypeLinuxGpuContainer    = "LINUX_GPU_CONTAINER"
	EnvironmentTypeLinuxLambdaContainer = "LINUX_LAMBDA_CONTAINER"
	EnvironmentTypeWindowsContainer     = "WINDOWS_CONTAINER"
	EnvironmentTypeWindowsServer2019    = "WINDOWS_SERVER_2019_CONTAINER"
	EnvironmentTypeWindowsServer2022    = "WINDOWS_SERVER_2022_CONTAINER"
)

// Cache types and local cache modes.
const (
	CacheTypeLocal   = "LOCAL"
	CacheTypeNoCache = "NO_CACHE"
	CacheTypeS3      = "S3"

	CacheModeSource      = "LOCAL_SOURCE_CACHE"
	CacheModeDockerLayer = "LOCAL_DOCKER_LAYER_CACHE"
	CacheModeCustom      = "LOCAL_CUSTOM_CACHE"
)

// Log statuses.
const (
	LogsStatusEnabled  = "ENABLED"
	LogsStatusDisabled = "DISABLED"
)

// Webhook filter types.
const (
	WebhookFilterEvent          = "EVENT"
	WebhookFilterActorAccountID = "ACTOR_ACCOUNT_ID"
	WebhookFilterHeadRef        = "HEAD_REF"
	WebhookFilterBaseRef        = "BASE_REF"
	WebhookFilterFilePath       = "FILE_PATH"
	WebhookFilterCommitMessage  = "COMMIT_MESSAGE"
	WebhookFilterRepositoryName = "REPOSITORY_NAME"
	WebhookFilterWorkflowName   = "WORKFLOW_NAME"
	WebhookFilterReleaseName    = "RELEASE_NAME"
	WebhookFilterTagName        = "TAG_NAME"
)

// Webhook build types.
const (
	WebhookBuildTypeBuild      = "BUILD"
	WebhookBuildTypeBuildBatch = "BUILD_BATCH"
)

// Report group types and export configuration.
const (
	ReportGroupTypeTest         = "TEST"
	ReportGroupTypeCodeCoverage = "CODE_COVERAGE"

	ReportExportTypeS3       = "S3"
	ReportExportTypeNoExport = "NO_EXPORT"
)

// Source credential values.
const (
	AuthTypeBasicAuth           = "BASIC_AUTH"
	AuthTypeOAuth               = "OAUTH"
	AuthTypePersonalAccessToken = "PERSONAL_ACCESS_TOKEN"
	AuthTypeCodeConnections     = "CODECONNECTIONS"

	ServerTypeBitbucket        = "BITBUCKET"
	ServerTypeGitHub           = "GITHUB"
	ServerTypeGitHubEnterprise = "GITHUB_ENTERPRISE"
	ServerTypeGitLab           = "GITLAB"
)

// Project visibility.
const (
	VisibilityPublicRead = "PUBLIC_READ"
	VisibilityPrivate    = "PRIVATE"
)

// Batch report modes.
const (
	BatchReportModeReportAggregatedBatch  = "REPORT_AGGREGATED_BATCH"
	BatchReportModeReportIndividualBuilds = "REPORT_INDIVIDUAL_BUILDS"
)
