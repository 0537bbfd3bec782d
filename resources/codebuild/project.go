package codebuild

import (
	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// Project represents AWS::CodeBuild::Project.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-codebuild-project.html
type Project struct {
	// Artifacts is required.
	Artifacts *Project_Artifacts `json:"Artifacts,omitempty"`

	AutoRetryLimit any `json:"AutoRetryLimit,omitempty"`

	BadgeEnabled any `json:"BadgeEnabled,omitempty"`

	BuildBatchConfig *Project_ProjectBuildBatchConfig `json:"BuildBatchConfig,omitempty"`

	Cache *Project_ProjectCache `json:"Cache,omitempty"`

	ConcurrentBuildLimit any `json:"ConcurrentBuildLimit,omitempty"`

	Description any `json:"Description,omitempty"`

	EncryptionKey any `json:"EncryptionKey,omitempty"`

	// Environment is required.
	Environment *Project_Environment `json:"Environment,omitempty"`

	FileSystemLocations []Project_ProjectFileSystemLocation `json:"FileSystemLocations,omitempty"`

	LogsConfig *Project_LogsConfig `json:"LogsConfig,omitempty"`

	Name any `json:"Name,omitempty"`

	QueuedTimeoutInMinutes any `json:"QueuedTimeoutInMinutes,omitempty"`

	ResourceAccessRole any `json:"ResourceAccessRole,omitempty"`

	SecondaryArtifacts []Project_Artifacts `json:"SecondaryArtifacts,omitempty"`

	SecondarySourceVersions []Project_ProjectSourceVersion `json:"SecondarySourceVersions,omitempty"`

	SecondarySources []Project_Source `json:"SecondarySources,omitempty"`

	// ServiceRole is required.
	ServiceRole any `json:"ServiceRole,omitempty"`

	// Source is required.
	Source *Project_Source `json:"Source,omitempty"`

	SourceVersion any `json:"SourceVersion,omitempty"`

	Tags []wetwire.Tag `json:"Tags,omitempty"`

	TimeoutInMinutes any `json:"TimeoutInMinutes,omitempty"`

	Triggers *Project_ProjectTriggers `json:"Triggers,omitempty"`

	Visibility any `json:"Visibility,omitempty"`

	VpcConfig *Project_VpcConfig `json:"VpcConfig,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Project) ResourceType() string {
	return "AWS::CodeBuild::Project"
}

// Project attributes available through Fn::GetAtt.
const (
	ProjectAttrArn = "Arn"
)

// Project_Artifacts represents AWS::CodeBuild::Project.Artifacts.
type Project_Artifacts struct {
	ArtifactIdentifier   any `json:"ArtifactIdentifier,omitempty"`
	EncryptionDisabled   any `json:"EncryptionDisabled,omitempty"`
	Location             any `json:"Location,omitempty"`
	Name                 any `json:"Name,omitempty"`
	NamespaceType        any `json:"NamespaceType,omitempty"`
	OverrideArtifactName any `json:"OverrideArtifactName,omitempty"`
	Packaging            any `json:"Packaging,omitempty"`
	Path                 any `json:"Path,omitempty"`
	// Type is required.
	Type any `json:"Type,omitempty"`
}

// Project_Source represents AWS::CodeBuild::Project.Source.
type Project_Source struct {
	Auth                *Project_SourceAuth          `json:"Auth,omitempty"`
	BuildSpec           any                          `json:"BuildSpec,omitempty"`
	BuildStatusConfig   *Project_BuildStatusConfig   `json:"BuildStatusConfig,omitempty"`
	GitCloneDepth       any                          `json:"GitCloneDepth,omitempty"`
	GitSubmodulesConfig *Project_GitSubmodulesConfig `json:"GitSubmodulesConfig,omitempty"`
	InsecureSsl         any                          `json:"InsecureSsl,omitempty"`
	Location            any                          `json:"Location,omitempty"`
	ReportBuildStatus   any                          `json:"ReportBuildStatus,omitempty"`
	SourceIdentifier    any                          `json:"SourceIdentifier,omitempty"`
	// Type is required.
	Type any `json:"Type,omitempty"`
}

// Project_SourceAuth represents AWS::CodeBuild::Project.SourceAuth.
type Project_SourceAuth struct {
	Resource any `json:"Resource,omitempty"`
	Type     any `json:"Type,omitempty"`
}

// Project_BuildStatusConfig represents AWS::CodeBuild::Project.BuildStatusConfig.
type Project_BuildStatusConfig struct {
	Context   any `json:"Context,omitempty"`
	TargetUrl any `json:"TargetUrl,omitempty"`
}

// Project_GitSubmodulesConfig represents AWS::CodeBuild::Project.GitSubmodulesConfig.
type Project_GitSubmodulesConfig struct {
	FetchSubmodules any `json:"FetchSubmodules"`
}

// Project_Environment represents AWS::CodeBuild::Project.Environment.
type Project_Environment struct {
	Certificate any `json:"Certificate,omitempty"`
	// ComputeType is required.
	ComputeType          any                           `json:"ComputeType,omitempty"`
	EnvironmentVariables []Project_EnvironmentVariable `json:"EnvironmentVariables,omitempty"`
	Fleet                *Project_ProjectFleet         `json:"Fleet,omitempty"`
	// Image is required.
	Image                    any                         `json:"Image,omitempty"`
	ImagePullCredentialsType any                         `json:"ImagePullCredentialsType,omitempty"`
	PrivilegedMode           any                         `json:"PrivilegedMode,omitempty"`
	RegistryCredential       *Project_RegistryCredential `json:"RegistryCredential,omitempty"`
	// Type is required.
	Type any `json:"Type,omitempty"`
}

// Project_EnvironmentVariable represents AWS::CodeBuild::Project.EnvironmentVariable.
type Project_EnvironmentVariable struct {
	Name  any `json:"Name,omitempty"`
	Type  any `json:"Type,omitempty"`
	Value any `json:"Value,omitempty"`
}

// Project_ProjectFleet represents AWS::CodeBuild::Project.ProjectFleet.
type Project_ProjectFleet struct {
	FleetArn any `json:"FleetArn,omitempty"`
}

// Project_RegistryCredential represents AWS::CodeBuild::Project.RegistryCredential.
type Project_RegistryCredential struct {
	Credential         any `json:"Credential,omitempty"`
	CredentialProvider any `json:"CredentialProvider,omitempty"`
}

// Project_ProjectCache represents AWS::CodeBuild::Project.ProjectCache.
type Project_ProjectCache struct {
	Location any   `json:"Location,omitempty"`
	Modes    []any `json:"Modes,omitempty"`
	// Type is required.
	Type any `json:"Type,omitempty"`
}

// Project_LogsConfig represents AWS::CodeBuild::Project.LogsConfig.
type Project_LogsConfig struct {
	CloudWatchLogs *Project_CloudWatchLogsConfig `json:"CloudWatchLogs,omitempty"`
	S3Logs         *Project_S3LogsConfig         `json:"S3Logs,omitempty"`
}

// Project_CloudWatchLogsConfig represents AWS::CodeBuild::Project.CloudWatchLogsConfig.
type Project_CloudWatchLogsConfig struct {
	GroupName  any `json:"GroupName,omitempty"`
	Status     any `json:"Status,omitempty"`
	StreamName any `json:"StreamName,omitempty"`
}

// Project_S3LogsConfig represents AWS::CodeBuild::Project.S3LogsConfig.
type Project_S3LogsConfig struct {
	EncryptionDisabled any `json:"EncryptionDisabled,omitempty"`
	Location           any `json:"Location,omitempty"`
	Status             any `json:"Status,omitempty"`
}

// Project_VpcConfig represents AWS::CodeBuild::Project.VpcConfig.
type Project_VpcConfig struct {
	SecurityGroupIds []any `json:"SecurityGroupIds,omitempty"`
	Subnets          []any `json:"Subnets,omitempty"`
	VpcId            any   `json:"VpcId,omitempty"`
}

// Project_ProjectTriggers represents AWS::CodeBuild::Project.ProjectTriggers.
type Project_ProjectTriggers struct {
	BuildType    any                       `json:"BuildType,omitempty"`
	FilterGroups [][]Project_WebhookFilter `json:"FilterGroups,omitempty"`
	Webhook      any                       `json:"Webhook,omitempty"`
}

// Project_WebhookFilter represents AWS::CodeBuild::Project.WebhookFilter.
type Project_WebhookFilter struct {
	ExcludeMatchedPattern any `json:"ExcludeMatchedPattern,omitempty"`
	Pattern               any `json:"Pattern,omitempty"`
	Type                  any `json:"Type,omitempty"`
}

// Project_ProjectBuildBatchConfig represents AWS::CodeBuild::Project.ProjectBuildBatchConfig.
type Project_ProjectBuildBatchConfig struct {
	BatchReportMode  any                        `json:"BatchReportMode,omitempty"`
	CombineArtifacts any                        `json:"CombineArtifacts,omitempty"`
	Restrictions     *Project_BatchRestrictions `json:"Restrictions,omitempty"`
	ServiceRole      any                        `json:"ServiceRole,omitempty"`
	TimeoutInMins    any                        `json:"TimeoutInMins,omitempty"`
}

// Project_BatchRestrictions represents AWS::CodeBuild::Project.BatchRestrictions.
type Project_BatchRestrictions struct {
	ComputeTypesAllowed  []any `json:"ComputeTypesAllowed,omitempty"`
	MaximumBuildsAllowed any   `json:"MaximumBuildsAllowed,omitempty"`
}

// Project_ProjectFileSystemLocation represents AWS::CodeBuild::Project.ProjectFileSystemLocation.
type Project_ProjectFileSystemLocation struct {
	Identifier   any `json:"Identifier,omitempty"`
	Location     any `json:"Location,omitempty"`
	MountOptions any `json:"MountOptions,omitempty"`
	MountPoint   any `json:"MountPoint,omitempty"`
	Type         any `json:"Type,omitempty"`
}

// Project_ProjectSourceVersion represents AWS::CodeBuild::Project.ProjectSourceVersion.
type Project_ProjectSourceVersion struct {
	SourceIdentifier any `json:"SourceIdentifier,omitempty"`
	SourceVersion    any `json:"SourceVersion,omitempty"`
}
