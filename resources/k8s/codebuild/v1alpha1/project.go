package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GroupVersion is the API group and version of the ACK CodeBuild controller.
const GroupVersion = "codebuild.services.k8s.aws/v1alpha1"

// ProjectTypeMeta returns the TypeMeta every Project manifest carries.
func ProjectTypeMeta() metav1.TypeMeta {
	return metav1.TypeMeta{APIVersion: GroupVersion, Kind: "Project"}
}

// Project represents an ACK CodeBuild Project resource.
// +kubebuilder:object:root=true
type Project struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ProjectSpec   `json:"spec,omitempty"`
	Status ProjectStatus `json:"status,omitempty"`
}

// ProjectSpec defines the desired state of a CodeBuild project.
type ProjectSpec struct {
	// Name is the name of the build project.
	Name string `json:"name"`

	// Artifacts describes the build output artifacts.
	Artifacts *ProjectArtifacts `json:"artifacts,omitempty"`

	// BadgeEnabled generates a publicly accessible build badge URL.
	BadgeEnabled *bool `json:"badgeEnabled,omitempty"`

	// Cache describes the project's cache.
	Cache *ProjectCache `json:"cache,omitempty"`

	// ConcurrentBuildLimit caps concurrent builds for the project.
	ConcurrentBuildLimit *int64 `json:"concurrentBuildLimit,omitempty"`

	// Description is a description of the build project.
	Description *string `json:"description,omitempty"`

	// EncryptionKey is the KMS key used to encrypt build output.
	EncryptionKey *string `json:"encryptionKey,omitempty"`

	// Environment describes the build environment.
	Environment *ProjectEnvironment `json:"environment,omitempty"`

	// LogsConfig describes CloudWatch and S3 logging.
	LogsConfig *LogsConfig `json:"logsConfig,omitempty"`

	// QueuedTimeoutInMinutes is how long a build may stay queued.
	QueuedTimeoutInMinutes *int64 `json:"queuedTimeoutInMinutes,omitempty"`

	// SecondaryArtifacts are additional build outputs.
	SecondaryArtifacts []*ProjectArtifacts `json:"secondaryArtifacts,omitempty"`

	// SecondarySources are additional build inputs.
	SecondarySources []*ProjectSource `json:"secondarySources,omitempty"`

	// ServiceRole is the ARN of the IAM role CodeBuild assumes.
	ServiceRole *string `json:"serviceRole,omitempty"`

	// Source describes the build input.
	Source *ProjectSource `json:"source,omitempty"`

	// SourceVersion is the version of the source to build.
	SourceVersion *string `json:"sourceVersion,omitempty"`

	// Tags are key-value pairs to categorize resources.
	Tags []*Tag `json:"tags,omitempty"`

	// TimeoutInMinutes is how long a build may run.
	TimeoutInMinutes *int64 `json:"timeoutInMinutes,omitempty"`

	// VPCConfig places builds in a VPC.
	VPCConfig *VPCConfig `json:"vpcConfig,omitempty"`
}

// ProjectArtifacts describes build output artifacts.
type ProjectArtifacts struct {
	ArtifactIdentifier   *string `json:"artifactIdentifier,omitempty"`
	EncryptionDisabled   *bool   `json:"encryptionDisabled,omitempty"`
	Location             *string `json:"location,omitempty"`
	Name                 *string `json:"name,omitempty"`
	NamespaceType        *string `json:"namespaceType,omitempty"`
	OverrideArtifactName *bool   `json:"overrideArtifactName,omitempty"`
	Packaging            *string `json:"packaging,omitempty"`
	Path                 *string `json:"path,omitempty"`
	Type                 *string `json:"type,omitempty"`
}

// ProjectSource describes build input.
type ProjectSource struct {
	BuildSpec         *string `json:"buildSpec,omitempty"`
	GitCloneDepth     *int64  `json:"gitCloneDepth,omitempty"`
	InsecureSSL       *bool   `json:"insecureSSL,omitempty"`
	Location          *string `json:"location,omitempty"`
	ReportBuildStatus *bool   `json:"reportBuildStatus,omitempty"`
	SourceIdentifier  *string `json:"sourceIdentifier,omitempty"`
	Type              *string `json:"type,omitempty"`
}

// ProjectEnvironment describes the build container.
type ProjectEnvironment struct {
	Certificate              *string                `json:"certificate,omitempty"`
	ComputeType              *string                `json:"computeType,omitempty"`
	EnvironmentVariables     []*EnvironmentVariable `json:"environmentVariables,omitempty"`
	Image                    *string                `json:"image,omitempty"`
	ImagePullCredentialsType *string                `json:"imagePullCredentialsType,omitempty"`
	PrivilegedMode           *bool                  `json:"privilegedMode,omitempty"`
	Type                     *string                `json:"type,omitempty"`
}

// EnvironmentVariable is a build environment variable.
type EnvironmentVariable struct {
	Name  *string `json:"name,omitempty"`
	Type  *string `json:"type,omitempty"`
	Value *string `json:"value,omitempty"`
}

// ProjectCache describes the project's cache.
type ProjectCache struct {
	Location *string   `json:"location,omitempty"`
	Modes    []*string `json:"modes,omitempty"`
	Type     *string   `json:"type,omitempty"`
}

// LogsConfig describes build logging.
type LogsConfig struct {
	CloudWatchLogs *CloudWatchLogsConfig `json:"cloudWatchLogs,omitempty"`
	S3Logs         *S3LogsConfig         `json:"s3Logs,omitempty"`
}

// CloudWatchLogsConfig describes CloudWatch Logs output.
type CloudWatchLogsConfig struct {
	GroupName  *string `json:"groupName,omitempty"`
	Status     *string `json:"status,omitempty"`
	StreamName *string `json:"streamName,omitempty"`
}

// S3LogsConfig describes S3 log output.
type S3LogsConfig struct {
	EncryptionDisabled *bool   `json:"encryptionDisabled,omitempty"`
	Location           *string `json:"location,omitempty"`
	Status             *string `json:"status,omitempty"`
}

// VPCConfig places builds in a VPC.
type VPCConfig struct {
	SecurityGroupIDs []*string `json:"securityGroupIDs,omitempty"`
	Subnets          []*string `json:"subnets,omitempty"`
	VPCID            *string   `json:"vpcID,omitempty"`
}

// Tag represents an AWS tag.
type Tag struct {
	// Key is the tag key.
	Key *string `json:"key,omitempty"`

	// Value is the tag value.
	Value *string `json:"value,omitempty"`
}

// ProjectStatus defines the observed state of a CodeBuild project.
type ProjectStatus struct {
	// ACKResourceMetadata contains ACK-specific metadata.
	ACKResourceMetadata *ACKResourceMetadata `json:"ackResourceMetadata,omitempty"`

	// Conditions represent the latest available observations.
	Conditions []*Condition `json:"conditions,omitempty"`

	// Created is when the project was created.
	Created *metav1.Time `json:"created,omitempty"`

	// LastModified is when the project was last changed.
	LastModified *metav1.Time `json:"lastModified,omitempty"`
}

// ACKResourceMetadata contains ACK-specific metadata.
type ACKResourceMetadata struct {
	// ARN is the Amazon Resource Name.
	ARN *string `json:"arn,omitempty"`

	// OwnerAccountID is the AWS account ID of the resource owner.
	OwnerAccountID *string `json:"ownerAccountID,omitempty"`

	// Region is the AWS region.
	Region *string `json:"region,omitempty"`
}

// Condition represents a condition.
type Condition struct {
	Type               *string      `json:"type,omitempty"`
	Status             *string      `json:"status,omitempty"`
	LastTransitionTime *metav1.Time `json:"lastTransitionTime,omitempty"`
	Message            *string      `json:"message,omitempty"`
	Reason             *string      `json:"reason,omitempty"`
}
