// Package config reads wetwire-codebuild project files.
//
// A project file is YAML describing a stack of CodeBuild projects:
//
//	name: ci
//	projects:
//	  - id: api
//	    source:
//	      type: github
//	      owner: acme
//	      repo: api
//	      webhook_filters:
//	        - events: [PUSH]
//	          branch: main
//	    environment:
//	      image: aws/codebuild/standard:7.0
//	    timeout: 30m
//
// The YAML is decoded into generic maps first and then into the typed specs
// with mapstructure, so unknown keys are reported instead of ignored.
package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is a decoded project file.
type File struct {
	Name              string                `mapstructure:"name" yaml:"name"`
	Description       string                `mapstructure:"description" yaml:"description,omitempty"`
	Parameters        map[string]Parameter  `mapstructure:"parameters" yaml:"parameters,omitempty"`
	Buckets           map[string]BucketSpec `mapstructure:"buckets" yaml:"buckets,omitempty"`
	Projects          []ProjectSpec         `mapstructure:"projects" yaml:"projects,omitempty"`
	ReportGroups      []ReportGroupSpec     `mapstructure:"report_groups" yaml:"report_groups,omitempty"`
	SourceCredentials []CredentialSpec      `mapstructure:"source_credentials" yaml:"source_credentials,omitempty"`
}

// Parameter is a template parameter. Values elsewhere in the file refer to
// it as "${Name}".
type Parameter struct {
	Type          string `mapstructure:"type" yaml:"type"`
	Description   string `mapstructure:"description" yaml:"description,omitempty"`
	Default       any    `mapstructure:"default" yaml:"default,omitempty"`
	AllowedValues []any  `mapstructure:"allowed_values" yaml:"allowed_values,omitempty"`
	NoEcho        bool   `mapstructure:"no_echo" yaml:"no_echo,omitempty"`
}

// BucketSpec is a bucket created in the stack. Projects reference it by key.
type BucketSpec struct {
	Name           string            `mapstructure:"name" yaml:"name,omitempty"`
	Versioned      bool              `mapstructure:"versioned" yaml:"versioned,omitempty"`
	ExpirationDays int               `mapstructure:"expiration_days" yaml:"expiration_days,omitempty"`
	Tags           map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// ProjectSpec describes one project.
type ProjectSpec struct {
	ID          string `mapstructure:"id" yaml:"id"`
	Name        string `mapstructure:"name" yaml:"name,omitempty"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	// Pipeline makes a PipelineProject; Source and Artifacts must be empty.
	Pipeline           bool              `mapstructure:"pipeline" yaml:"pipeline,omitempty"`
	Source             *SourceSpec       `mapstructure:"source" yaml:"source,omitempty"`
	SecondarySources   []SourceSpec      `mapstructure:"secondary_sources" yaml:"secondary_sources,omitempty"`
	BuildSpec          any               `mapstructure:"buildspec" yaml:"buildspec,omitempty"`
	Environment        EnvironmentSpec   `mapstructure:"environment" yaml:"environment,omitempty"`
	Artifacts          *ArtifactsSpec    `mapstructure:"artifacts" yaml:"artifacts,omitempty"`
	SecondaryArtifacts []ArtifactsSpec   `mapstructure:"secondary_artifacts" yaml:"secondary_artifacts,omitempty"`
	Cache              *CacheSpec        `mapstructure:"cache" yaml:"cache,omitempty"`
	Timeout            time.Duration     `mapstructure:"timeout" yaml:"timeout,omitempty"`
	QueuedTimeout      time.Duration     `mapstructure:"queued_timeout" yaml:"queued_timeout,omitempty"`
	ConcurrentBuilds   int               `mapstructure:"concurrent_build_limit" yaml:"concurrent_build_limit,omitempty"`
	AutoRetryLimit     int               `mapstructure:"auto_retry_limit" yaml:"auto_retry_limit,omitempty"`
	Badge              bool              `mapstructure:"badge" yaml:"badge,omitempty"`
	BatchBuilds        bool              `mapstructure:"batch_builds" yaml:"batch_builds,omitempty"`
	RoleArn            string            `mapstructure:"role_arn" yaml:"role_arn,omitempty"`
	EncryptionKey      string            `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	Visibility         string            `mapstructure:"visibility" yaml:"visibility,omitempty"`
	SSMSession         bool              `mapstructure:"ssm_session" yaml:"ssm_session,omitempty"`
	Logging            *LoggingSpec      `mapstructure:"logging" yaml:"logging,omitempty"`
	Vpc                *VpcSpec          `mapstructure:"vpc" yaml:"vpc,omitempty"`
	FileSystems        []FileSystemSpec  `mapstructure:"file_systems" yaml:"file_systems,omitempty"`
	Tags               map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
	Notifications      []NotifySpec      `mapstructure:"notifications" yaml:"notifications,omitempty"`
	Alarms             []AlarmSpec       `mapstructure:"alarms" yaml:"alarms,omitempty"`
	// Outputs adds <Project>Arn and <Project>Name outputs.
	Outputs bool `mapstructure:"outputs" yaml:"outputs,omitempty"`
}

// SourceSpec selects and configures a source.
type SourceSpec struct {
	// Type is one of github, github_enterprise, bitbucket, codecommit, s3,
	// codepipeline, none.
	Type       string `mapstructure:"type" yaml:"type"`
	Identifier string `mapstructure:"identifier" yaml:"identifier,omitempty"`

	Owner      string `mapstructure:"owner" yaml:"owner,omitempty"`
	Repo       string `mapstructure:"repo" yaml:"repo,omitempty"`
	URL        string `mapstructure:"url" yaml:"url,omitempty"`
	Repository string `mapstructure:"repository" yaml:"repository,omitempty"`
	Bucket     string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Path       string `mapstructure:"path" yaml:"path,omitempty"`
	Version    string `mapstructure:"version" yaml:"version,omitempty"`

	Branch          string `mapstructure:"branch" yaml:"branch,omitempty"`
	CloneDepth      int    `mapstructure:"clone_depth" yaml:"clone_depth,omitempty"`
	FetchSubmodules bool   `mapstructure:"fetch_submodules" yaml:"fetch_submodules,omitempty"`
	IgnoreSSLErrors bool   `mapstructure:"ignore_ssl_errors" yaml:"ignore_ssl_errors,omitempty"`

	ReportBuildStatus  *bool  `mapstructure:"report_build_status" yaml:"report_build_status,omitempty"`
	BuildStatusContext string `mapstructure:"build_status_context" yaml:"build_status_context,omitempty"`
	BuildStatusURL     string `mapstructure:"build_status_url" yaml:"build_status_url,omitempty"`

	Webhook                   *bool        `mapstructure:"webhook" yaml:"webhook,omitempty"`
	WebhookTriggersBatchBuild bool         `mapstructure:"webhook_triggers_batch_build" yaml:"webhook_triggers_batch_build,omitempty"`
	WebhookFilters            []FilterSpec `mapstructure:"webhook_filters" yaml:"webhook_filters,omitempty"`
}

// FilterSpec is one webhook filter group. All conditions must match.
type FilterSpec struct {
	Events            []string `mapstructure:"events" yaml:"events"`
	Branch            string   `mapstructure:"branch" yaml:"branch,omitempty"`
	BranchNot         string   `mapstructure:"branch_not" yaml:"branch_not,omitempty"`
	Tag               string   `mapstructure:"tag" yaml:"tag,omitempty"`
	TagNot            string   `mapstructure:"tag_not" yaml:"tag_not,omitempty"`
	HeadRef           string   `mapstructure:"head_ref" yaml:"head_ref,omitempty"`
	HeadRefNot        string   `mapstructure:"head_ref_not" yaml:"head_ref_not,omitempty"`
	BaseBranch        string   `mapstructure:"base_branch" yaml:"base_branch,omitempty"`
	BaseRef           string   `mapstructure:"base_ref" yaml:"base_ref,omitempty"`
	BaseRefNot        string   `mapstructure:"base_ref_not" yaml:"base_ref_not,omitempty"`
	FilePath          string   `mapstructure:"file_path" yaml:"file_path,omitempty"`
	FilePathNot       string   `mapstructure:"file_path_not" yaml:"file_path_not,omitempty"`
	Actor             string   `mapstructure:"actor" yaml:"actor,omitempty"`
	ActorNot          string   `mapstructure:"actor_not" yaml:"actor_not,omitempty"`
	CommitMessage     string   `mapstructure:"commit_message" yaml:"commit_message,omitempty"`
	CommitMessageNot  string   `mapstructure:"commit_message_not" yaml:"commit_message_not,omitempty"`
	RepositoryName    string   `mapstructure:"repository_name" yaml:"repository_name,omitempty"`
	RepositoryNameNot string   `mapstructure:"repository_name_not" yaml:"repository_name_not,omitempty"`
}

// EnvironmentSpec describes the build host.
type EnvironmentSpec struct {
	Image string `mapstructure:"image" yaml:"image,omitempty"`
	// ImageCredentials is a Secrets Manager secret for private registries.
	ImageCredentials string                  `mapstructure:"image_credentials" yaml:"image_credentials,omitempty"`
	Compute          string                  `mapstructure:"compute" yaml:"compute,omitempty"`
	Privileged       bool                    `mapstructure:"privileged" yaml:"privileged,omitempty"`
	Certificate      string                  `mapstructure:"certificate" yaml:"certificate,omitempty"`
	Fleet            string                  `mapstructure:"fleet" yaml:"fleet,omitempty"`
	Variables        map[string]VariableSpec `mapstructure:"variables" yaml:"variables,omitempty"`
}

// VariableSpec is an environment variable. A plain string in the file is a
// PLAINTEXT value.
type VariableSpec struct {
	Value string `mapstructure:"value" yaml:"value"`
	Type  string `mapstructure:"type" yaml:"type,omitempty"`
}

// MarshalYAML writes plaintext variables back as plain strings.
func (v VariableSpec) MarshalYAML() (any, error) {
	if v.Type == "" || v.Type == "PLAINTEXT" {
		return v.Value, nil
	}
	type plain VariableSpec
	return plain(v), nil
}

// ArtifactsSpec configures artifacts. Type is s3, codepipeline, or none.
type ArtifactsSpec struct {
	Type           string `mapstructure:"type" yaml:"type"`
	Identifier     string `mapstructure:"identifier" yaml:"identifier,omitempty"`
	Bucket         string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Path           string `mapstructure:"path" yaml:"path,omitempty"`
	Name           string `mapstructure:"name" yaml:"name,omitempty"`
	IncludeBuildID *bool  `mapstructure:"include_build_id" yaml:"include_build_id,omitempty"`
	Zip            *bool  `mapstructure:"zip" yaml:"zip,omitempty"`
	Encryption     *bool  `mapstructure:"encryption" yaml:"encryption,omitempty"`
}

// CacheSpec configures the build cache. Type is local, s3, or none.
type CacheSpec struct {
	Type   string   `mapstructure:"type" yaml:"type"`
	Modes  []string `mapstructure:"modes" yaml:"modes,omitempty"`
	Bucket string   `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix string   `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

// LoggingSpec configures build logs.
type LoggingSpec struct {
	CloudWatch *CloudWatchLogSpec `mapstructure:"cloudwatch" yaml:"cloudwatch,omitempty"`
	S3         *S3LogSpec         `mapstructure:"s3" yaml:"s3,omitempty"`
}

// CloudWatchLogSpec configures CloudWatch Logs delivery.
type CloudWatchLogSpec struct {
	Disabled bool   `mapstructure:"disabled" yaml:"disabled,omitempty"`
	LogGroup string `mapstructure:"log_group" yaml:"log_group,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

// S3LogSpec configures S3 log delivery.
type S3LogSpec struct {
	Bucket      string `mapstructure:"bucket" yaml:"bucket"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Unencrypted bool   `mapstructure:"unencrypted" yaml:"unencrypted,omitempty"`
}

// VpcSpec places builds in a VPC.
type VpcSpec struct {
	VpcID          string   `mapstructure:"vpc_id" yaml:"vpc_id"`
	Subnets        []string `mapstructure:"subnets" yaml:"subnets"`
	SecurityGroups []string `mapstructure:"security_groups" yaml:"security_groups"`
}

// FileSystemSpec mounts an EFS file system.
type FileSystemSpec struct {
	Identifier   string `mapstructure:"identifier" yaml:"identifier"`
	Location     string `mapstructure:"location" yaml:"location"`
	MountPoint   string `mapstructure:"mount_point" yaml:"mount_point"`
	MountOptions string `mapstructure:"mount_options" yaml:"mount_options,omitempty"`
}

// NotifySpec creates an EventBridge rule for build events.
type NotifySpec struct {
	// On is one of state, phase, started, succeeded, failed.
	On       string `mapstructure:"on" yaml:"on"`
	Target   string `mapstructure:"target" yaml:"target"`
	Message  string `mapstructure:"message" yaml:"message,omitempty"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled,omitempty"`
}

// AlarmSpec creates a CloudWatch alarm on a project metric.
type AlarmSpec struct {
	// Metric is Builds, Duration, SucceededBuilds, or FailedBuilds.
	Metric            string        `mapstructure:"metric" yaml:"metric"`
	Statistic         string        `mapstructure:"statistic" yaml:"statistic,omitempty"`
	Period            time.Duration `mapstructure:"period" yaml:"period,omitempty"`
	Threshold         float64       `mapstructure:"threshold" yaml:"threshold"`
	EvaluationPeriods int           `mapstructure:"evaluation_periods" yaml:"evaluation_periods,omitempty"`
	Comparison        string        `mapstructure:"comparison" yaml:"comparison,omitempty"`
	Actions           []string      `mapstructure:"actions" yaml:"actions,omitempty"`
}

// ReportGroupSpec creates a report group.
type ReportGroupSpec struct {
	ID            string            `mapstructure:"id" yaml:"id"`
	Name          string            `mapstructure:"name" yaml:"name,omitempty"`
	Type          string            `mapstructure:"type" yaml:"type,omitempty"`
	ExportBucket  string            `mapstructure:"export_bucket" yaml:"export_bucket,omitempty"`
	ExportPath    string            `mapstructure:"export_path" yaml:"export_path,omitempty"`
	Zip           bool              `mapstructure:"zip" yaml:"zip,omitempty"`
	DeleteReports bool              `mapstructure:"delete_reports" yaml:"delete_reports,omitempty"`
	Tags          map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
	// WriteAccess lists the project ids that may write reports.
	WriteAccess []string `mapstructure:"write_access" yaml:"write_access,omitempty"`
}

// CredentialSpec stores source provider credentials.
type CredentialSpec struct {
	ID string `mapstructure:"id" yaml:"id"`
	// Type is github, github_enterprise, or bitbucket.
	Type     string `mapstructure:"type" yaml:"type"`
	Token    string `mapstructure:"token" yaml:"token"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
}

// Load reads and decodes a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a project file.
func Parse(data []byte) (*File, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	var f File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToVariableHook,
		),
		ErrorUnused: true,
		Result:      &f,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding project file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate checks the references between the parts of the file.
func (f *File) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("project file requires a name")
	}
	ids := make(map[string]bool)
	for i, p := range f.Projects {
		if p.ID == "" {
			return fmt.Errorf("projects[%d]: id is required", i)
		}
		if ids[p.ID] {
			return fmt.Errorf("projects[%d]: duplicate id %q", i, p.ID)
		}
		ids[p.ID] = true
	}
	for i, g := range f.ReportGroups {
		if g.ID == "" {
			return fmt.Errorf("report_groups[%d]: id is required", i)
		}
		for _, id := range g.WriteAccess {
			if !ids[id] {
				return fmt.Errorf("report_groups[%d]: unknown project %q", i, id)
			}
		}
	}
	for i, c := range f.SourceCredentials {
		if c.ID == "" {
			return fmt.Errorf("source_credentials[%d]: id is required", i)
		}
	}
	return nil
}

var variableSpecType = reflect.TypeOf(VariableSpec{})

func stringToVariableHook(from, to reflect.Type, data any) (any, error) {
	if to != variableSpecType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String, reflect.Int, reflect.Int64, reflect.Float64, reflect.Bool:
		return map[string]any{"value": fmt.Sprint(data)}, nil
	}
	return data, nil
}
