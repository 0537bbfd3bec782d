package codebuild

import (
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// LoggingOptions configures where build logs go. CloudWatch Logs is enabled
// by CodeBuild when nothing is configured.
type LoggingOptions struct {
	CloudWatch *CloudWatchLoggingOptions
	S3         *S3LoggingOptions
}

// CloudWatchLoggingOptions configures CloudWatch Logs delivery.
type CloudWatchLoggingOptions struct {
	// Enabled defaults to true.
	Enabled *bool
	// LogGroupName is an existing log group. Empty uses /aws/codebuild/<project>.
	LogGroupName string
	// Prefix is the log stream name prefix.
	Prefix string
}

// S3LoggingOptions configures S3 log delivery.
type S3LoggingOptions struct {
	// Enabled defaults to true.
	Enabled *bool
	Bucket  IBucket
	Prefix  string
	// Encrypted defaults to true.
	Encrypted *bool
}

func renderLogging(p *Project, opts *LoggingOptions) (*cfn.Project_LogsConfig, error) {
	if opts == nil || (opts.CloudWatch == nil && opts.S3 == nil) {
		return nil, nil
	}
	out := &cfn.Project_LogsConfig{}

	if cw := opts.CloudWatch; cw != nil {
		if !boolValue(cw.Enabled, true) {
			out.CloudWatchLogs = &cfn.Project_CloudWatchLogsConfig{Status: cfn.LogsStatusDisabled}
		} else {
			out.CloudWatchLogs = &cfn.Project_CloudWatchLogsConfig{
				Status:     cfn.LogsStatusEnabled,
				GroupName:  optional(cw.LogGroupName),
				StreamName: optional(cw.Prefix),
			}
			if cw.LogGroupName != "" {
				grant(p.Role(), []string{"logs:CreateLogStream", "logs:PutLogEvents"},
					intrinsics.RegionalArn("logs", "log-group:"+intrinsics.EscapeSub(cw.LogGroupName)+":*"))
			}
		}
	}

	if s3 := opts.S3; s3 != nil {
		if !boolValue(s3.Enabled, true) {
			out.S3Logs = &cfn.Project_S3LogsConfig{Status: cfn.LogsStatusDisabled}
		} else {
			if s3.Bucket == nil {
				return nil, validationErrorf(p.path+"/Logging", "S3 logging requires a bucket")
			}
			out.S3Logs = &cfn.Project_S3LogsConfig{
				Status:   cfn.LogsStatusEnabled,
				Location: joinPath(s3.Bucket.BucketName(), s3.Prefix),
			}
			if !boolValue(s3.Encrypted, true) {
				out.S3Logs.EncryptionDisabled = true
			}
			pattern := "*"
			if s3.Prefix != "" {
				pattern = s3.Prefix + "/*"
			}
			grantBucketWrite(p.Role(), s3.Bucket, pattern)
		}
	}
	return out, nil
}
