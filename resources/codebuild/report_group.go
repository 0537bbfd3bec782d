package codebuild

import (
	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// ReportGroup represents AWS::CodeBuild::ReportGroup.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-codebuild-reportgroup.html
type ReportGroup struct {
	DeleteReports any `json:"DeleteReports,omitempty"`

	// ExportConfig is required.
	ExportConfig *ReportGroup_ReportExportConfig `json:"ExportConfig,omitempty"`

	Name any `json:"Name,omitempty"`

	Tags []wetwire.Tag `json:"Tags,omitempty"`

	// Type is required.
	Type any `json:"Type,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r ReportGroup) ResourceType() string {
	return "AWS::CodeBuild::ReportGroup"
}

// ReportGroup attributes available through Fn::GetAtt.
const (
	ReportGroupAttrArn  = "Arn"
	ReportGroupAttrName = "Name"
)

// ReportGroup_ReportExportConfig represents AWS::CodeBuild::ReportGroup.ReportExportConfig.
type ReportGroup_ReportExportConfig struct {
	// ExportConfigType is required.
	ExportConfigType any                               `json:"ExportConfigType,omitempty"`
	S3Destination    *ReportGroup_S3ReportExportConfig `json:"S3Destination,omitempty"`
}

// ReportGroup_S3ReportExportConfig represents AWS::CodeBuild::ReportGroup.S3ReportExportConfig.
type ReportGroup_S3ReportExportConfig struct {
	// Bucket is required.
	Bucket             any `json:"Bucket,omitempty"`
	BucketOwner        any `json:"BucketOwner,omitempty"`
	EncryptionDisabled any `json:"EncryptionDisabled,omitempty"`
	EncryptionKey      any `json:"EncryptionKey,omitempty"`
	Packaging          any `json:"Packaging,omitempty"`
	Path               any `json:"Path,omitempty"`
}
