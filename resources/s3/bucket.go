// Package s3 contains the CloudFormation S3 resource types used for CodeBuild
// artifacts, caches, logs, and report exports.
package s3

import (
	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// Bucket represents AWS::S3::Bucket.
type Bucket struct {
	BucketEncryption               *Bucket_BucketEncryption               `json:"BucketEncryption,omitempty"`
	BucketName                     any                                    `json:"BucketName,omitempty"`
	LifecycleConfiguration         *Bucket_LifecycleConfiguration         `json:"LifecycleConfiguration,omitempty"`
	PublicAccessBlockConfiguration *Bucket_PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	Tags                           []wetwire.Tag                          `json:"Tags,omitempty"`
	VersioningConfiguration        *Bucket_VersioningConfiguration        `json:"VersioningConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Bucket) ResourceType() string {
	return "AWS::S3::Bucket"
}

// Bucket attributes available through Fn::GetAtt.
const (
	BucketAttrArn        = "Arn"
	BucketAttrDomainName = "DomainName"
)

// Bucket_BucketEncryption represents AWS::S3::Bucket.BucketEncryption.
type Bucket_BucketEncryption struct {
	ServerSideEncryptionConfiguration []Bucket_ServerSideEncryptionRule `json:"ServerSideEncryptionConfiguration,omitempty"`
}

// Bucket_ServerSideEncryptionRule represents AWS::S3::Bucket.ServerSideEncryptionRule.
type Bucket_ServerSideEncryptionRule struct {
	ServerSideEncryptionByDefault *Bucket_ServerSideEncryptionByDefault `json:"ServerSideEncryptionByDefault,omitempty"`
}

// Bucket_ServerSideEncryptionByDefault represents AWS::S3::Bucket.ServerSideEncryptionByDefault.
type Bucket_ServerSideEncryptionByDefault struct {
	KMSMasterKeyID any `json:"KMSMasterKeyID,omitempty"`
	SSEAlgorithm   any `json:"SSEAlgorithm,omitempty"`
}

// Bucket_LifecycleConfiguration represents AWS::S3::Bucket.LifecycleConfiguration.
type Bucket_LifecycleConfiguration struct {
	Rules []Bucket_Rule `json:"Rules,omitempty"`
}

// Bucket_Rule represents AWS::S3::Bucket.Rule.
type Bucket_Rule struct {
	ExpirationInDays any `json:"ExpirationInDays,omitempty"`
	Id               any `json:"Id,omitempty"`
	Prefix           any `json:"Prefix,omitempty"`
	Status           any `json:"Status,omitempty"`
}

// Bucket_PublicAccessBlockConfiguration represents AWS::S3::Bucket.PublicAccessBlockConfiguration.
type Bucket_PublicAccessBlockConfiguration struct {
	BlockPublicAcls       any `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     any `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      any `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets any `json:"RestrictPublicBuckets,omitempty"`
}

// Bucket_VersioningConfiguration represents AWS::S3::Bucket.VersioningConfiguration.
type Bucket_VersioningConfiguration struct {
	Status any `json:"Status,omitempty"`
}
