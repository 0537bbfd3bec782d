package codebuild

// SourceCredential represents AWS::CodeBuild::SourceCredential.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-codebuild-sourcecredential.html
type SourceCredential struct {
	// AuthType is required.
	AuthType any `json:"AuthType,omitempty"`

	// ServerType is required.
	ServerType any `json:"ServerType,omitempty"`

	// Token is required.
	Token any `json:"Token,omitempty"`

	Username any `json:"Username,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r SourceCredential) ResourceType() string {
	return "AWS::CodeBuild::SourceCredential"
}
