package codebuild

import (
	cfn "github.com/lex00/wetwire-codebuild-go/resources/codebuild"
)

// GitHubSourceCredentialsProps configures NewGitHubSourceCredentials.
type GitHubSourceCredentialsProps struct {
	// AccessToken is a personal access token, usually a
	// "{{resolve:secretsmanager:...}}" dynamic reference.
	AccessToken any
}

// GitHubEnterpriseSourceCredentialsProps configures
// NewGitHubEnterpriseSourceCredentials.
type GitHubEnterpriseSourceCredentialsProps struct {
	AccessToken any
}

// BitBucketSourceCredentialsProps configures NewBitBucketSourceCredentials.
type BitBucketSourceCredentialsProps struct {
	Username any
	// Password is an app password.
	Password any
}

// SourceCredentials is an AWS::CodeBuild::SourceCredential. There is one per
// server type and account.
type SourceCredentials struct {
	logicalID string
}

// LogicalID returns the logical id of the credential resource.
func (c *SourceCredentials) LogicalID() string {
	return c.logicalID
}

// NewGitHubSourceCredentials stores the GitHub token CodeBuild uses for
// every GitHub source in the account.
func NewGitHubSourceCredentials(stack *Stack, id string, props GitHubSourceCredentialsProps) (*SourceCredentials, error) {
	return newSourceCredentials(stack, id, &cfn.SourceCredential{
		ServerType: cfn.ServerTypeGitHub,
		AuthType:   cfn.AuthTypePersonalAccessToken,
		Token:      props.AccessToken,
	})
}

// NewGitHubEnterpriseSourceCredentials stores the GitHub Enterprise token.
func NewGitHubEnterpriseSourceCredentials(stack *Stack, id string, props GitHubEnterpriseSourceCredentialsProps) (*SourceCredentials, error) {
	return newSourceCredentials(stack, id, &cfn.SourceCredential{
		ServerType: cfn.ServerTypeGitHubEnterprise,
		AuthType:   cfn.AuthTypePersonalAccessToken,
		Token:      props.AccessToken,
	})
}

// NewBitBucketSourceCredentials stores BitBucket basic auth credentials.
func NewBitBucketSourceCredentials(stack *Stack, id string, props BitBucketSourceCredentialsProps) (*SourceCredentials, error) {
	if props.Username == nil {
		return nil, validationErrorf(id, "BitBucket credentials require a username")
	}
	return newSourceCredentials(stack, id, &cfn.SourceCredential{
		ServerType: cfn.ServerTypeBitbucket,
		AuthType:   cfn.AuthTypeBasicAuth,
		Username:   props.Username,
		Token:      props.Password,
	})
}

func newSourceCredentials(stack *Stack, id string, resource *cfn.SourceCredential) (*SourceCredentials, error) {
	if resource.Token == nil {
		return nil, validationErrorf(id, "source credentials require a token")
	}
	logicalID, err := stack.AddResource(id, resource)
	if err != nil {
		return nil, err
	}
	return &SourceCredentials{logicalID: logicalID}, nil
}
