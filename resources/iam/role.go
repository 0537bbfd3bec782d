// Package iam contains the CloudFormation IAM resource types emitted by the
// CodeBuild construct layer.
package iam

import (
	wetwire "github.com/lex00/wetwire-codebuild-go"
)

// Role represents AWS::IAM::Role.
type Role struct {
	// AssumeRolePolicyDocument is required.
	AssumeRolePolicyDocument any           `json:"AssumeRolePolicyDocument,omitempty"`
	Description              any           `json:"Description,omitempty"`
	ManagedPolicyArns        []any         `json:"ManagedPolicyArns,omitempty"`
	MaxSessionDuration       any           `json:"MaxSessionDuration,omitempty"`
	Path                     any           `json:"Path,omitempty"`
	PermissionsBoundary      any           `json:"PermissionsBoundary,omitempty"`
	Policies                 []Role_Policy `json:"Policies,omitempty"`
	RoleName                 any           `json:"RoleName,omitempty"`
	Tags                     []wetwire.Tag `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Role) ResourceType() string {
	return "AWS::IAM::Role"
}

// Role attributes available through Fn::GetAtt.
const (
	RoleAttrArn    = "Arn"
	RoleAttrRoleId = "RoleId"
)

// Role_Policy represents AWS::IAM::Role.Policy.
type Role_Policy struct {
	PolicyDocument any `json:"PolicyDocument,omitempty"`
	PolicyName     any `json:"PolicyName,omitempty"`
}

// Policy represents AWS::IAM::Policy.
type Policy struct {
	Groups []any `json:"Groups,omitempty"`
	// PolicyDocument is required.
	PolicyDocument any `json:"PolicyDocument,omitempty"`
	// PolicyName is required.
	PolicyName any   `json:"PolicyName,omitempty"`
	Roles      []any `json:"Roles,omitempty"`
	Users      []any `json:"Users,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Policy) ResourceType() string {
	return "AWS::IAM::Policy"
}
