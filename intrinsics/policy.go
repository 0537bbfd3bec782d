// Package intrinsics provides CloudFormation intrinsic functions.
// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
type Json = map[string]any

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...PolicyStatement) PolicyDocument {
	doc := PolicyDocument{Version: "2012-10-17"}
	for _, s := range statements {
		doc.Statement = append(doc.Statement, s)
	}
	return doc
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Allow returns an Allow statement for the given actions and resources.
// A single action or resource is emitted as a scalar, matching what
// CloudFormation users usually write by hand.
func Allow(actions []string, resources ...any) PolicyStatement {
	return PolicyStatement{
		Effect:   "Allow",
		Action:   collapse(stringsToAny(actions)),
		Resource: collapse(resources),
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func collapse(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// ServicePrincipal represents a service principal (e.g., codebuild.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// AssumeRoleFor returns a trust policy letting the given services assume a role.
func AssumeRoleFor(services ...string) PolicyDocument {
	principal := make(ServicePrincipal, len(services))
	for i, s := range services {
		principal[i] = s
	}
	return NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: principal,
		Action:    "sts:AssumeRole",
	})
}

// IAM condition operators used by the construct layer.
const (
	StringEquals = "StringEquals"
	StringLike   = "StringLike"
	ArnEquals    = "ArnEquals"
)
