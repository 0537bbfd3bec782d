// Package intrinsics provides CloudFormation intrinsic functions.
//
// The core intrinsic types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "BuildProject"}        → {"Ref": "BuildProject"}
//	GetAtt{LogicalName: "Role", Attribute: "Arn"}
//	Sub{String: "${AWS::StackName}-build"} → {"Fn::Sub": "${AWS::StackName}-build"}
//
// Pseudo-parameters (AWS_REGION, AWS_ACCOUNT_ID, ...) are Refs as well.
package intrinsics

import (
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// If represents a CloudFormation Fn::If intrinsic function.
	If = intrinsics.If

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue
)

// Pseudo-parameters predefined by CloudFormation.
var (
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	AWS_NO_VALUE   = intrinsics.AWS_NO_VALUE
	AWS_PARTITION  = intrinsics.AWS_PARTITION
	AWS_REGION     = intrinsics.AWS_REGION
	AWS_STACK_ID   = intrinsics.AWS_STACK_ID
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX
)

// RegionalArn builds an ARN in the current partition, region, and account.
//
//	RegionalArn("codebuild", "project/api") →
//	    {"Fn::Sub": "arn:${AWS::Partition}:codebuild:${AWS::Region}:${AWS::AccountId}:project/api"}
func RegionalArn(service, resource string) Sub {
	return Sub{String: "arn:${AWS::Partition}:" + service + ":${AWS::Region}:${AWS::AccountId}:" + resource}
}

// GlobalArn builds an ARN with no region or account segment, as used by S3.
func GlobalArn(service, resource string) Sub {
	return Sub{String: "arn:${AWS::Partition}:" + service + ":::" + resource}
}

// EscapeSub escapes s for use as literal text inside a Fn::Sub string, so
// "${x}" renders as "${x}" instead of referencing x.
func EscapeSub(s string) string {
	return strings.ReplaceAll(s, "${", "${!")
}

// JoinStrings joins values with an empty delimiter, collapsing to a plain
// string when every value is already a string.
func JoinStrings(values ...any) any {
	var sb strings.Builder
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return Join{Delimiter: "", Values: values}
		}
		sb.WriteString(s)
	}
	return sb.String()
}
