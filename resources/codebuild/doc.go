// Package codebuild contains CloudFormation resource types for AWS CodeBuild.
//
// Resources:
//   - Project: AWS::CodeBuild::Project
//   - ReportGroup: AWS::CodeBuild::ReportGroup
//   - SourceCredential: AWS::CodeBuild::SourceCredential
//
// Property values that CloudFormation accepts as intrinsics are typed as any.
package codebuild
