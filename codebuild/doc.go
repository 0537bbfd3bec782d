// Package codebuild is the construct layer for AWS CodeBuild.
//
// A Stack collects resources. Constructs such as Project, PipelineProject,
// ReportGroup, and the source credential helpers add the CloudFormation
// resources they need to it, including the IAM role and policy a project
// runs with. Synth validates every construct and renders the template:
//
//	stack := codebuild.NewStack("ci")
//	project, err := codebuild.NewProject(stack, "api", codebuild.ProjectProps{
//		Source: codebuild.GitHubSource(codebuild.GitHubSourceProps{
//			Owner: "acme",
//			Repo:  "api",
//			WebhookFilters: []codebuild.FilterGroup{
//				codebuild.InEventOf(codebuild.EventActionPush).AndBranchIs("main"),
//			},
//		}),
//	})
//	template, err := stack.Synth()
package codebuild
