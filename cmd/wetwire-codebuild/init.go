package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"
)

// validProjectName matches names usable as a directory and a stack name.
var validProjectName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-name]",
		Short: "Create a new wetwire-codebuild project",
		Long: `Init creates a directory with a starter project file.

Examples:
    wetwire-codebuild init api-ci       # Creates ./api-ci/codebuild.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(".", args[0], cmd.OutOrStdout())
		},
	}
}

const starterProjectFile = `name: %s
description: CodeBuild projects for %s

parameters:
  Stage:
    type: String
    default: dev
    allowed_values: [dev, prod]

buckets:
  artifacts:
    versioned: true
    expiration_days: 30

projects:
  - id: build
    source:
      type: github
      owner: my-org
      repo: %s
      clone_depth: 1
      webhook_filters:
        - events: [PUSH]
          branch: main
        - events: [PULL_REQUEST_CREATED, PULL_REQUEST_UPDATED]
    buildspec:
      version: "0.2"
      phases:
        build:
          commands:
            - make test
    environment:
      image: aws/codebuild/standard:7.0
      variables:
        STAGE: ${Stage}
    artifacts:
      type: s3
      bucket: artifacts
    timeout: 30m
    outputs: true
`

const starterEnv = `# Defaults for wetwire-codebuild; flags override them.
WETWIRE_CODEBUILD_FORMAT=yaml
# WETWIRE_CODEBUILD_OUTPUT=template.yaml
# WETWIRE_CODEBUILD_LOG_LEVEL=debug
# AWS_REGION=us-east-1
# AWS_PROFILE=default
`

const starterGitignore = `# Build output
template.json
template.yaml

# IDE
.idea/
.vscode/
*.swp

# OS
.DS_Store
`

// runInit creates a new project in {workspaceDir}/{projectName}/
func runInit(workspaceDir, projectName string, w io.Writer) error {
	if !validProjectName.MatchString(projectName) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, hyphens, or underscores", projectName)
	}

	projectPath := filepath.Join(workspaceDir, projectName)
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("project already exists: %s", projectPath)
	}
	if err := os.MkdirAll(projectPath, 0755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{"codebuild.yaml", fmt.Sprintf(starterProjectFile, projectName, projectName, projectName)},
		{".env", starterEnv},
		{".gitignore", starterGitignore},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(projectPath, f.name), []byte(f.content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	fmt.Fprintf(w, "Created project: %s/\n", projectPath)
	fmt.Fprintf(w, "  ├── codebuild.yaml\n")
	fmt.Fprintf(w, "  ├── .env\n")
	fmt.Fprintf(w, "  └── .gitignore\n")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintf(w, "  cd %s && wetwire-codebuild build codebuild.yaml\n", projectName)
	fmt.Fprintln(w)

	return nil
}
