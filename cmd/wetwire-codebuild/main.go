// Command wetwire-codebuild synthesizes CloudFormation templates for AWS
// CodeBuild from YAML project files.
//
// Usage:
//
//	wetwire-codebuild build ci.yaml          Generate CloudFormation template
//	wetwire-codebuild lint ci.yaml           Check for issues
//	wetwire-codebuild import template.yaml   Convert a template to a project file
//	wetwire-codebuild export ci.yaml         Generate ACK Project manifests
//	wetwire-codebuild init myproject         Create new project
//	wetwire-codebuild version                Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/internal/config"
	"github.com/lex00/wetwire-codebuild-go/internal/logging"
)

// Set by the root command before any subcommand runs.
var (
	env    = config.EnvFromOS()
	logger = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose  bool
		jsonLogs bool
		logLevel string
		envFile  string
	)

	rootCmd := &cobra.Command{
		Use:   "wetwire-codebuild",
		Short: "Generate CodeBuild CloudFormation templates from YAML project files",
		Long: `wetwire-codebuild synthesizes AWS CodeBuild projects into CloudFormation.

Describe your projects in a YAML file:

    name: ci
    projects:
      - id: api
        source:
          type: github
          owner: acme
          repo: api

Then generate CloudFormation JSON:

    wetwire-codebuild build ci.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
			env = config.EnvFromOS()
			if logLevel == "" {
				logLevel = env.LogLevel
			}
			l, err := logging.New(logging.Options{
				Verbose: verbose,
				JSON:    jsonLogs,
				Level:   logLevel,
				Output:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with environment defaults")

	rootCmd.AddCommand(
		newBuildCmd(),
		newValidateCmd(),
		newListCmd(),
		newLintCmd(),
		newGraphCmd(),
		newDiffCmd(),
		newImportCmd(),
		newExportCmd(),
		newWatchCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-codebuild %s\n", getVersion())
		},
	}
}

// formatOr returns flag unless it is empty.
func formatOr(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
