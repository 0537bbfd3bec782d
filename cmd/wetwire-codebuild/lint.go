package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/linter"
)

var (
	errLintIssues       = errors.New("lint found issues")
	errValidationFailed = errors.New("validation failed")
)

func newLintCmd() *cobra.Command {
	var (
		outputFormat  string
		disabled      []string
		failOnWarning bool
	)

	cmd := &cobra.Command{
		Use:   "lint <project-file>",
		Short: "Check the synthesized template for common mistakes",
		Long: `Lint synthesizes a project file and checks the CodeBuild resources.

Rules:
    WCB001: Privileged mode enabled
    WCB002: Secret-looking variable stored as plaintext
    WCB003: No build timeout
    WCB004: Artifacts with encryption disabled
    WCB005: No logs configuration
    WCB006: S3 cache without a prefix
    WCB007: Webhook without filter groups
    WCB008: Hardcoded partition in an ARN

Examples:
    wetwire-codebuild lint ci.yaml
    wetwire-codebuild lint ci.yaml --disable WCB005 --fail-on-warning`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runLint(args[0], linter.Options{
				DisabledRules: disabled,
				FailOnWarning: failOnWarning,
			})
			if err != nil {
				return err
			}
			return outputLintResult(result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "Rule IDs to skip")
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Fail on warnings as well as errors")

	return cmd
}

func runLint(path string, opts linter.Options) (wetwire.LintResult, error) {
	_, tmpl, err := synthesize(path)
	if err != nil {
		return wetwire.LintResult{}, fmt.Errorf("lint failed: %w", err)
	}
	return linter.LintTemplate(tmpl, opts).LintResult(), nil
}

func outputLintResult(result wetwire.LintResult, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}

		for _, issue := range result.Issues {
			location := issue.Resource
			if issue.Path != "" {
				location += "." + issue.Path
			}
			fmt.Fprintf(w, "%s: %s: %s [%s]\n", location, issue.Severity, issue.Message, issue.Rule)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errLintIssues
	}
	return nil
}
