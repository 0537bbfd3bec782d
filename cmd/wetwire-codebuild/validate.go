package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking templates with cfn-lint.
func newValidateCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate <project-file>",
		Short: "Validate the synthesized template",
		Long: `Validate synthesizes a project file and checks the result.

Checks performed:
  - Synthesis: timeouts, sources, artifacts and webhook filters are consistent
  - cfn-lint: the template is valid CloudFormation

Examples:
    wetwire-codebuild validate ci.yaml
    wetwire-codebuild validate ci.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runValidate(args[0])
			if err != nil {
				return err
			}
			return outputValidateResult(result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runValidate(path string) (wetwire.ValidateResult, error) {
	_, tmpl, err := synthesize(path)
	if err != nil {
		return wetwire.ValidateResult{Success: false, Errors: splitErrors(err)}, nil
	}

	lintResult, err := validation.ValidateTemplate(tmpl)
	if err != nil {
		return wetwire.ValidateResult{}, fmt.Errorf("validation failed: %w", err)
	}
	return lintResult.ValidateResult(len(tmpl.Resources)), nil
}

func outputValidateResult(result wetwire.ValidateResult, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}
