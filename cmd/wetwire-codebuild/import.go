package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/internal/awsimport"
	"github.com/lex00/wetwire-codebuild-go/internal/importer"
)

// newImportCmd creates the "import" subcommand for converting existing
// projects into a project file.
func newImportCmd() *cobra.Command {
	var (
		outputFile string
		name       string
		fromAWS    bool
		region     string
		profile    string
	)

	cmd := &cobra.Command{
		Use:   "import <template> | --from-aws [project...]",
		Short: "Import CodeBuild projects into a project file",
		Long: `Import converts existing CodeBuild projects into a YAML project file.

Projects are read from a CloudFormation template (JSON or YAML), or with
--from-aws from the CodeBuild API. Without project names every project in the
account and region is imported.

Examples:
  # Import the CodeBuild resources of a template
  wetwire-codebuild import template.yaml -o ci.yaml

  # Import two live projects
  wetwire-codebuild import --from-aws api-build web-build --region eu-west-1

  # Import every project of an account
  wetwire-codebuild import --from-aws --profile prod --name prod-ci`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				result *importer.Result
				err    error
			)
			if fromAWS {
				if name == "" {
					name = "imported"
				}
				result, err = importFromAWS(cmd, name, args, formatOr(region, env.Region), formatOr(profile, env.Profile))
			} else {
				if len(args) != 1 {
					return fmt.Errorf("import takes one template file (or --from-aws)")
				}
				result, err = importer.ImportFile(args[0], name)
			}
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return writeImport(result, outputFile, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project file name (default: derived from the template filename)")
	cmd.Flags().BoolVar(&fromAWS, "from-aws", false, "Read projects from the CodeBuild API")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default $AWS_REGION)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS shared config profile (default $AWS_PROFILE)")

	return cmd
}

func importFromAWS(cmd *cobra.Command, name string, projects []string, region, profile string) (*importer.Result, error) {
	imp, err := awsimport.NewFromConfig(cmd.Context(), region, profile, logger)
	if err != nil {
		return nil, err
	}
	return imp.File(cmd.Context(), name, projects)
}

func writeImport(result *importer.Result, outputFile string, stdout io.Writer) error {
	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	data, err := result.File.Marshal()
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	logger.Info("imported",
		zap.String("file", outputFile),
		zap.Int("projects", len(result.File.Projects)),
		zap.Int("report_groups", len(result.File.ReportGroups)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return nil
}
