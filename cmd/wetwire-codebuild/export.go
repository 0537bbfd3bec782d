package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/internal/ack"
)

// newExportCmd creates the "export" subcommand for generating ACK manifests.
func newExportCmd() *cobra.Command {
	var (
		outputFile string
		opts       ack.Options
	)

	cmd := &cobra.Command{
		Use:   "export <project-file>",
		Short: "Generate ACK Project manifests",
		Long: `Export synthesizes a project file and writes one AWS Controllers for
Kubernetes (ACK) Project manifest per CodeBuild project.

References to other resources of the stack have no value outside
CloudFormation; supply them with --set. Parameters use their defaults.

Examples:
    wetwire-codebuild export ci.yaml -n ci --set ApiRole.Arn=arn:aws:iam::123456789012:role/api
    wetwire-codebuild export ci.yaml --region eu-west-1 --account-id 123456789012 -o projects.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tmpl, err := synthesize(args[0])
			if err != nil {
				return err
			}
			if opts.Region == "" {
				opts.Region = env.Region
			}

			result, err := ack.Export(tmpl, opts)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			for _, w := range result.Warnings {
				logger.Warn(w)
			}

			data, err := ack.Marshal(result.Projects)
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return err
			}
			logger.Info("wrote manifests", zap.String("file", outputFile), zap.Int("projects", len(result.Projects)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace of the manifests")
	cmd.Flags().StringToStringVarP(&opts.Labels, "label", "l", nil, "Labels added to every manifest")
	cmd.Flags().StringToStringVar(&opts.Values, "set", nil, "Values for references, keyed Name or Name.Attribute")
	cmd.Flags().StringVar(&opts.Region, "region", "", "Value of AWS::Region (default $AWS_REGION)")
	cmd.Flags().StringVar(&opts.AccountID, "account-id", "", "Value of AWS::AccountId")
	cmd.Flags().StringVar(&opts.Partition, "partition", "aws", "Value of AWS::Partition")

	return cmd
}
