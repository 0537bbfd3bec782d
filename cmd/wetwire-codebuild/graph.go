package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-codebuild-go/internal/graph"
)

func newGraphCmd() *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph <project-file>",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    wetwire-codebuild graph ci.yaml | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wetwire-codebuild graph ci.yaml -f mermaid

Examples:
    wetwire-codebuild graph ci.yaml
    wetwire-codebuild graph ci.yaml -p              # include parameters
    wetwire-codebuild graph ci.yaml -c              # cluster by service`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, tmpl, err := synthesize(args[0])
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:            graphFormat,
				IncludeParameters: includeParameters,
				ClusterByType:     clusterByType,
			}
			return gen.Generate(tmpl, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
