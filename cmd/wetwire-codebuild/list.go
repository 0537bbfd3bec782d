package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

func newListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list <project-file>",
		Short: "List synthesized resources",
		Long: `List synthesizes a project file and displays every resource with its dependencies.

Examples:
    wetwire-codebuild list ci.yaml
    wetwire-codebuild list ci.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tmpl, err := synthesize(args[0])
			if err != nil {
				return err
			}
			return outputListResult(listResources(tmpl), outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResources(tmpl *wetwire.Template) wetwire.ListResult {
	deps := template.Dependencies(tmpl)
	result := wetwire.ListResult{
		Resources: make([]wetwire.ListResource, 0, len(tmpl.Resources)),
	}
	for name, def := range tmpl.Resources {
		result.Resources = append(result.Resources, wetwire.ListResource{
			Name:      name,
			Type:      def.Type,
			DependsOn: deps[name],
		})
	}

	sort.Slice(result.Resources, func(i, j int) bool {
		return result.Resources[i].Name < result.Resources[j].Name
	})
	return result
}

func outputListResult(result wetwire.ListResult, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
