package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/config"
	"github.com/lex00/wetwire-codebuild-go/internal/differ"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two templates or project files",
		Long: `Diff compares two CloudFormation templates resource by resource.

Either side may be a project file, which is synthesized first.

Examples:
    wetwire-codebuild diff before.json after.json
    wetwire-codebuild diff deployed.json ci.yaml
    wetwire-codebuild diff a.json b.json --ignore-order --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := loadForDiff(args[0])
			if err != nil {
				return err
			}
			after, err := loadForDiff(args[1])
			if err != nil {
				return err
			}
			result, err := differ.Compare(before, after, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}
			return outputDiffResult(result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore the order of list elements")

	return cmd
}

// loadForDiff reads a template, synthesizing it when the file is a project file.
func loadForDiff(path string) (*wetwire.Template, error) {
	tmpl, err := differ.LoadTemplate(path)
	if err == nil && len(tmpl.Resources) > 0 {
		return tmpl, nil
	}
	f, loadErr := config.Load(path)
	if loadErr != nil {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, loadErr
	}
	synthesized, err := config.BuildTemplate(f, logger)
	if err != nil {
		return nil, err
	}
	// Decode the JSON form so numbers compare equal to a template read from disk.
	data, err := template.ToJSON(synthesized)
	if err != nil {
		return nil, err
	}
	return differ.ParseTemplate(data)
}

func outputDiffResult(result *differ.Result, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    wetwire.TemplateDiff `json:"diff"`
			Summary wetwire.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Empty() {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, change := range e.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		s := result.Summary
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n", s.Added, s.Removed, s.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
