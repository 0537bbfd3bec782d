package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/config"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

func newBuildCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build <project-file>",
		Short: "Generate CloudFormation template from a project file",
		Long: `Build synthesizes the projects of a YAML project file into a template.

Examples:
    wetwire-codebuild build ci.yaml
    wetwire-codebuild build ci.yaml -o template.json
    wetwire-codebuild build ci.yaml --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := formatOr(outputFormat, env.Format)
			out := formatOr(outputFile, env.Output)
			return outputResult(runBuild(args[0]), format, out, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json or yaml (default $WETWIRE_CODEBUILD_FORMAT or json)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// synthesize loads a project file and builds its template.
func synthesize(path string) (*config.File, *wetwire.Template, error) {
	f, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := config.BuildTemplate(f, logger)
	if err != nil {
		return f, nil, err
	}
	logger.Debug("synthesized", zap.String("file", path), zap.Int("resources", len(tmpl.Resources)))
	return f, tmpl, nil
}

func runBuild(path string) wetwire.BuildResult {
	_, tmpl, err := synthesize(path)
	if err != nil {
		return wetwire.BuildResult{Success: false, Errors: splitErrors(err)}
	}

	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	return wetwire.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: names,
	}
}

func outputResult(result wetwire.BuildResult, format, outputFile string, stdout, stderr io.Writer) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(stderr, e)
		}
		return fmt.Errorf("build failed")
	}

	data, err := template.Encode(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return err
	}
	logger.Info("wrote template", zap.String("file", outputFile), zap.Int("resources", len(result.Resources)))
	return nil
}

// splitErrors flattens errors.Join trees into one message per line.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
