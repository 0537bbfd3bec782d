package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-codebuild-go/internal/linter"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

// newWatchCmd creates the "watch" subcommand for auto-rebuilding on file changes.
func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <project-file>...",
		Short: "Auto-rebuild on project file changes",
		Long: `Watch monitors project files for changes and automatically rebuilds.

The watch command:
- Runs lint on each change
- Rebuilds if lint passes (unless --lint-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    wetwire-codebuild watch ci.yaml
    wetwire-codebuild watch ci.yaml --lint-only
    wetwire-codebuild watch ci.yaml -o template.json --debounce 1s`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.outputFormat = formatOr(opts.outputFormat, env.Format)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.lintOnly, "lint-only", false, "Only run lint, skip build")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file for build (default: summary only)")

	return cmd
}

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch rebuilds the project files whenever one of them changes, until
// ctx is cancelled.
func runWatch(ctx context.Context, files []string, opts watchOptions, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors often replace files on save, so the directories are watched
	// and events are matched by path.
	watched, dirs, err := resolveWatchFiles(files)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	for _, f := range files {
		fmt.Fprintf(w, "Watching: %s\n", f)
	}

	fmt.Fprintln(w, "Running initial lint/build...")
	for _, f := range files {
		runLintAndBuild(f, opts, w)
	}

	var debounceTimer *time.Timer
	rebuildChan := make(chan string, len(files))
	pending := make(map[string]bool)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			file, ok := watched[filepath.Clean(event.Name)]
			if !ok || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("change", zap.String("file", file), zap.Stringer("op", event.Op))

			pending[file] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- "":
				default:
				}
			})

		case <-rebuildChan:
			for file := range pending {
				fmt.Fprintf(w, "\n[%s] %s changed, rebuilding...\n", time.Now().Format("15:04:05"), file)
				runLintAndBuild(file, opts, w)
			}
			pending = make(map[string]bool)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))

		case <-ctx.Done():
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// resolveWatchFiles maps the absolute path of each file to its argument and
// returns the directories to watch.
func resolveWatchFiles(files []string) (map[string]string, []string, error) {
	watched := make(map[string]string, len(files))
	var dirs []string
	seen := make(map[string]bool)

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, nil, err
		}
		watched[abs] = f

		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return watched, dirs, nil
}

// runLintAndBuild lints the file and builds it when lint passes. It returns
// whether the file built cleanly.
func runLintAndBuild(path string, opts watchOptions, w io.Writer) bool {
	_, tmpl, err := synthesize(path)
	if err != nil {
		for _, e := range splitErrors(err) {
			fmt.Fprintf(w, "Error: %s\n", e)
		}
		return false
	}

	result := linter.LintTemplate(tmpl, linter.Options{})
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "%s.%s: %s: %s [%s]\n", issue.Resource, issue.Path, issue.Severity, issue.Message, issue.Rule)
	}
	if !result.Success {
		fmt.Fprintln(w, "Lint failed, skipping build")
		return false
	}
	fmt.Fprintln(w, "Lint passed")

	if opts.lintOnly {
		return true
	}

	data, err := template.Encode(tmpl, opts.outputFormat)
	if err != nil {
		fmt.Fprintf(w, "Output error: %v\n", err)
		return false
	}

	if opts.outputFile == "" {
		fmt.Fprintf(w, "Build successful: %d resources\n", len(tmpl.Resources))
		return true
	}
	if err := os.WriteFile(opts.outputFile, data, 0644); err != nil {
		fmt.Fprintf(w, "Failed to write output: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "Build successful, wrote %s\n", opts.outputFile)
	return true
}
