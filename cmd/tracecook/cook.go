package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tracecook/llmtrace/internal/batch"
	"github.com/tracecook/llmtrace/internal/cook"
	"github.com/tracecook/llmtrace/internal/observability"
	"github.com/tracecook/llmtrace/internal/stats"
)

var cookCmd = &cobra.Command{
	Use:   "cook <input> <output>",
	Short: "Normalize a trace file into the cooked visualization format",
	Args:  cobra.ExactArgs(2),
	RunE:  runCook,
}

func init() {
	cookCmd.Flags().String("format", "auto", "API format of the input traces: auto, openai, claude, or gemini")
	cookCmd.Flags().Bool("stats", false, "print a token-usage report after cooking")
	cookCmd.Flags().Bool("watch", false, "re-cook whenever the input file changes")
}

func runCook(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	formatFlag, _ := cmd.Flags().GetString("format")
	showStats, _ := cmd.Flags().GetBool("stats")
	watch, _ := cmd.Flags().GetBool("watch")

	format, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}

	inputPath, outputPath := args[0], args[1]

	cfg := cfgMgr.Get()

	run := func() error {
		return cookOnce(inputPath, outputPath, format, showStats, cfg.TiktokenModel)
	}

	if err := run(); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	return watchAndRerun(inputPath, run)
}

func cookOnce(inputPath, outputPath string, format cook.Format, showStats bool, tiktokenModel string) error {
	var result batch.Result

	err := observability.Stage(logger, "cook", func() error {
		var err error
		result, err = batch.TransformFile(inputPath, outputPath, format)

		return err
	})
	if err != nil {
		color.Red("cook failed: %v", err)
		return err
	}

	out := result.Output

	observability.Counts(logger, result.RecordCount, len(out.Messages), len(out.Tools), len(out.Requests))

	roots := 0

	for _, req := range out.Requests {
		if req.ParentID == nil {
			roots++
		}
	}

	color.Green("Processed %d records", result.RecordCount)
	color.Cyan("  Messages: %d (deduplicated)", len(out.Messages))
	color.Cyan("  Tools: %d (deduplicated)", len(out.Tools))
	color.Cyan("  Requests: %d (%d root, %d child)", len(out.Requests), roots, len(out.Requests)-roots)
	color.Green("Output written to: %s", outputPath)

	if showStats {
		report, err := stats.Count(out, tiktokenModel)
		if err != nil {
			color.Yellow("token stats unavailable: %v", err)
			return nil
		}

		printTokenReport(report)
	}

	return nil
}

func printTokenReport(report stats.Report) {
	color.Cyan("Token usage (%s):", report.Encoding)
	color.Cyan("  Total: %d", report.TotalTokens)

	for _, mt := range report.ByModel {
		color.Cyan("  %s: %d requests, %d request tokens, %d response tokens",
			mt.Model, mt.Requests, mt.RequestTokens, mt.ResponseTokens)
	}
}

func parseFormat(s string) (cook.Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return cook.FormatAuto, nil
	case "openai":
		return cook.FormatOpenAI, nil
	case "claude":
		return cook.FormatClaude, nil
	case "gemini":
		return cook.FormatGemini, nil
	default:
		return "", fmt.Errorf("unknown format %q: expected auto, openai, claude, or gemini", s)
	}
}

// watchAndRerun re-invokes run whenever inputPath is written or recreated,
// following the teacher's fsnotify-watcher-plus-event-loop shape from
// cmd/root.go's config hot-reload.
func watchAndRerun(inputPath string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(inputPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	color.Yellow("Watching %s for changes (Ctrl+C to stop)...", inputPath)

	absInput, _ := filepath.Abs(inputPath)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			evPath, _ := filepath.Abs(ev.Name)
			if evPath != absInput {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := run(); err != nil {
				color.Red("re-cook failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Error("watch error", "error", err)
		}
	}
}
