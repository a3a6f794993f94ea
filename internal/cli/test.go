package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run query scenarios against golden documents",
		Long: `Run scenario files and compare each assembled request document with
golden/<scenario file name>.golden next to the scenarios.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  querydsl test ./scenarios
  querydsl test ./scenarios --filter "date-*"
  querydsl test ./scenarios --update
  querydsl test ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			return runTests(opts, args[0], cmd, out)
		}),
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command, out *OutputFormatter) error {
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if out.Format == "json" {
			return out.Success(result)
		}
		return out.Success("No scenarios found.")
	}

	h := harness.New(harness.WithLogger(opts.Logger))
	for _, file := range files {
		sr := runScenario(h, file, opts, cmd)
		if out.Format != "json" {
			printScenario(out, sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if out.Format == "json" {
		if result.Failed > 0 {
			msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
			if err := out.writeJSON(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: ErrCodeTest, Message: msg},
			}); err != nil {
				return err
			}
			return reportedFailure(msg)
		}
		return out.Success(result)
	}

	fmt.Fprintln(out.Writer)
	fmt.Fprintf(out.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return reportedFailure(fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(out.Writer, "✓ All scenarios passed")
	return nil
}

func reportedFailure(msg string) *ExitError {
	e := NewExitError(ExitFailure, msg).withCode(ErrCodeTest)
	e.reported = true
	return e
}

func printScenario(out *OutputFormatter, sr ScenarioResult, updated bool) {
	if !sr.Pass {
		fmt.Fprintf(out.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(out.Writer, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
		return
	}
	if updated {
		fmt.Fprintf(out.Writer, "✓ %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(out.Writer, "✓ %s\n", sr.Name)
}

// findScenarioFiles finds all YAML scenario files directly in dir, sorted.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// runScenario executes one scenario file and checks it against its golden
// document, or rewrites the golden document when updating.
func runScenario(h *harness.Harness, file string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	name := filepath.Base(file)
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf("load error: %v", err)}}
	}
	name = scenario.Name

	result, err := h.Run(cmd.Context(), scenario)
	if err != nil {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf("execution error: %v", err)}}
	}
	sr := ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Failures}

	current, err := harness.GoldenBytes(result)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("marshal document: %v", err))
		return sr
	}

	goldenPath := goldenFilePath(file)
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to create golden directory: %v", err))
			return sr
		}
		if err := os.WriteFile(goldenPath, current, 0o644); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to write golden file: %v", err))
		}
		return sr
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		// No golden file: expectations alone decide.
		return sr
	}
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		return sr
	}
	if !bytes.Equal(golden, current) {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "document does not match golden file (run with --update to regenerate)")
	}
	return sr
}

// goldenFilePath returns <dir>/golden/<file name>.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}
