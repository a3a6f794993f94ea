package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/search"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [tree.json]",
		Short: "Compile a query tree and run it against the search backend",
		Long: `Compile a query tree like the compile command does, then post the
document to <endpoint>/<index>/_search and print the hits.

Examples:
  querydsl search tree.json --index dina_material_sample_index
  QUERYDSL_ENDPOINT=https://es:9200 querydsl search --compact '...' --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			if rootOpts.Config.Index == "" {
				return NewExitError(ExitCommandError, "no search index: set --index or index in querydsl.yaml").withCode(ErrCodeConfig)
			}
			result, err := opts.compile(cmd, args)
			if err != nil {
				return err
			}

			client, err := search.NewClient(rootOpts.Config.Endpoint,
				search.WithTimeout(rootOpts.Config.Timeout),
				search.WithBasicAuth(rootOpts.Config.Username, rootOpts.Config.Password),
				search.WithLogger(rootOpts.Logger))
			if err != nil {
				return WrapExitError(ExitCommandError, "search client", err).withCode(ErrCodeConfig)
			}
			resp, err := client.Search(cmd.Context(), rootOpts.Config.Index, result.Document)
			if err != nil {
				return err
			}

			if out.Format == "json" {
				return out.Success(resp)
			}
			return out.Success(formatHits(resp))
		}),
	}
	addCompileFlags(cmd, opts)
	return cmd
}

// formatHits renders a response as one line per hit under a summary.
func formatHits(resp *search.Response) string {
	var b strings.Builder
	total := fmt.Sprintf("%d", resp.Hits.Total.Value)
	if resp.Hits.Total.Relation == "gte" {
		total += "+"
	}
	fmt.Fprintf(&b, "%s hit(s) in %dms", total, resp.Took)
	if resp.TimedOut {
		b.WriteString(" (timed out)")
	}
	for _, hit := range resp.Hits.Hits {
		b.WriteString("\n  ")
		b.WriteString(hit.ID)
		if hit.Score != nil {
			fmt.Fprintf(&b, "  %.3f", *hit.Score)
		}
	}
	return b.String()
}
