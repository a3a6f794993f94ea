package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/compact"
	"github.com/roach88/querydsl/internal/querytree"
)

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode [tree.json]",
		Short: "Convert a query tree to its compact URL form",
		Long: `Serialize an editor query tree to the compact string used in URLs.

Trees with sub-groups or rules without a field cannot be serialized; the
command then exits with code 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			reg, err := rootOpts.optionalRegistry()
			if err != nil {
				return err
			}
			tree, err := rootOpts.loadTree(cmd, args, "", reg)
			if err != nil {
				return err
			}
			s, ok := compact.Serialize(tree)
			if !ok {
				return NewExitError(ExitFailure,
					"tree cannot be serialized: it has sub-groups or rules without a field").withCode(ErrCodeSerialize)
			}
			if out.Format == "json" {
				return out.Success(map[string]string{"compact": s})
			}
			return out.Success(s)
		}),
	}
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	var empty bool
	cmd := &cobra.Command{
		Use:   "decode <compact>",
		Short: "Convert a compact URL string back to a query tree",
		Long: `Deserialize a compact string into an editor query tree with fresh
node IDs. Dynamic selections are resolved against --catalog when set,
scoped to the field components of --registry when that is set too.

An empty or malformed string holds no query: the command exits with
code 1, or prints the default tree with --default.`,
		Args: cobra.ExactArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			tree := compact.Deserialize(args[0], querytree.UUIDv7Generator{})
			if tree == nil {
				if !empty {
					return NewExitError(ExitFailure, "compact string holds no query").withCode(ErrCodeInput)
				}
				tree = querytree.DefaultTree(querytree.UUIDv7Generator{})
			}
			reg, err := rootOpts.optionalRegistry()
			if err != nil {
				return err
			}
			resolved, err := rootOpts.resolve(cmd.Context(), reg, tree)
			if err != nil {
				return err
			}
			return out.Success(resolved)
		}),
	}
	cmd.Flags().BoolVar(&empty, "default", false, "print the default tree for an empty query")
	return cmd
}
