package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/compact"
	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/esquery"
	"github.com/roach88/querydsl/internal/pipeline"
	"github.com/roach88/querydsl/internal/validate"
)

// CompileOptions holds flags for the compile and search commands.
type CompileOptions struct {
	*RootOptions
	Compact    string   // compact string instead of a tree file
	PageOffset int      // from
	Sort       []string // accessor[:asc|desc]
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Document dsl.Object       `json:"document"`
	Compact  string           `json:"compact,omitempty"`
	Errors   []validate.Error `json:"errors,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [tree.json]",
		Short: "Compile a query tree to a search request document",
		Long: `Compile an editor query tree into an Elasticsearch request document.

The tree is read from the given file, from stdin, or from --compact.
Validation errors are logged as warnings; the tree is compiled anyway and
invalid rules contribute nothing.

Examples:
  querydsl compile tree.json --registry fields.cue
  querydsl compile --compact '{"c":"a","p":[...]}' --page-size 25 --sort data.attributes.createdOn:desc
  cat tree.json | querydsl compile --group aafc --group cnc --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			result, err := opts.compile(cmd, args)
			if err != nil {
				return err
			}
			if out.Format == "json" {
				return out.Success(result)
			}
			return out.Success(result.Document)
		}),
	}
	addCompileFlags(cmd, opts)
	return cmd
}

func addCompileFlags(cmd *cobra.Command, opts *CompileOptions) {
	cmd.Flags().StringVar(&opts.Compact, "compact", "", "compact query string to compile instead of a tree file")
	cmd.Flags().IntVar(&opts.PageOffset, "page-offset", 0, "offset of the first result")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort rule accessor[:asc|desc] (repeatable)")
}

// compile runs the whole chain: load, resolve, validate, compile, assemble.
func (o *CompileOptions) compile(cmd *cobra.Command, args []string) (*CompileResult, error) {
	reg, err := o.loadRegistry()
	if err != nil {
		return nil, err
	}
	columns, err := o.loadColumns()
	if err != nil {
		return nil, err
	}
	var rules []pipeline.SortRule
	for _, raw := range o.Sort {
		rule, err := pipeline.ParseSortRule(raw)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --sort", err).withCode(ErrCodeInput)
		}
		rules = append(rules, rule)
	}
	if o.PageOffset < 0 {
		return nil, NewExitError(ExitCommandError, "--page-offset must not be negative").withCode(ErrCodeInput)
	}

	tree, err := o.loadTree(cmd, args, o.Compact, reg.Registry)
	if err != nil {
		return nil, err
	}

	result := &CompileResult{}
	var fragment dsl.Object
	if tree != nil {
		result.Errors = validate.New(reg.Registry, validate.WithLogger(o.Logger)).Validate(tree)
		for _, e := range result.Errors {
			o.Logger.Warn("invalid rule", "field", e.FieldName, "id", e.ID, "message", e.ErrorMessage)
		}
		fragment = esquery.NewCompiler(reg.Registry, esquery.WithLogger(o.Logger)).Compile(tree)
		if s, ok := compact.Serialize(tree); ok {
			result.Compact = s
		}
	}

	result.Document = pipeline.Build(fragment, pipeline.Request{
		PageSize:   o.Config.PageSize,
		PageOffset: o.PageOffset,
		Sort:       rules,
		Columns:    columns,
		Groups:     o.Config.Groups,
	})
	return result, nil
}
