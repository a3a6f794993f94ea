package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/field"
)

// FieldInfo describes one registry field and the operators it accepts.
type FieldInfo struct {
	Key       string           `json:"key"`
	Label     string           `json:"label,omitempty"`
	Type      field.Type       `json:"type"`
	Path      string           `json:"path"`
	Operators []field.Operator `json:"operators"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List registry fields and their operators",
		Long: `List the fields of the configured registry with their index path and
the operators a rule on them may use. For dynamic fields the operators are
those of a text sub-element.`,
		Args: cobra.NoArgs,
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			reg, err := rootOpts.loadRegistry()
			if err != nil {
				return err
			}
			infos := fieldInfos(reg.Registry)
			if out.Format == "json" {
				return out.Success(infos)
			}

			tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTYPE\tPATH\tOPERATORS")
			for _, fi := range infos {
				ops := make([]string, len(fi.Operators))
				for i, op := range fi.Operators {
					ops[i] = string(op)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fi.Key, fi.Type, fi.Path, strings.Join(ops, ","))
			}
			return tw.Flush()
		}),
	}
}

func fieldInfos(reg *field.Registry) []FieldInfo {
	fields := reg.Fields()
	infos := make([]FieldInfo, 0, len(fields))
	for _, d := range fields {
		ops := field.OperatorsFor(d)
		if d.Type.IsDynamic() {
			ops = field.DynamicOperators(d.Type, field.KindString)
		}
		infos = append(infos, FieldInfo{
			Key:       d.Key(),
			Label:     d.Label,
			Type:      d.Type,
			Path:      d.IndexPath(),
			Operators: ops,
		})
	}
	return infos
}
