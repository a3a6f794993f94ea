package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/catalog"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the dynamic-field catalog",
		Long: `Manage the SQLite catalog that holds managed attributes, field
extension packages and identifier types. The catalog path comes from
--catalog or catalog in querydsl.yaml.`,
	}
	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	cmd.AddCommand(newCatalogAttributesCommand(rootOpts))
	return cmd
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Load catalog entries from a seed file",
		Long: `Upsert every entry of a seed file into the catalog, creating the
database when it does not exist. Importing the same seed twice is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			seed, err := catalog.LoadSeed(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load seed", err).withCode(ErrCodeInput)
			}
			store, err := rootOpts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(cmd.Context(), seed); err != nil {
				return WrapExitError(ExitCommandError, "import seed", err).withCode(ErrCodeCatalog)
			}
			counts := map[string]int{
				"managedAttributes": len(seed.ManagedAttributes),
				"extensionFields":   len(seed.ExtensionFields),
				"identifierTypes":   len(seed.IdentifierTypes),
			}
			rootOpts.Logger.Debug("imported catalog seed", "path", args[0], "catalog", rootOpts.Config.Catalog)
			if out.Format == "json" {
				return out.Success(counts)
			}
			return out.Success(fmt.Sprintf("Imported %d managed attribute(s), %d extension field(s), %d identifier type(s)",
				counts["managedAttributes"], counts["extensionFields"], counts["identifierTypes"]))
		}),
	}
}

func newCatalogAttributesCommand(rootOpts *RootOptions) *cobra.Command {
	var component string
	cmd := &cobra.Command{
		Use:   "attributes",
		Short: "List managed attributes",
		Args:  cobra.NoArgs,
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			store, err := rootOpts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			attrs, err := store.ManagedAttributes(cmd.Context(), component)
			if err != nil {
				return WrapExitError(ExitCommandError, "list managed attributes", err).withCode(ErrCodeCatalog)
			}
			if out.Format == "json" {
				return out.Success(attrs)
			}
			tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tKIND\tCOMPONENT\tID")
			for _, a := range attrs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Key, a.Name, a.ElementKind, a.Component, a.ID)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&component, "component", "", "only list attributes of this component")
	return cmd
}

// openCatalog opens the configured catalog store.
func (o *RootOptions) openCatalog() (*catalog.Store, error) {
	if o.Config.Catalog == "" {
		return nil, NewExitError(ExitCommandError,
			"no catalog: set --catalog or catalog in querydsl.yaml").withCode(ErrCodeConfig)
	}
	store, err := catalog.Open(o.Config.Catalog)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open catalog", err).withCode(ErrCodeCatalog)
	}
	return store, nil
}
