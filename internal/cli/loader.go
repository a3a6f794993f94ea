package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querydsl/internal/catalog"
	"github.com/roach88/querydsl/internal/compact"
	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/querytree"
	"github.com/roach88/querydsl/internal/registry"
)

// loadRegistry loads the configured field registry.
func (o *RootOptions) loadRegistry() (*registry.Result, error) {
	if o.Config.Registry == "" {
		return nil, NewExitError(ExitCommandError,
			"no field registry: set --registry or registry in querydsl.yaml").withCode(ErrCodeConfig)
	}
	res, err := registry.LoadFile(o.Config.Registry)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("loaded field registry",
		"path", o.Config.Registry,
		"fields", res.Registry.Len(),
		"columns", len(res.Columns))
	return res, nil
}

// optionalRegistry returns the configured registry, or nil when none is
// configured. Catalog resolution uses it to scope key lookups.
func (o *RootOptions) optionalRegistry() (*field.Registry, error) {
	if o.Config.Registry == "" {
		return nil, nil
	}
	res, err := o.loadRegistry()
	if err != nil {
		return nil, err
	}
	return res.Registry, nil
}

// loadColumns returns the columns of the configured column file. Without
// one, no sorting columns are known and no source filtering is applied.
func (o *RootOptions) loadColumns() ([]field.Column, error) {
	if o.Config.Columns == "" {
		return nil, nil
	}
	res, err := registry.LoadFile(o.Config.Columns)
	if err != nil {
		return nil, err
	}
	return res.Columns, nil
}

// loadTree returns the input tree: a compact string when given, else the
// editor payload at args[0] ("-" or no argument reads stdin). Dynamic
// selections are resolved against the catalog when one is configured, with
// key lookups scoped by the components reg declares.
//
// A compact string that does not deserialize gives a nil tree.
func (o *RootOptions) loadTree(cmd *cobra.Command, args []string, compactStr string, reg *field.Registry) (*querytree.Group, error) {
	var tree *querytree.Group
	if compactStr != "" {
		if len(args) > 0 {
			return nil, NewExitError(ExitCommandError, "give either a tree file or --compact, not both").withCode(ErrCodeInput)
		}
		tree = compact.Deserialize(compactStr, querytree.UUIDv7Generator{})
		if tree == nil {
			o.Logger.Warn("compact string holds no query", "compact", compactStr)
		}
	} else {
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}
		parsed, err := readTree(cmd.InOrStdin(), path)
		if err != nil {
			return nil, err
		}
		tree = parsed
	}
	return o.resolve(cmd.Context(), reg, tree)
}

func readTree(stdin io.Reader, path string) (*querytree.Group, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read tree", err).withCode(ErrCodeInput)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("read tree: %s is empty", displayPath(path))).withCode(ErrCodeInput)
	}
	tree, err := querytree.Parse(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parse tree", err).withCode(ErrCodeInput)
	}
	return tree, nil
}

// resolve fills in dynamic selections from the configured catalog.
func (o *RootOptions) resolve(ctx context.Context, reg *field.Registry, tree *querytree.Group) (*querytree.Group, error) {
	if tree == nil || o.Config.Catalog == "" {
		return tree, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := o.openCatalog()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	resolved, err := catalog.Resolve(ctx, store, reg, tree)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolve dynamic fields", err).withCode(ErrCodeCatalog)
	}
	return resolved, nil
}

func displayPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
