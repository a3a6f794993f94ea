package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/roach88/querydsl/internal/catalog"
	"github.com/roach88/querydsl/internal/compact"
	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/esquery"
	"github.com/roach88/querydsl/internal/field"
	"github.com/roach88/querydsl/internal/pipeline"
	"github.com/roach88/querydsl/internal/querytree"
	"github.com/roach88/querydsl/internal/registry"
	"github.com/roach88/querydsl/internal/testutil"
	"github.com/roach88/querydsl/internal/validate"
)

// Harness runs scenarios. Deserialized trees get sequential node IDs so
// results are reproducible.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the compiler and validator.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and checks its expectations.
//
// Execution flow:
//  1. Load the field registry
//  2. Parse or deserialize the tree
//  3. Resolve dynamic selections against the catalog seed, if any
//  4. Validate, compile and assemble the request document
//  5. Serialize the tree and evaluate expectations
//
// The error return is for scenarios that cannot run at all; failed
// expectations are reported in the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, err := registry.LoadFile(scenario.Registry)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	tree, err := h.tree(scenario)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && tree != nil {
		seed, err := catalog.LoadSeed(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		tree, err = catalog.Resolve(ctx, catalog.NewMemory(seed), loaded.Registry, tree)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	rules, err := scenario.SortRules()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	var fragment dsl.Object
	if tree != nil {
		opts := []validate.Option{validate.WithLogger(h.logger)}
		if scenario.Language != "" {
			tag, err := language.Parse(scenario.Language)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: language: %w", scenario.Name, err)
			}
			opts = append(opts, validate.WithLanguage(tag))
		}
		result.Errors = validate.New(loaded.Registry, opts...).Validate(tree)

		compiler := esquery.NewCompiler(loaded.Registry, esquery.WithLogger(h.logger))
		fragment = compiler.Compile(tree)

		if s, ok := compact.Serialize(tree); ok {
			result.Compact = s
		}
	}
	result.Undefined = fragment == nil

	result.Document = pipeline.Build(fragment, pipeline.Request{
		PageSize:   scenario.Request.PageSize,
		PageOffset: scenario.Request.PageOffset,
		Sort:       rules,
		Columns:    pickColumns(loaded.Columns, scenario.Request.Columns),
		Groups:     scenario.Request.Groups,
	})

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddFailure(msg)
	}
	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"failures", len(result.Failures))
	return result, nil
}

// tree returns the scenario's input tree. A compact string that does not
// deserialize gives a nil tree, the same as an absent URL parameter.
func (h *Harness) tree(scenario *Scenario) (*querytree.Group, error) {
	if scenario.Compact != "" {
		return compact.Deserialize(scenario.Compact, testutil.NewSequenceGenerator("n")), nil
	}
	return scenario.ParseTree()
}

func pickColumns(available []field.Column, accessors []string) []field.Column {
	var out []field.Column
	for _, acc := range accessors {
		col, ok := field.FindColumn(available, acc)
		if !ok {
			col = field.Column{Accessor: acc}
		}
		out = append(out, col)
	}
	return out
}
