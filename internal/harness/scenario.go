package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querydsl/internal/pipeline"
	"github.com/roach88/querydsl/internal/querytree"
)

// Scenario is one end-to-end query case.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Registry is the field registry file (.cue, .yaml, .yml or .json).
	Registry string `yaml:"registry"`

	// Catalog is an optional catalog seed file. Dynamic selections are
	// resolved against it before validation and compilation.
	Catalog string `yaml:"catalog,omitempty"`

	// Tree is the editor payload, either as a YAML mapping or as a JSON
	// string. Exactly one of Tree and Compact is set.
	Tree yaml.Node `yaml:"tree,omitempty"`

	// Compact is a compact URL string to deserialize instead of Tree.
	Compact string `yaml:"compact,omitempty"`

	// Language selects validation messages, e.g. "fr". Default English.
	Language string `yaml:"language,omitempty"`

	Request RequestSettings `yaml:"request,omitempty"`
	Expect  Expect          `yaml:"expect"`
}

// RequestSettings carries the pipeline settings of a scenario.
type RequestSettings struct {
	PageSize   int      `yaml:"page_size,omitempty"`
	PageOffset int      `yaml:"page_offset,omitempty"`
	Groups     []string `yaml:"groups,omitempty"`

	// Sort rules as "accessor" or "accessor:asc|desc".
	Sort []string `yaml:"sort,omitempty"`

	// Columns picks registry columns by accessor. Accessors the registry
	// does not list become plain columns.
	Columns []string `yaml:"columns,omitempty"`
}

// Expect is what a scenario run must produce. Unset parts are not checked.
type Expect struct {
	// Errors are validation error IDs, in tree order. An empty list
	// requires a valid tree; omitting the key skips the check.
	Errors []string `yaml:"errors"`

	// Compact is the expected serialized tree.
	Compact string `yaml:"compact,omitempty"`

	// Undefined requires the tree to compile to no clause at all.
	Undefined bool `yaml:"undefined,omitempty"`

	// DSLContains is a subset the assembled document must contain.
	DSLContains map[string]any `yaml:"dsl_contains,omitempty"`
}

// HasTree reports whether the scenario carries an editor payload.
func (s *Scenario) HasTree() bool {
	return s.Tree.Kind != 0
}

// ParseTree decodes the editor payload.
func (s *Scenario) ParseTree() (*querytree.Group, error) {
	if !s.HasTree() {
		return nil, fmt.Errorf("scenario %s: no tree", s.Name)
	}
	var payload []byte
	if s.Tree.Kind == yaml.ScalarNode {
		payload = []byte(s.Tree.Value)
	} else {
		var v any
		if err := s.Tree.Decode(&v); err != nil {
			return nil, fmt.Errorf("scenario %s: tree: %w", s.Name, err)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: tree: %w", s.Name, err)
		}
		payload = data
	}
	tree, err := querytree.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: tree: %w", s.Name, err)
	}
	return tree, nil
}

// SortRules parses the scenario's sort rules.
func (s *Scenario) SortRules() ([]pipeline.SortRule, error) {
	var rules []pipeline.SortRule
	for _, raw := range s.Request.Sort {
		rule, err := pipeline.ParseSortRule(raw)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadScenario reads a scenario file. Registry and catalog paths are
// resolved relative to the file. Unknown keys are rejected so typos
// surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	scenario.Registry = resolvePath(base, scenario.Registry)
	scenario.Catalog = resolvePath(base, scenario.Catalog)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := map[string]string{}
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario name %q used by both %s and %s", s.Name, prev, name)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Registry == "" {
		return fmt.Errorf("registry is required")
	}
	if _, err := os.Stat(s.Registry); err != nil {
		return fmt.Errorf("registry file not found: %s", s.Registry)
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); err != nil {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}

	switch {
	case s.HasTree() && s.Compact != "":
		return fmt.Errorf("tree and compact are mutually exclusive")
	case !s.HasTree() && s.Compact == "":
		return fmt.Errorf("one of tree or compact is required")
	}

	if s.Request.PageSize < 0 || s.Request.PageOffset < 0 {
		return fmt.Errorf("request: page_size and page_offset must not be negative")
	}
	if _, err := s.SortRules(); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	return nil
}
