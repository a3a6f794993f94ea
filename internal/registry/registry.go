// Package registry loads field registries from disk.
//
// Three formats are understood, chosen by file extension:
//
//   - .cue: checked against the embedded #Registry schema, so type
//     errors carry a file position.
//   - .yaml / .yml: strict decoding, unknown keys are errors.
//   - .json: strict decoding, unknown keys are errors.
//
// Every format declares a list of fields and an optional list of default
// result columns. A column may be written as a bare accessor string.
package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/querydsl/internal/field"
)

//go:embed schema.cue
var schemaSource string

// Result is a loaded registry file.
type Result struct {
	Registry *field.Registry
	Columns  []field.Column
}

// document is the decoded shape shared by the YAML and JSON formats.
type document struct {
	Fields  []field.Descriptor `json:"fields" yaml:"fields"`
	Columns []field.Column     `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// LoadFile reads and loads the registry file at path.
func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading registry file: %v", err)}
	}
	return Load(path, data)
}

// Load parses data in the format implied by name's extension.
func Load(name string, data []byte) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		return LoadCUE(name, data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".json":
		return LoadJSON(data)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported registry format %q (want .cue, .yaml, .yml or .json)", filepath.Ext(name))}
	}
}

// LoadYAML decodes a YAML registry document.
func LoadYAML(data []byte) (*Result, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding YAML registry: %v", err)}
	}
	return build(doc)
}

// LoadJSON decodes a JSON registry document.
func LoadJSON(data []byte) (*Result, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding JSON registry: %v", err)}
	}
	return build(doc)
}

// LoadCUE compiles a CUE registry, unifies it with the #Registry schema and
// reads the concrete result.
func LoadCUE(filename string, data []byte) (*Result, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUE(ErrCodeGeneric, err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, fromCUE(ErrCodeParseFailed, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Registry")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	var doc document
	fieldsIter, err := v.LookupPath(cue.ParsePath("fields")).List()
	if err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	for fieldsIter.Next() {
		d, err := descriptorFromCUE(fieldsIter.Value())
		if err != nil {
			return nil, err
		}
		doc.Fields = append(doc.Fields, d)
	}

	if cols := v.LookupPath(cue.ParsePath("columns")); present(cols) {
		colIter, err := cols.List()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		for colIter.Next() {
			c, err := columnFromCUE(colIter.Value())
			if err != nil {
				return nil, err
			}
			doc.Columns = append(doc.Columns, c)
		}
	}

	return build(doc)
}

func descriptorFromCUE(v cue.Value) (field.Descriptor, error) {
	var d field.Descriptor
	var err error
	d.Value = stringOf(v, "value", &err)
	d.Path = stringOf(v, "path", &err)
	d.Label = stringOf(v, "label", &err)
	d.Type = field.Type(stringOf(v, "type", &err))
	d.ParentName = stringOf(v, "parentName", &err)
	d.ParentType = stringOf(v, "parentType", &err)
	d.ParentPath = stringOf(v, "parentPath", &err)
	d.KeywordMultiFieldSupport = boolOf(v, "keywordMultiFieldSupport", &err)
	d.KeywordNumericSupport = boolOf(v, "keywordNumericSupport", &err)
	d.ContainsSupport = boolOf(v, "containsSupport", &err)
	d.EndsWithSupport = boolOf(v, "endsWithSupport", &err)
	d.OptimizedPrefix = boolOf(v, "optimizedPrefix", &err)
	d.DistinctTerm = boolOf(v, "distinctTerm", &err)
	if err != nil {
		return d, err
	}

	if dyn := v.LookupPath(cue.ParsePath("dynamicField")); present(dyn) {
		df := &field.DynamicField{}
		df.Type = field.Type(stringOf(dyn, "type", &err))
		df.Path = stringOf(dyn, "path", &err)
		df.Label = stringOf(dyn, "label", &err)
		df.Component = stringOf(dyn, "component", &err)
		df.APIEndpoint = stringOf(dyn, "apiEndpoint", &err)
		if err != nil {
			return d, err
		}
		d.DynamicField = df
	}
	return d, nil
}

func columnFromCUE(v cue.Value) (field.Column, error) {
	if v.Kind() == cue.StringKind {
		s, err := v.String()
		if err != nil {
			return field.Column{}, fromCUE(ErrCodeSchema, err)
		}
		return field.Column{Accessor: s}, nil
	}

	var c field.Column
	var err error
	c.Accessor = stringOf(v, "accessor", &err)
	c.Label = stringOf(v, "label", &err)
	c.RelationshipType = stringOf(v, "relationshipType", &err)
	c.IsKeyword = boolOf(v, "isKeyword", &err)
	if err != nil {
		return c, err
	}

	if extra := v.LookupPath(cue.ParsePath("additionalAccessors")); present(extra) {
		iter, lerr := extra.List()
		if lerr != nil {
			return c, fromCUE(ErrCodeSchema, lerr)
		}
		for iter.Next() {
			s, serr := iter.Value().String()
			if serr != nil {
				return c, fromCUE(ErrCodeSchema, serr)
			}
			c.AdditionalAccessors = append(c.AdditionalAccessors, s)
		}
	}
	return c, nil
}

// present reports whether an optional field was set. Unset optional
// fields are not concrete after unification with the schema.
func present(v cue.Value) bool {
	return v.Exists() && v.IsConcrete()
}

// stringOf reads an optional string field. The first failure is kept in
// *errp and later calls become no-ops.
func stringOf(v cue.Value, name string, errp *error) string {
	if *errp != nil {
		return ""
	}
	f := v.LookupPath(cue.ParsePath(name))
	if !present(f) {
		return ""
	}
	s, err := f.String()
	if err != nil {
		*errp = fromCUE(ErrCodeSchema, err)
	}
	return s
}

func boolOf(v cue.Value, name string, errp *error) bool {
	if *errp != nil {
		return false
	}
	f := v.LookupPath(cue.ParsePath(name))
	if !present(f) {
		return false
	}
	b, err := f.Bool()
	if err != nil {
		*errp = fromCUE(ErrCodeSchema, err)
	}
	return b
}

func build(doc document) (*Result, error) {
	reg, err := field.NewRegistry(doc.Fields)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidField, Message: err.Error()}
	}
	for i, c := range doc.Columns {
		if strings.TrimSpace(c.Accessor) == "" {
			return nil, &LoadError{Code: ErrCodeInvalidField, Message: fmt.Sprintf("column[%d]: accessor is required", i)}
		}
	}
	return &Result{Registry: reg, Columns: doc.Columns}, nil
}
