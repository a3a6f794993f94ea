package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document used to populate a catalog:
//
//	managedAttributes:
//	  - key: height
//	    name: Height
//	    vocabularyElementType: INTEGER
//	extensionFields:
//	  - {extension: mixs_soil_v5, key: depth, name: Depth}
//	identifierTypes:
//	  - {key: seqdb_id, name: SeqDB ID}
type Seed struct {
	ManagedAttributes []ManagedAttribute `yaml:"managedAttributes"`
	ExtensionFields   []ExtensionField   `yaml:"extensionFields"`
	IdentifierTypes   []IdentifierType   `yaml:"identifierTypes"`
}

// DecodeSeed reads a seed document. Unknown keys are errors.
func DecodeSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed, nil
}

// LoadSeed reads the seed file at path.
func LoadSeed(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// Import writes every seed entry into the store. Entries are upserted, so
// importing the same seed twice leaves the store unchanged.
func (s *Store) Import(ctx context.Context, seed Seed) error {
	for _, a := range seed.ManagedAttributes {
		if _, err := s.PutManagedAttribute(ctx, a); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	for _, f := range seed.ExtensionFields {
		if err := s.PutExtensionField(ctx, f); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	for _, t := range seed.IdentifierTypes {
		if _, err := s.PutIdentifierType(ctx, t); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	return nil
}
