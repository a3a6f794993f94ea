package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/querydsl/internal/field"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Key lookup indexes on managed_attributes and identifier_types
const currentSchemaVersion = 1

// Store is a SQLite-backed Catalog.
type Store struct {
	db *sql.DB
}

// Open creates or opens the catalog database at path and applies pragmas
// and migrations. Safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 indexes the key columns; Resolve looks entries up by key
// when a compact query carries keys instead of IDs.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_managed_attributes_key ON managed_attributes(attr_key);
		CREATE INDEX IF NOT EXISTS idx_identifier_types_key ON identifier_types(type_key);
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// PutManagedAttribute inserts or updates an attribute. Without an ID the
// attribute with the same component and key is updated, or a new UUIDv7 is
// assigned. Returns the stored attribute.
func (s *Store) PutManagedAttribute(ctx context.Context, a ManagedAttribute) (ManagedAttribute, error) {
	if strings.TrimSpace(a.Key) == "" {
		return a, fmt.Errorf("put managed attribute: key is required")
	}
	if a.ID == "" {
		id, err := s.existingID(ctx, "managed_attributes", "attr_key", a.Component, a.Key)
		if err != nil {
			return a, fmt.Errorf("put managed attribute: %w", err)
		}
		a.ID = id
	}
	values := a.AcceptedValues
	if values == nil {
		values = []string{}
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return a, fmt.Errorf("put managed attribute: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO managed_attributes (id, attr_key, name, component, element_kind, accepted_values)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			attr_key = excluded.attr_key,
			name = excluded.name,
			component = excluded.component,
			element_kind = excluded.element_kind,
			accepted_values = excluded.accepted_values
	`, a.ID, a.Key, a.Name, a.Component, string(a.ElementKind), string(valuesJSON))
	if err != nil {
		return a, fmt.Errorf("put managed attribute: %w", err)
	}
	return a, nil
}

// PutExtensionField inserts or updates an extension field.
func (s *Store) PutExtensionField(ctx context.Context, f ExtensionField) error {
	if f.Extension == "" || f.Key == "" {
		return fmt.Errorf("put extension field: extension and key are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_extensions (extension_key, field_key, name, component)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(extension_key, field_key) DO UPDATE SET
			name = excluded.name,
			component = excluded.component
	`, f.Extension, f.Key, f.Name, f.Component)
	if err != nil {
		return fmt.Errorf("put extension field: %w", err)
	}
	return nil
}

// PutIdentifierType inserts or updates an identifier type, matching
// PutManagedAttribute's ID assignment. Returns the stored type.
func (s *Store) PutIdentifierType(ctx context.Context, t IdentifierType) (IdentifierType, error) {
	if strings.TrimSpace(t.Key) == "" {
		return t, fmt.Errorf("put identifier type: key is required")
	}
	if t.ID == "" {
		id, err := s.existingID(ctx, "identifier_types", "type_key", t.Component, t.Key)
		if err != nil {
			return t, fmt.Errorf("put identifier type: %w", err)
		}
		t.ID = id
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identifier_types (id, type_key, name, component)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type_key = excluded.type_key,
			name = excluded.name,
			component = excluded.component
	`, t.ID, t.Key, t.Name, t.Component)
	if err != nil {
		return t, fmt.Errorf("put identifier type: %w", err)
	}
	return t, nil
}

// ManagedAttribute implements Catalog. An ID match wins over a key match;
// key matches are limited to component unless it is empty, and among them
// the first by component then ID is returned.
func (s *Store) ManagedAttribute(ctx context.Context, component, ref string) (ManagedAttribute, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, attr_key, name, component, element_kind, accepted_values
		FROM managed_attributes
		WHERE id = ? OR (attr_key = ? AND (? = '' OR component = ?))
		ORDER BY (id = ?) DESC, component COLLATE BINARY ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, ref, ref, component, component, ref)
	a, err := scanManagedAttribute(row)
	if err != nil {
		return ManagedAttribute{}, fmt.Errorf("managed attribute %q: %w", ref, err)
	}
	return a, nil
}

// ExtensionField implements Catalog.
func (s *Store) ExtensionField(ctx context.Context, extension, key string) (ExtensionField, error) {
	f := ExtensionField{}
	err := s.db.QueryRowContext(ctx, `
		SELECT extension_key, field_key, name, component
		FROM field_extensions
		WHERE extension_key = ? AND field_key = ?
	`, extension, key).Scan(&f.Extension, &f.Key, &f.Name, &f.Component)
	if err != nil {
		return ExtensionField{}, fmt.Errorf("extension field %s.%s: %w", extension, key, notFound(err))
	}
	return f, nil
}

// IdentifierType implements Catalog, with the lookup rules of
// ManagedAttribute.
func (s *Store) IdentifierType(ctx context.Context, component, ref string) (IdentifierType, error) {
	t := IdentifierType{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type_key, name, component
		FROM identifier_types
		WHERE id = ? OR (type_key = ? AND (? = '' OR component = ?))
		ORDER BY (id = ?) DESC, component COLLATE BINARY ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, ref, ref, component, component, ref).Scan(&t.ID, &t.Key, &t.Name, &t.Component)
	if err != nil {
		return IdentifierType{}, fmt.Errorf("identifier type %q: %w", ref, notFound(err))
	}
	return t, nil
}

// ManagedAttributes lists attributes of a component ("" lists all),
// ordered by key.
func (s *Store) ManagedAttributes(ctx context.Context, component string) ([]ManagedAttribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, attr_key, name, component, element_kind, accepted_values
		FROM managed_attributes
		WHERE ? = '' OR component = ?
		ORDER BY attr_key COLLATE BINARY ASC, id COLLATE BINARY ASC
	`, component, component)
	if err != nil {
		return nil, fmt.Errorf("query managed attributes: %w", err)
	}
	defer rows.Close()

	attrs := []ManagedAttribute{}
	for rows.Next() {
		a, err := scanManagedAttribute(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate managed attributes: %w", err)
	}
	return attrs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanManagedAttribute(row scanner) (ManagedAttribute, error) {
	var a ManagedAttribute
	var kind, values string
	if err := row.Scan(&a.ID, &a.Key, &a.Name, &a.Component, &kind, &values); err != nil {
		return ManagedAttribute{}, notFound(err)
	}
	a.ElementKind = field.ElementKind(kind)
	if err := json.Unmarshal([]byte(values), &a.AcceptedValues); err != nil {
		return ManagedAttribute{}, fmt.Errorf("decode accepted values: %w", err)
	}
	if len(a.AcceptedValues) == 0 {
		a.AcceptedValues = nil
	}
	return a, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// existingID returns the ID stored for (component, key) in table, or a
// fresh ID when there is none. table and keyColumn are constants.
func (s *Store) existingID(ctx context.Context, table, keyColumn, component, key string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE component = ? AND %s = ?", table, keyColumn),
		component, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return newID(), nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
