package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"athletehub-api/internal/apperrors"

	"github.com/google/uuid"
)

// Table declares a table to the store. Only declared fields are ever
// rendered into statements or expressions.
type Table struct {
	Name        string            // physical table name
	KeyFields   []string          // fields identifying one record
	Indexes     map[string]string // index name -> indexed field
	Fields      []string          // every writable or readable field
	GeneratedID string            // field filled with a UUID on insert
	CreatedAt   string            // field set on insert
	UpdatedAt   string            // field set on insert and update
}

// HasField reports whether field is declared
func (t *Table) HasField(field string) bool {
	for _, f := range t.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// IsKeyField reports whether field is part of the key
func (t *Table) IsKeyField(field string) bool {
	for _, f := range t.KeyFields {
		if f == field {
			return true
		}
	}
	return false
}

// IndexField resolves an index name to the field it covers
func (t *Table) IndexField(index string) (string, error) {
	field, ok := t.Indexes[index]
	if !ok {
		return "", fmt.Errorf("table %s has no index %q", t.Name, index)
	}
	return field, nil
}

// Schema is the registry of tables a store may touch, keyed by logical name
type Schema struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]*Table)}
}

// Register validates and adds a table under a logical name
func (s *Schema) Register(logical string, t Table) error {
	if logical == "" || t.Name == "" {
		return fmt.Errorf("table registration requires a logical and physical name")
	}
	if len(t.KeyFields) == 0 {
		return fmt.Errorf("table %s: at least one key field is required", t.Name)
	}

	declared := func(field string) bool {
		return field == "" || t.HasField(field)
	}
	for _, f := range t.KeyFields {
		if !t.HasField(f) {
			return fmt.Errorf("table %s: key field %q is not declared", t.Name, f)
		}
	}
	for index, f := range t.Indexes {
		if !t.HasField(f) {
			return fmt.Errorf("table %s: index %s covers undeclared field %q", t.Name, index, f)
		}
	}
	for _, f := range []string{t.GeneratedID, t.CreatedAt, t.UpdatedAt} {
		if !declared(f) {
			return fmt.Errorf("table %s: generated field %q is not declared", t.Name, f)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[logical]; exists {
		return fmt.Errorf("table %s already registered", logical)
	}
	table := t
	s.tables[logical] = &table
	return nil
}

// MustRegister is Register for static schemas; it panics on error
func (s *Schema) MustRegister(logical string, t Table) *Schema {
	if err := s.Register(logical, t); err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the table registered under a logical name
func (s *Schema) Lookup(logical string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[logical]
	if !ok {
		return nil, fmt.Errorf("table %q is not registered", logical)
	}
	return t, nil
}

// Tables returns every registered table
func (s *Schema) Tables() []*Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}

// PrepareInsert copies record, fills generated fields and rejects undeclared ones
func (t *Table) PrepareInsert(record Record, now time.Time) (Record, error) {
	out := make(Record, len(record)+3)
	for field, value := range record {
		if !t.HasField(field) {
			return nil, apperrors.InvalidArgumentf("unknown field %q for %s", field, t.Name)
		}
		out[field] = value
	}

	if t.GeneratedID != "" && isBlank(out[t.GeneratedID]) {
		out[t.GeneratedID] = uuid.NewString()
	}
	if t.CreatedAt != "" {
		out[t.CreatedAt] = now
	}
	if t.UpdatedAt != "" {
		out[t.UpdatedAt] = now
	}

	for _, f := range t.KeyFields {
		if isBlank(out[f]) {
			return nil, apperrors.InvalidArgumentf("%s is required", f)
		}
	}
	return out, nil
}

// PreparePatch validates a patch and stamps the updated-at field
func (t *Table) PreparePatch(patch Record, now time.Time) (Record, error) {
	if len(patch) == 0 {
		return nil, apperrors.InvalidArgument("no fields to update")
	}
	out := make(Record, len(patch)+1)
	for field, value := range patch {
		if !t.HasField(field) {
			return nil, apperrors.InvalidArgumentf("unknown field %q for %s", field, t.Name)
		}
		if t.IsKeyField(field) || field == t.CreatedAt {
			return nil, apperrors.InvalidArgumentf("field %q cannot be updated", field)
		}
		out[field] = value
	}
	if t.UpdatedAt != "" {
		out[t.UpdatedAt] = now
	}
	return out, nil
}

// ValidateKey checks that key names exactly the key fields with non-blank values
func (t *Table) ValidateKey(key Key) error {
	if len(key) != len(t.KeyFields) {
		return apperrors.InvalidArgumentf("key for %s must contain %s", t.Name, strings.Join(t.KeyFields, ", "))
	}
	for _, f := range t.KeyFields {
		if isBlank(key[f]) {
			return apperrors.InvalidArgumentf("%s is required", f)
		}
	}
	return nil
}

// SortedFields returns the record's field names in a stable order
func SortedFields(r Record) []string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
