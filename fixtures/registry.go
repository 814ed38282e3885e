package fixtures

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
)

// FieldType converts table cells and YAML values into typed record values.
type FieldType interface {
	// Name returns the type identifier used in record declarations (e.g. "int")
	Name() string

	// GoType returns the Go type of generated record fields
	GoType() string

	// CELType returns the type of the field's variable in verify expressions
	CELType() *cel.Type

	// Parse converts the text of a markdown cell
	Parse(raw string) (any, error)

	// Coerce converts a decoded YAML value
	Coerce(v any) (any, error)

	// Zero returns the value of a field without a cell
	Zero() any
}

// Registry manages the registration and retrieval of field types.
// It provides thread-safe access to registered types and their aliases.
type Registry struct {
	mu    sync.RWMutex
	types map[string]FieldType
}

// NewRegistry creates a new field type registry
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]FieldType),
	}
}

// Register adds a field type to the registry under its name and aliases
func (r *Registry) Register(fieldType FieldType, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{fieldType.Name()}, aliases...)
	for _, name := range names {
		if _, exists := r.types[name]; exists {
			return fmt.Errorf("field type '%s' already registered", name)
		}
	}
	for _, name := range names {
		r.types[name] = fieldType
	}
	return nil
}

// Get retrieves a field type by name or alias
func (r *Registry) Get(name string) (FieldType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ft, ok := r.types[name]
	return ft, ok
}

// List returns all registered names and aliases, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global field type registry
var DefaultRegistry = NewRegistry()

// Register adds a field type to the default registry
func Register(fieldType FieldType, aliases ...string) error {
	return DefaultRegistry.Register(fieldType, aliases...)
}

// Get retrieves a field type from the default registry
func Get(name string) (FieldType, bool) {
	return DefaultRegistry.Get(name)
}

func init() {
	_ = Register(stringType{}, "str")
	_ = Register(intType{}, "integer", "int64")
	_ = Register(floatType{}, "float64", "double", "number")
	_ = Register(boolType{}, "boolean")
	_ = Register(durationType{})
	_ = Register(stringsType{}, "[]string")
	_ = Register(semverType{}, "version")
}
