package records

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Core columns every record carries. ParentID is only selectable on
// hierarchical types.
var coreFields = []string{"ID", "Title", "Slug", "Type", "Sort", "Status", "CreatedAt", "UpdatedAt"}

const parentField = "ParentID"

var (
	ErrTypeNameRequired   = errors.New("records: type name required")
	ErrTypeExists         = errors.New("records: type already registered")
	ErrTypeBaseUnknown    = errors.New("records: base type not registered")
	ErrTypeFieldReserved  = errors.New("records: field name collides with a core column")
	ErrRelationNameEmpty  = errors.New("records: relation name required")
	ErrRelationTargetType = errors.New("records: relation target type required")
)

// TypeDefinition describes a record type in the content graph.
type TypeDefinition struct {
	Name string `json:"name" yaml:"name"`
	// Base names the type this one extends. Fields, relations and the parent
	// type are inherited.
	Base       string                        `json:"base,omitempty" yaml:"base,omitempty"`
	PluralName string                        `json:"plural_name,omitempty" yaml:"plural_name,omitempty"`
	Fields     []string                      `json:"fields,omitempty" yaml:"fields,omitempty"`
	ParentType string                        `json:"parent_type,omitempty" yaml:"parent_type,omitempty"`
	ManyMany   map[string]RelationDefinition `json:"many_many,omitempty" yaml:"many_many,omitempty"`
}

// RelationDefinition declares a many-to-many relation to another type.
type RelationDefinition struct {
	Target string `json:"target" yaml:"target"`
}

// Catalog is the registry of record types.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]TypeDefinition
}

// NewCatalog builds a catalog and registers the supplied definitions in order.
func NewCatalog(defs ...TypeDefinition) (*Catalog, error) {
	c := &Catalog{types: make(map[string]TypeDefinition)}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a type. Base types must be registered first.
func (c *Catalog) Register(def TypeDefinition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return ErrTypeNameRequired
	}
	def.Base = strings.TrimSpace(def.Base)
	def.ParentType = strings.TrimSpace(def.ParentType)
	for _, field := range def.Fields {
		if slices.Contains(coreFields, field) || field == parentField {
			return fmt.Errorf("%w: %s", ErrTypeFieldReserved, field)
		}
	}
	for name, rel := range def.ManyMany {
		if strings.TrimSpace(name) == "" {
			return ErrRelationNameEmpty
		}
		if strings.TrimSpace(rel.Target) == "" {
			return fmt.Errorf("%w: %s", ErrRelationTargetType, name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.types[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, def.Name)
	}
	if def.Base != "" {
		if _, ok := c.types[def.Base]; !ok {
			return fmt.Errorf("%w: %s", ErrTypeBaseUnknown, def.Base)
		}
	}
	c.types[def.Name] = cloneDefinition(def)
	return nil
}

// Get returns the definition registered under name.
func (c *Catalog) Get(name string) (TypeDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.types[name]
	if !ok {
		return TypeDefinition{}, false
	}
	return cloneDefinition(def), true
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[name]
	return ok
}

// Names returns every registered type, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.types))
}

// BaseType returns the root of name's inheritance chain.
func (c *Catalog) BaseType(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chain := c.chainLocked(name)
	if len(chain) == 0 {
		return ""
	}
	return chain[len(chain)-1].Name
}

// IsA reports whether name is ancestor or extends it.
func (c *Catalog) IsA(name, ancestor string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, def := range c.chainLocked(name) {
		if def.Name == ancestor {
			return true
		}
	}
	return false
}

// Descendants returns name and every type extending it, sorted.
func (c *Catalog) Descendants(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.types[name]; !ok {
		return nil
	}
	var out []string
	for candidate := range c.types {
		for _, def := range c.chainLocked(candidate) {
			if def.Name == name {
				out = append(out, candidate)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// ParentType returns the type parents of name must have, walking bases.
// Empty means records of this type are not hierarchical.
func (c *Catalog) ParentType(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, def := range c.chainLocked(name) {
		if def.ParentType != "" {
			return def.ParentType
		}
	}
	return ""
}

// SelectableFields lists the columns name can be sorted or filtered on.
func (c *Catalog) SelectableFields(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chain := c.chainLocked(name)
	if len(chain) == 0 {
		return nil
	}
	fields := slices.Clone(coreFields)
	hierarchical := false
	for _, def := range chain {
		fields = append(fields, def.Fields...)
		if def.ParentType != "" {
			hierarchical = true
		}
	}
	if hierarchical {
		fields = append(fields, parentField)
	}
	slices.Sort(fields)
	return slices.Compact(fields)
}

// HasField reports whether field is selectable on name.
func (c *Catalog) HasField(name, field string) bool {
	return slices.Contains(c.SelectableFields(name), field)
}

// ManyMany returns the relations declared on name and its bases.
func (c *Catalog) ManyMany(name string) map[string]RelationDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := map[string]RelationDefinition{}
	chain := c.chainLocked(name)
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].ManyMany)
	}
	return out
}

// Relation looks up a single relation declared on name.
func (c *Catalog) Relation(name, relation string) (RelationDefinition, bool) {
	rel, ok := c.ManyMany(name)[relation]
	return rel, ok
}

// PluralName returns the display plural of name.
func (c *Catalog) PluralName(name string) string {
	def, ok := c.Get(name)
	if ok && strings.TrimSpace(def.PluralName) != "" {
		return def.PluralName
	}
	if name == "" {
		return ""
	}
	if strings.HasSuffix(name, "y") && !strings.HasSuffix(name, "ey") {
		return strings.TrimSuffix(name, "y") + "ies"
	}
	if strings.HasSuffix(name, "s") {
		return name + "es"
	}
	return name + "s"
}

// chainLocked returns name followed by its bases. Caller holds the lock.
func (c *Catalog) chainLocked(name string) []TypeDefinition {
	var chain []TypeDefinition
	seen := map[string]struct{}{}
	for current := name; current != ""; {
		if _, loop := seen[current]; loop {
			break
		}
		seen[current] = struct{}{}
		def, ok := c.types[current]
		if !ok {
			break
		}
		chain = append(chain, def)
		current = def.Base
	}
	return chain
}

func cloneDefinition(def TypeDefinition) TypeDefinition {
	def.Fields = slices.Clone(def.Fields)
	if def.ManyMany != nil {
		def.ManyMany = maps.Clone(def.ManyMany)
	}
	return def
}
