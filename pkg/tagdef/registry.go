// Package tagdef describes versioned binary structure layouts.
//
// Structures are declared statically as tables of Field values and registered in a
// Registry. For each (type, version) pair the Registry derives a Layout once: the
// active fields, their alignment and offsets, and a size checked against the size
// declared for that version. Every inconsistency is a DefinitionError raised when
// the layout is built, so a verified registry never fails on field access.
package tagdef

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/EchoTools/tagtool/pkg/cache"
)

type layoutKey struct {
	name    string
	version cache.Version
}

// Registry holds structure definitions and caches their layouts.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	structures map[string]*Structure
	layouts    map[layoutKey]*Layout
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for layout construction records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		structures: make(map[string]*Structure),
		layouts:    make(map[layoutKey]*Layout),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a structure definition. Names must be unique.
func (r *Registry) Register(s *Structure) error {
	if s.Name == "" {
		return &DefinitionError{Err: ErrInvalidField, Detail: "structure without name"}
	}
	if len(s.Sizes) == 0 {
		return &DefinitionError{Type: s.Name, Err: ErrUnsupportedVersion, Detail: "no declared sizes"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.structures[s.Name]; exists {
		return &DefinitionError{Type: s.Name, Err: ErrInvalidField, Detail: "registered twice"}
	}
	r.structures[s.Name] = s
	return nil
}

// MustRegister registers structures and panics on the first failure.
// It is meant for package-level definition tables.
func (r *Registry) MustRegister(structures ...*Structure) {
	for _, s := range structures {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Structure returns the definition registered under name.
func (r *Registry) Structure(name string) (*Structure, error) {
	r.mu.RLock()
	s, ok := r.structures[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &DefinitionError{Type: name, Err: ErrUnregistered}
	}
	return s, nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.structures))
	for name := range r.structures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns the layout of a type for a version. Layouts are built once and
// cached; repeated calls return the same *Layout.
func (r *Registry) Describe(name string, v cache.Version) (*Layout, error) {
	return r.describe(name, v, nil)
}

func (r *Registry) describe(name string, v cache.Version, stack []string) (*Layout, error) {
	key := layoutKey{name, v}

	r.mu.RLock()
	layout, cached := r.layouts[key]
	s, registered := r.structures[name]
	r.mu.RUnlock()

	if cached {
		return layout, nil
	}
	if !registered {
		return nil, &DefinitionError{Type: name, Version: v, Err: ErrUnregistered}
	}
	if slices.Contains(stack, name) {
		return nil, defError(name, v, "", ErrRecursive, "via %v", stack)
	}
	if !v.Valid() {
		return nil, defError(name, v, "", ErrUnsupportedVersion, "not a known version")
	}
	declared, ok := s.SizeFor(v)
	if !ok {
		return nil, &DefinitionError{Type: name, Version: v, Err: ErrUnsupportedVersion}
	}

	fields, err := selectFields(s, v)
	if err != nil {
		return nil, err
	}

	stack = append(stack, name)
	layout = &Layout{
		Type:    name,
		Version: v,
		Slots:   make([]Slot, 0, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	offset := 0
	for i := range fields {
		f := &fields[i]
		if err := validateField(s, v, f); err != nil {
			return nil, err
		}
		size, err := r.fieldSize(s, v, f, stack)
		if err != nil {
			return nil, err
		}
		start := alignUp(offset, f.Align)
		if f.Name != "" {
			layout.index[f.Name] = len(layout.Slots)
		}
		layout.Slots = append(layout.Slots, Slot{
			Field:  *f,
			Offset: start,
			Size:   size,
			Pad:    start - offset,
		})
		offset = start + size
	}
	layout.Size = offset

	if layout.Size != declared {
		return nil, defError(name, v, "", ErrSizeMismatch, "computed 0x%X, declared 0x%X", layout.Size, declared)
	}

	r.mu.Lock()
	if existing, ok := r.layouts[key]; ok {
		layout = existing
	} else {
		r.layouts[key] = layout
	}
	r.mu.Unlock()

	r.logger.Debug("built layout", "type", name, "version", v, "size", layout.Size, "fields", len(layout.Slots))
	return layout, nil
}

func (r *Registry) fieldSize(s *Structure, v cache.Version, f *Field, stack []string) (int, error) {
	switch f.Kind {
	case Enum, Flags:
		return f.Elem.PrimitiveSize(), nil
	case Bytes, String, Padding:
		return f.Length, nil
	case Array:
		if f.Elem != Struct {
			return f.Length * f.Elem.PrimitiveSize(), nil
		}
		elem, err := r.describe(f.Type, v, stack)
		if err != nil {
			return 0, err
		}
		return f.Length * elem.Size, nil
	case Struct:
		nested, err := r.describe(f.Type, v, stack)
		if err != nil {
			return 0, err
		}
		return nested.Size, nil
	case Block, Pointer:
		if _, err := r.Structure(f.Type); err != nil {
			return 0, defError(s.Name, v, f.Name, ErrUnregistered, "element type %s", f.Type)
		}
		return f.Kind.HeaderSize(v), nil
	case Data, Resource, TagReference:
		return f.Kind.HeaderSize(v), nil
	}
	return f.Kind.PrimitiveSize(), nil
}

// Verify builds the layout of every registered type at every version it declares,
// including the element types of its blocks and pointers, and returns all failures.
func (r *Registry) Verify() error {
	var errs []error
	for _, name := range r.Types() {
		s, err := r.Structure(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, v := range s.Versions() {
			layout, err := r.Describe(name, v)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, slot := range layout.Slots {
				if slot.Kind != Block && slot.Kind != Pointer {
					continue
				}
				if _, err := r.Describe(slot.Type, v); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s at %s: %w", name, slot.Name, v, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}
