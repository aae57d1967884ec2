package dispatch

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Descriptor identifies a node known to a NodeFactory.
type Descriptor string

// NodeFactory turns descriptors into ready to use nodes. The dispatch core
// never constructs nodes itself.
type NodeFactory interface {
	Construct(d Descriptor) (Node, error)
}

// Constructor builds a node, resolving any children through f.
type Constructor func(f NodeFactory) (Node, error)

// HandlerSpec is the registration record of a handler whose children are
// given as descriptors.
type HandlerSpec struct {
	Name        string
	NameRegExp  *regexp.Regexp
	Description string
	Commands    []Descriptor
	Handlers    []Descriptor
	CanRun      []AuthFunc
}

// Build resolves the children of spec through f and returns the handler.
func Build(spec HandlerSpec, f NodeFactory) (*HandlerNode, error) {
	opts := HandlerOptions{
		Name:        spec.Name,
		NameRegExp:  spec.NameRegExp,
		Description: spec.Description,
		CanRun:      spec.CanRun,
	}
	for _, d := range spec.Commands {
		n, err := f.Construct(d)
		if err != nil {
			return nil, fmt.Errorf("%s: command %q: %w", spec.Name, d, err)
		}
		c, ok := n.(*CommandNode)
		if !ok {
			return nil, fmt.Errorf("%s: command %q: %w", spec.Name, d, ErrWrongKind)
		}
		opts.Commands = append(opts.Commands, c)
	}
	for _, d := range spec.Handlers {
		n, err := f.Construct(d)
		if err != nil {
			return nil, fmt.Errorf("%s: handler %q: %w", spec.Name, d, err)
		}
		h, ok := n.(*HandlerNode)
		if !ok {
			return nil, fmt.Errorf("%s: handler %q: %w", spec.Name, d, ErrWrongKind)
		}
		opts.Handlers = append(opts.Handlers, h)
	}
	return NewHandler(opts)
}

// Registry is a NodeFactory backed by registered constructors. Each
// descriptor is constructed at most once and the instance is shared by every
// parent that refers to it.
type Registry struct {
	mu       sync.Mutex
	ctors    map[Descriptor]Constructor
	built    map[Descriptor]Node
	building map[Descriptor]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ctors:    make(map[Descriptor]Constructor),
		built:    make(map[Descriptor]Node),
		building: make(map[Descriptor]bool),
	}
}

// Register adds a constructor. Registering a descriptor twice replaces the
// earlier constructor.
func (r *Registry) Register(d Descriptor, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[d] = ctor
}

// RegisterCommand registers a command built from opts.
func (r *Registry) RegisterCommand(d Descriptor, opts CommandOptions) {
	r.Register(d, func(NodeFactory) (Node, error) {
		return NewCommand(opts)
	})
}

// RegisterHandler registers a handler built from spec.
func (r *Registry) RegisterHandler(d Descriptor, spec HandlerSpec) {
	r.Register(d, func(f NodeFactory) (Node, error) {
		return Build(spec, f)
	})
}

// Has reports whether d is registered.
func (r *Registry) Has(d Descriptor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ctors[d]
	return ok
}

// Descriptors returns every registered descriptor, sorted.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]Descriptor, 0, len(r.ctors))
	for d := range r.ctors {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// Construct implements NodeFactory.
func (r *Registry) Construct(d Descriptor) (Node, error) {
	r.mu.Lock()
	if n, ok := r.built[d]; ok {
		r.mu.Unlock()
		return n, nil
	}
	ctor, ok := r.ctors[d]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%q: %w", d, ErrUnknownDescriptor)
	}
	if r.building[d] {
		r.mu.Unlock()
		return nil, fmt.Errorf("%q: descriptor cycle", d)
	}
	r.building[d] = true
	r.mu.Unlock()

	n, err := ctor(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.building, d)
	if err != nil {
		return nil, err
	}
	r.built[d] = n
	return n, nil
}

// Handler constructs d and checks that it is a handler.
func (r *Registry) Handler(d Descriptor) (*HandlerNode, error) {
	n, err := r.Construct(d)
	if err != nil {
		return nil, err
	}
	h, ok := n.(*HandlerNode)
	if !ok {
		return nil, fmt.Errorf("%q: %w", d, ErrWrongKind)
	}
	return h, nil
}
