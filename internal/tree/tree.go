// Package tree builds a dispatch tree from a YAML document. Commands are
// referenced by registry descriptor; handlers are either referenced the same
// way or declared inline.
//
//	root:
//	  name: bot
//	  commands: [core.ping, core.help]
//	  handlers:
//	    - ref: shop
//	    - name: mod
//	      pattern: "^(mod|moderation)$"
//	      canRun: [guild_only, manage_messages]
//	      commands: [admin.history]
package tree

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

// File is the top level document.
type File struct {
	Root Handler `yaml:"root"`
}

// Handler is an inline handler or a reference to a registered one.
type Handler struct {
	Ref         string    `yaml:"ref,omitempty"`
	Name        string    `yaml:"name,omitempty"`
	Pattern     string    `yaml:"pattern,omitempty"`
	Description string    `yaml:"description,omitempty"`
	CanRun      []string  `yaml:"canRun,omitempty"`
	Commands    []string  `yaml:"commands,omitempty"`
	Handlers    []Handler `yaml:"handlers,omitempty"`
}

var (
	ErrNoName        = errors.New("handler needs either ref or name")
	ErrRefWithFields = errors.New("ref handlers cannot declare fields")
	ErrUnknownAuth   = errors.New("unknown authorization predicate")
)

// Load reads and parses path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return Parse(data)
}

// Parse decodes a tree document, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	return &f, nil
}

// Build registers the inline handlers of f in reg and constructs the root.
// auths maps the names used in canRun to predicates.
func (f *File) Build(reg *dispatch.Registry, auths map[string]dispatch.AuthFunc) (*dispatch.HandlerNode, error) {
	d, err := register(reg, auths, f.Root, "tree:")
	if err != nil {
		return nil, err
	}
	return reg.Handler(d)
}

func register(reg *dispatch.Registry, auths map[string]dispatch.AuthFunc, h Handler, parent string) (dispatch.Descriptor, error) {
	if h.Ref != "" {
		if h.Name != "" || h.Pattern != "" || len(h.Commands) > 0 || len(h.Handlers) > 0 || len(h.CanRun) > 0 {
			return "", fmt.Errorf("%s: %w", h.Ref, ErrRefWithFields)
		}
		return dispatch.Descriptor(h.Ref), nil
	}
	if h.Name == "" {
		return "", fmt.Errorf("under %q: %w", parent, ErrNoName)
	}

	self := parent + "/" + h.Name
	spec := dispatch.HandlerSpec{Name: h.Name, Description: h.Description}

	if h.Pattern != "" {
		re, err := regexp.Compile(h.Pattern)
		if err != nil {
			return "", fmt.Errorf("%s: pattern: %w", self, err)
		}
		spec.NameRegExp = re
	}
	for _, name := range h.CanRun {
		fn, ok := auths[name]
		if !ok {
			return "", fmt.Errorf("%s: %q: %w", self, name, ErrUnknownAuth)
		}
		spec.CanRun = append(spec.CanRun, fn)
	}
	for _, c := range h.Commands {
		spec.Commands = append(spec.Commands, dispatch.Descriptor(c))
	}
	for _, child := range h.Handlers {
		d, err := register(reg, auths, child, self)
		if err != nil {
			return "", err
		}
		spec.Handlers = append(spec.Handlers, d)
	}

	d := dispatch.Descriptor(self)
	reg.RegisterHandler(d, spec)
	return d, nil
}
