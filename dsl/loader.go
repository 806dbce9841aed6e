// Package dsl loads data documents: YAML with custom tags resolved through
// a tag registry after parsing.
package dsl

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/titpetric/ocpbootstrap/data"
	"github.com/titpetric/ocpbootstrap/expr"
)

// TagHandler replaces a tagged node with its resolved value
type TagHandler func(r *Resolver, node *yaml.Node) (interface{}, error)

// Loader parses documents and resolves their tags
type Loader struct {
	sync.RWMutex

	fs        afero.Fs
	env       expr.Environment
	constants *Constants
	tags      map[string]TagHandler
}

// NewLoader creates a *Loader reading resources from fs
func NewLoader(fs afero.Fs, env expr.Environment) *Loader {
	l := &Loader{
		fs:        fs,
		env:       env,
		constants: DefaultConstants(),
		tags:      make(map[string]TagHandler),
	}
	l.RegisterTag("!resource", resourceTag)
	l.RegisterTag("!resourceYaml", resourceYamlTag)
	l.RegisterTag("!const", constTag)
	l.RegisterTag("!expr", exprTag)
	l.RegisterTag("!transform", transformTag)
	return l
}

// RegisterTag adds or replaces a tag handler
func (l *Loader) RegisterTag(tag string, handler TagHandler) {
	l.Lock()
	defer l.Unlock()
	l.tags[tag] = handler
}

// Constants returns the constant registry used by !const
func (l *Loader) Constants() *Constants {
	return l.constants
}

func (l *Loader) handler(tag string) (TagHandler, bool) {
	l.RLock()
	defer l.RUnlock()
	h, ok := l.tags[tag]
	return h, ok
}

// Load parses text and returns the resolved top level mapping
func (l *Loader) Load(text string) (data.Row, error) {
	r := &Resolver{loader: l}
	return r.parse([]byte(text))
}

// LoadFile loads a document from the resource filesystem
func (l *Loader) LoadFile(path string) (data.Row, error) {
	r := &Resolver{loader: l}
	return r.file(path)
}

// Resolver walks one document tree, tracking nested resource documents
type Resolver struct {
	loader   *Loader
	document string
	stack    []string
}

// Loader returns the owning loader
func (r *Resolver) Loader() *Loader {
	return r.loader
}

// Errorf creates an *Error located at node
func (r *Resolver) Errorf(node *yaml.Node, format string, args ...interface{}) error {
	return r.wrap(node, errors.Errorf(format, args...))
}

func (r *Resolver) wrap(node *yaml.Node, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	e := &Error{Document: r.document, Err: err}
	if node != nil {
		e.Line, e.Column, e.Tag = node.Line, node.Column, node.Tag
	}
	return e
}

func (r *Resolver) file(path string) (data.Row, error) {
	for _, open := range r.stack {
		if open == path {
			return data.Row{}, &Error{Document: r.document, Err: errors.Errorf("resource cycle: %s -> %s", strings.Join(r.stack, " -> "), path)}
		}
	}
	contents, err := afero.ReadFile(r.loader.fs, path)
	if err != nil {
		return data.Row{}, &Error{Document: r.document, Err: errors.Wrapf(err, "reading resource %s", path)}
	}
	nested := &Resolver{
		loader:   r.loader,
		document: path,
		stack:    append(append([]string{}, r.stack...), path),
	}
	return nested.parse(contents)
}

func (r *Resolver) parse(contents []byte) (data.Row, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(contents, &root); err != nil {
		return data.Row{}, &Error{Document: r.document, Err: errors.Wrap(err, "parsing document")}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return data.NewRow(), nil
	}
	value, err := r.Resolve(root.Content[0])
	if err != nil {
		return data.Row{}, err
	}
	switch v := value.(type) {
	case data.Row:
		return v, nil
	case nil:
		return data.NewRow(), nil
	}
	return data.Row{}, r.Errorf(root.Content[0], "document root must be a mapping")
}

// Resolve converts node into a value, applying tag handlers
func (r *Resolver) Resolve(node *yaml.Node) (interface{}, error) {
	if isCustomTag(node.Tag) {
		handler, ok := r.loader.handler(node.Tag)
		if !ok {
			return nil, r.Errorf(node, "unknown tag %s", node.Tag)
		}
		value, err := handler(r, node)
		if err != nil {
			return nil, r.wrap(node, err)
		}
		return value, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return r.Resolve(node.Content[0])
	case yaml.AliasNode:
		return r.Resolve(node.Alias)
	case yaml.MappingNode:
		fields := make([]data.Field, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, r.Errorf(key, "mapping keys must be scalars")
			}
			value, err := r.Resolve(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			fields = append(fields, data.Field{Name: key.Value, Value: value})
		}
		return data.NewRow(fields...), nil
	case yaml.SequenceNode:
		result := make([]interface{}, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := r.Resolve(item)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
		return result, nil
	}

	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, r.wrap(node, errors.Wrap(err, "decoding scalar"))
	}
	return data.Normalize(value), nil
}

func isCustomTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}
