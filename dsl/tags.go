package dsl

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/titpetric/ocpbootstrap/data"
)

func scalar(r *Resolver, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", r.Errorf(node, "%s expects a scalar", node.Tag)
	}
	value := strings.TrimSpace(node.Value)
	if value == "" {
		return "", r.Errorf(node, "%s expects a value", node.Tag)
	}
	return value, nil
}

// resourceTag inlines the trimmed text of a resource file
func resourceTag(r *Resolver, node *yaml.Node) (interface{}, error) {
	path, err := scalar(r, node)
	if err != nil {
		return nil, err
	}
	contents, err := afero.ReadFile(r.loader.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading resource %s", path)
	}
	return strings.TrimSpace(string(contents)), nil
}

// resourceYamlTag inlines another document, resolving its tags
func resourceYamlTag(r *Resolver, node *yaml.Node) (interface{}, error) {
	path, err := scalar(r, node)
	if err != nil {
		return nil, err
	}
	return r.file(path)
}

func constTag(r *Resolver, node *yaml.Node) (interface{}, error) {
	ref, err := scalar(r, node)
	if err != nil {
		return nil, err
	}
	return r.loader.constants.Resolve(ref)
}

func exprTag(r *Resolver, node *yaml.Node) (interface{}, error) {
	expression, err := scalar(r, node)
	if err != nil {
		return nil, err
	}
	return r.loader.env.Evaluate(expression, nil)
}

// transformTag evaluates `expr` with `data` and the `with` bindings in scope
func transformTag(r *Resolver, node *yaml.Node) (interface{}, error) {
	if node.Kind != yaml.MappingNode {
		return nil, r.Errorf(node, "!transform expects a mapping")
	}

	var (
		expression string
		value      interface{}
		vars       = map[string]interface{}{}
		hasExpr    bool
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, child := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "with":
			resolved, err := r.Resolve(child)
			if err != nil {
				return nil, err
			}
			with, ok := resolved.(data.Row)
			if !ok && resolved != nil {
				return nil, r.Errorf(child, "!transform 'with' must be a mapping")
			}
			for _, f := range with.Fields() {
				if f.Name == "data" {
					return nil, r.Errorf(child, "!transform 'with' cannot bind 'data'")
				}
				vars[f.Name] = f.Value
			}
		case "data":
			resolved, err := r.Resolve(child)
			if err != nil {
				return nil, err
			}
			value = resolved
		case "expr":
			if child.Kind != yaml.ScalarNode {
				return nil, r.Errorf(child, "!transform 'expr' must be a string")
			}
			expression, hasExpr = child.Value, true
		default:
			return nil, r.Errorf(key, "!transform has unknown key '%s'", key.Value)
		}
	}
	if !hasExpr {
		return nil, r.Errorf(node, "!transform requires 'expr'")
	}
	vars["data"] = value
	return r.loader.env.Evaluate(expression, vars)
}
