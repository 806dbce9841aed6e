package expr

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/titpetric/ocpbootstrap/data"
)

var builtins = map[string]Func{
	"concat": concat,
	"size":   size,
	"lower":  lower,
	"upper":  upper,
	"map":    mapList,
	"filter": filterList,
}

func concat(args []interface{}) (interface{}, error) {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(toString(arg))
	}
	return b.String(), nil
}

func size(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("expected 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case []interface{}:
		return int64(len(v)), nil
	case string:
		return int64(len(v)), nil
	case data.Row:
		return int64(v.Len()), nil
	case nil:
		return int64(0), nil
	}
	return nil, errors.Errorf("size of %s is undefined", typeName(args[0]))
}

func lower(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("expected 1 argument, got %d", len(args))
	}
	return strings.ToLower(toString(args[0])), nil
}

func upper(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("expected 1 argument, got %d", len(args))
	}
	return strings.ToUpper(toString(args[0])), nil
}

func listAndLambda(args []interface{}) ([]interface{}, Callable, error) {
	if len(args) != 2 {
		return nil, nil, errors.Errorf("expected 2 arguments, got %d", len(args))
	}
	fn, ok := args[1].(Callable)
	if !ok {
		return nil, nil, errors.Errorf("second argument must be a lambda, got %s", typeName(args[1]))
	}
	switch v := args[0].(type) {
	case []interface{}:
		return v, fn, nil
	case nil:
		return nil, fn, nil
	}
	return nil, nil, errors.Errorf("first argument must be a list, got %s", typeName(args[0]))
}

func mapList(args []interface{}) (interface{}, error) {
	list, fn, err := listAndLambda(args)
	if err != nil {
		return nil, err
	}
	result := make([]interface{}, 0, len(list))
	for _, item := range list {
		value, err := fn(item)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

func filterList(args []interface{}) (interface{}, error) {
	list, fn, err := listAndLambda(args)
	if err != nil {
		return nil, err
	}
	result := make([]interface{}, 0, len(list))
	for _, item := range list {
		keep, err := fn(item)
		if err != nil {
			return nil, err
		}
		if truthy(keep) {
			result = append(result, item)
		}
	}
	return result, nil
}
