package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/titpetric/ocpbootstrap/data"
)

type evaluator struct {
	env    *Env
	source string
}

func (ev *evaluator) errorf(pos lexer.Position, format string, args ...interface{}) error {
	return &EvalError{Expression: ev.source, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (ev *evaluator) expression(node *Expression, s *scope) (interface{}, error) {
	return ev.or(node.Or, s)
}

func (ev *evaluator) or(node *Or, s *scope) (interface{}, error) {
	left, err := ev.and(node.Left, s)
	if err != nil || len(node.Right) == 0 {
		return left, err
	}
	result := truthy(left)
	for _, operand := range node.Right {
		if result {
			return true, nil
		}
		right, err := ev.and(operand, s)
		if err != nil {
			return nil, err
		}
		result = truthy(right)
	}
	return result, nil
}

func (ev *evaluator) and(node *And, s *scope) (interface{}, error) {
	left, err := ev.equality(node.Left, s)
	if err != nil || len(node.Right) == 0 {
		return left, err
	}
	result := truthy(left)
	for _, operand := range node.Right {
		if !result {
			return false, nil
		}
		right, err := ev.equality(operand, s)
		if err != nil {
			return nil, err
		}
		result = truthy(right)
	}
	return result, nil
}

func (ev *evaluator) equality(node *Equality, s *scope) (interface{}, error) {
	left, err := ev.comparison(node.Left, s)
	if err != nil {
		return nil, err
	}
	for _, op := range node.Right {
		right, err := ev.comparison(op.Operand, s)
		if err != nil {
			return nil, err
		}
		eq := equal(left, right)
		if op.Op == "!=" {
			eq = !eq
		}
		left = eq
	}
	return left, nil
}

func (ev *evaluator) comparison(node *Comparison, s *scope) (interface{}, error) {
	left, err := ev.additive(node.Left, s)
	if err != nil {
		return nil, err
	}
	for _, op := range node.Right {
		right, err := ev.additive(op.Operand, s)
		if err != nil {
			return nil, err
		}
		cmp, ok := compare(left, right)
		if !ok {
			return nil, ev.errorf(op.Pos, "cannot compare %s and %s", typeName(left), typeName(right))
		}
		switch op.Op {
		case ">":
			left = cmp > 0
		case ">=":
			left = cmp >= 0
		case "<":
			left = cmp < 0
		default:
			left = cmp <= 0
		}
	}
	return left, nil
}

func (ev *evaluator) additive(node *Additive, s *scope) (interface{}, error) {
	left, err := ev.multiplicative(node.Left, s)
	if err != nil {
		return nil, err
	}
	for _, op := range node.Right {
		right, err := ev.multiplicative(op.Operand, s)
		if err != nil {
			return nil, err
		}
		if left, err = ev.arithmetic(op.Pos, op.Op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluator) multiplicative(node *Multiplicative, s *scope) (interface{}, error) {
	left, err := ev.unary(node.Left, s)
	if err != nil {
		return nil, err
	}
	for _, op := range node.Right {
		right, err := ev.unary(op.Operand, s)
		if err != nil {
			return nil, err
		}
		if left, err = ev.arithmetic(op.Pos, op.Op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluator) arithmetic(pos lexer.Position, op string, left, right interface{}) (interface{}, error) {
	if op == "+" {
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return toString(left) + toString(right), nil
		}
		ll, lok := left.([]interface{})
		rl, rok := right.([]interface{})
		if lok && rok {
			return append(append([]interface{}{}, ll...), rl...), nil
		}
	}

	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/":
			if ri == 0 {
				return nil, ev.errorf(pos, "division by zero")
			}
			return li / ri, nil
		case "%":
			if ri == 0 {
				return nil, ev.errorf(pos, "division by zero")
			}
			return li % ri, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, ev.errorf(pos, "operator %s not defined for %s and %s", op, typeName(left), typeName(right))
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, ev.errorf(pos, "division by zero")
		}
		return lf / rf, nil
	}
	return nil, ev.errorf(pos, "operator %s requires integers", op)
}

func (ev *evaluator) unary(node *Unary, s *scope) (interface{}, error) {
	if node.Postfix != nil {
		return ev.postfix(node.Postfix, s)
	}
	value, err := ev.unary(node.Operand, s)
	if err != nil {
		return nil, err
	}
	if node.Op == "!" {
		return !truthy(value), nil
	}
	switch v := value.(type) {
	case int64:
		return -v, nil
	case float64:
		return -v, nil
	}
	return nil, ev.errorf(node.Pos, "cannot negate %s", typeName(value))
}

func (ev *evaluator) postfix(node *Postfix, s *scope) (interface{}, error) {
	value, err := ev.primary(node.Primary, s)
	if err != nil {
		return nil, err
	}
	for _, sel := range node.Selectors {
		if sel.Field != nil {
			if value, err = ev.member(sel.Pos, value, *sel.Field); err != nil {
				return nil, err
			}
			continue
		}
		index, err := ev.expression(sel.Index, s)
		if err != nil {
			return nil, err
		}
		if value, err = ev.index(sel.Pos, value, index); err != nil {
			return nil, err
		}
	}
	return value, nil
}

func (ev *evaluator) member(pos lexer.Position, value interface{}, name string) (interface{}, error) {
	getter, ok := value.(Getter)
	if !ok {
		return nil, ev.errorf(pos, "cannot read field '%s' of %s", name, typeName(value))
	}
	field, _ := getter.Get(name)
	return toValue(field), nil
}

func (ev *evaluator) index(pos lexer.Position, value, index interface{}) (interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		i, ok := index.(int64)
		if !ok {
			return nil, ev.errorf(pos, "list index must be an integer, got %s", typeName(index))
		}
		if i < 0 || int(i) >= len(v) {
			return nil, ev.errorf(pos, "index %d out of range [0,%d)", i, len(v))
		}
		return v[i], nil
	case Getter:
		key, ok := index.(string)
		if !ok {
			return nil, ev.errorf(pos, "field name must be a string, got %s", typeName(index))
		}
		return ev.member(pos, v, key)
	}
	return nil, ev.errorf(pos, "cannot index %s", typeName(value))
}

func (ev *evaluator) primary(node *Primary, s *scope) (interface{}, error) {
	switch {
	case node.Number != nil:
		if strings.Contains(*node.Number, ".") {
			f, err := strconv.ParseFloat(*node.Number, 64)
			if err != nil {
				return nil, ev.errorf(node.Pos, "invalid number %s", *node.Number)
			}
			return f, nil
		}
		i, err := strconv.ParseInt(*node.Number, 10, 64)
		if err != nil {
			return nil, ev.errorf(node.Pos, "invalid number %s", *node.Number)
		}
		return i, nil
	case node.String != nil:
		return unquote(*node.String), nil
	case node.Bool != nil:
		return *node.Bool == "true", nil
	case node.Null:
		return nil, nil
	case node.Call != nil:
		return ev.call(node.Call, s)
	case node.Ident != nil:
		value, ok := s.lookup(*node.Ident)
		if !ok {
			return nil, ev.errorf(node.Pos, "unknown variable '%s'", *node.Ident)
		}
		return value, nil
	case node.Sub != nil:
		return ev.expression(node.Sub, s)
	case node.List != nil:
		result := make([]interface{}, 0, len(node.List.Items))
		for _, item := range node.List.Items {
			value, err := ev.expression(item, s)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
		return result, nil
	case node.Object != nil:
		fields := make([]data.Field, 0, len(node.Object.Entries))
		for _, entry := range node.Object.Entries {
			value, err := ev.expression(entry.Value, s)
			if err != nil {
				return nil, err
			}
			key := entry.Key
			if strings.HasPrefix(key, "'") || strings.HasPrefix(key, `"`) {
				key = unquote(key)
			}
			fields = append(fields, data.Field{Name: key, Value: value})
		}
		return data.NewRow(fields...), nil
	}
	return nil, ev.errorf(node.Pos, "empty expression")
}

func (ev *evaluator) call(node *Call, s *scope) (interface{}, error) {
	fn, ok := ev.env.function(node.Name)
	if !ok {
		return nil, ev.errorf(node.Pos, "unknown function '%s'", node.Name)
	}
	args := make([]interface{}, 0, len(node.Args))
	for _, arg := range node.Args {
		if arg.Lambda != nil {
			args = append(args, ev.lambda(arg.Lambda, s))
			continue
		}
		value, err := ev.expression(arg.Expr, s)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	result, err := fn(args)
	if err != nil {
		if _, ok := err.(*EvalError); ok {
			return nil, err
		}
		return nil, ev.errorf(node.Pos, "%s: %s", node.Name, err)
	}
	return toValue(result), nil
}

func (ev *evaluator) lambda(node *Lambda, s *scope) Callable {
	return func(arg interface{}) (interface{}, error) {
		inner := &scope{
			vars:   map[string]interface{}{node.Param: toValue(arg)},
			parent: s,
		}
		return ev.expression(node.Body, inner)
	}
}
