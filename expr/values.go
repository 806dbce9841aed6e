package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/titpetric/ocpbootstrap/data"
)

// toValue maps bound Go values onto evaluator values
func toValue(value interface{}) interface{} {
	switch v := value.(type) {
	case []data.Row:
		result := make([]interface{}, len(v))
		for idx, row := range v {
			result[idx] = row
		}
		return result
	case []string:
		result := make([]interface{}, len(v))
		for idx, s := range v {
			result[idx] = s
		}
		return result
	case []int64:
		result := make([]interface{}, len(v))
		for idx, i := range v {
			result[idx] = i
		}
		return result
	case []int:
		result := make([]interface{}, len(v))
		for idx, i := range v {
			result[idx] = int64(i)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for idx, item := range v {
			result[idx] = toValue(item)
		}
		return result
	}
	return data.Normalize(value)
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	}
	return true
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case data.Literal:
		return string(v)
	}
	return fmt.Sprint(value)
}

func equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			return lf == rf
		}
		return false
	}
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case data.Row:
		r, ok := right.(data.Row)
		return ok && l.Equal(r)
	case []interface{}:
		r, ok := right.([]interface{})
		if !ok || len(l) != len(r) {
			return false
		}
		for idx := range l {
			if !equal(l[idx], r[idx]) {
				return false
			}
		}
		return true
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func compare(left, right interface{}) (int, bool) {
	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			switch {
			case lf < rf:
				return -1, true
			case lf > rf:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return strings.Compare(ls, rs), true
		}
	}
	return 0, false
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case int64:
		return "integer"
	case float64:
		return "decimal"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []interface{}:
		return "list"
	case data.Row:
		return "map"
	case Callable:
		return "lambda"
	}
	return fmt.Sprintf("%T", value)
}

// unquote strips the quotes of a string token and resolves escapes
func unquote(token string) string {
	if len(token) < 2 {
		return token
	}
	quote := token[0]
	body := token[1 : len(token)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(body[i])
			}
		case c == '\'' && quote == '\'' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
