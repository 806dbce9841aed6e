// Package expr evaluates the small expression language used by data
// documents: arithmetic, comparisons, string concatenation, member access,
// list and map literals and a fixed set of built-in functions.
package expr

import (
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Environment evaluates expressions against a set of variable bindings
type Environment interface {
	Evaluate(expression string, vars map[string]interface{}) (interface{}, error)
}

// Func is a built-in function. Lambda arguments arrive as Callable.
type Func func(args []interface{}) (interface{}, error)

// Callable is the runtime value of a lambda argument
type Callable func(arg interface{}) (interface{}, error)

// Getter is implemented by values supporting member access
type Getter interface {
	Get(name string) (interface{}, bool)
}

// Env is the default Environment
type Env struct {
	sync.RWMutex

	funcs    map[string]Func
	programs map[string]*Expression
}

var _ Environment = &Env{}

// New creates an *Env with the built-in functions registered
func New() *Env {
	env := &Env{
		funcs:    make(map[string]Func),
		programs: make(map[string]*Expression),
	}
	for name, fn := range builtins {
		env.funcs[name] = fn
	}
	return env
}

// Register adds or replaces a function
func (e *Env) Register(name string, fn Func) {
	e.Lock()
	defer e.Unlock()
	e.funcs[name] = fn
}

func (e *Env) function(name string) (Func, bool) {
	e.RLock()
	defer e.RUnlock()
	fn, ok := e.funcs[name]
	return fn, ok
}

// Compile parses an expression, caching the result
func (e *Env) Compile(expression string) (*Expression, error) {
	e.RLock()
	program, ok := e.programs[expression]
	e.RUnlock()
	if ok {
		return program, nil
	}

	program, err := parser.ParseString("", expression)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Expression: expression, Pos: perr.Position(), Message: perr.Message()}
		}
		return nil, &SyntaxError{Expression: expression, Message: err.Error()}
	}

	e.Lock()
	e.programs[expression] = program
	e.Unlock()
	return program, nil
}

// Evaluate compiles and runs expression with vars in scope
func (e *Env) Evaluate(expression string, vars map[string]interface{}) (interface{}, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &SyntaxError{Expression: expression, Message: "empty expression"}
	}
	program, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	bound := make(map[string]interface{}, len(vars))
	for name, value := range vars {
		bound[name] = toValue(value)
	}
	ev := &evaluator{
		env:    e,
		source: expression,
	}
	return ev.expression(program, &scope{vars: bound})
}

type scope struct {
	vars   map[string]interface{}
	parent *scope
}

func (s *scope) lookup(name string) (interface{}, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if value, ok := cur.vars[name]; ok {
			return value, true
		}
	}
	return nil, false
}
