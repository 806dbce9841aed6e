package expr

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// SyntaxError is returned for expressions which fail to parse
type SyntaxError struct {
	Expression string
	Pos        lexer.Position
	Message    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expression syntax error at %d:%d: %s (expression: %q)", e.Pos.Line, e.Pos.Column, e.Message, e.Expression)
}

// EvalError is returned when a parsed expression fails to evaluate
type EvalError struct {
	Expression string
	Pos        lexer.Position
	Message    string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expression evaluation error at %d:%d: %s (expression: %q)", e.Pos.Line, e.Pos.Column, e.Message, e.Expression)
}
