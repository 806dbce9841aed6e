package expr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// exprLexer tokenizes expressions embedded in data documents
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:\\.|''|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `->|==|!=|>=|<=|&&|\|\||[-+*/%<>!]`},
	{Name: "Punct", Pattern: `[()\[\]{},.:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type (
	// Expression is the root of a parsed expression
	Expression struct {
		Pos lexer.Position
		Or  *Or `@@`
	}

	Or struct {
		Left  *And   `@@`
		Right []*And `( "||" @@ )*`
	}

	And struct {
		Left  *Equality   `@@`
		Right []*Equality `( "&&" @@ )*`
	}

	Equality struct {
		Left  *Comparison   `@@`
		Right []*EqualityOp `@@*`
	}

	EqualityOp struct {
		Pos     lexer.Position
		Op      string      `@( "==" | "!=" )`
		Operand *Comparison `@@`
	}

	Comparison struct {
		Left  *Additive       `@@`
		Right []*ComparisonOp `@@*`
	}

	ComparisonOp struct {
		Pos     lexer.Position
		Op      string    `@( ">=" | "<=" | ">" | "<" )`
		Operand *Additive `@@`
	}

	Additive struct {
		Left  *Multiplicative `@@`
		Right []*AdditiveOp   `@@*`
	}

	AdditiveOp struct {
		Pos     lexer.Position
		Op      string          `@( "+" | "-" )`
		Operand *Multiplicative `@@`
	}

	Multiplicative struct {
		Left  *Unary              `@@`
		Right []*MultiplicativeOp `@@*`
	}

	MultiplicativeOp struct {
		Pos     lexer.Position
		Op      string `@( "*" | "/" | "%" )`
		Operand *Unary `@@`
	}

	Unary struct {
		Pos     lexer.Position
		Op      string   `  ( @( "!" | "-" )`
		Operand *Unary   `    @@ )`
		Postfix *Postfix `| @@`
	}

	Postfix struct {
		Primary   *Primary    `@@`
		Selectors []*Selector `@@*`
	}

	Selector struct {
		Pos   lexer.Position
		Field *string     `  "." @Ident`
		Index *Expression `| "[" @@ "]"`
	}

	Primary struct {
		Pos    lexer.Position
		Number *string     `  @Number`
		String *string     `| @String`
		Bool   *string     `| @( "true" | "false" )`
		Null   bool        `| @"null"`
		Call   *Call       `| @@`
		Ident  *string     `| @Ident`
		Sub    *Expression `| "(" @@ ")"`
		List   *List       `| @@`
		Object *Object     `| @@`
	}

	Call struct {
		Pos  lexer.Position
		Name string `@Ident "("`
		Args []*Arg `( @@ ( "," @@ )* )? ")"`
	}

	// Arg is a call argument, either a lambda or a plain expression
	Arg struct {
		Lambda *Lambda     `  @@`
		Expr   *Expression `| @@`
	}

	Lambda struct {
		Param string      `@Ident "->"`
		Body  *Expression `@@`
	}

	List struct {
		Items []*Expression `"[" ( @@ ( "," @@ )* )? "]"`
	}

	Object struct {
		Entries []*Entry `"{" ( @@ ( "," @@ )* )? "}"`
	}

	Entry struct {
		Pos   lexer.Position
		Key   string      `@( String | Ident )`
		Value *Expression `":" @@`
	}
)

var parser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(10),
)
