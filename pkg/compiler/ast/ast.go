// Package ast defines the syntax tree produced by the parser.
//
// Statement and Expression are closed sets: only the node types in this
// package implement them, so evaluators can switch over every variant.
package ast

import (
	"bytes"
	"strings"

	"github.com/zurustar/tally/pkg/compiler/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// String renders one statement per line in canonical form. Two programs with
// the same structure render identically.
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Block is a braced statement list. It is not itself a statement.
type Block struct {
	Token      token.Token // {
	Statements []Statement
}

func (b *Block) String() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// ============================================================================
// Statements
// ============================================================================

// Assignment binds a value to a name: x = expr
type Assignment struct {
	Token token.Token
	Name  string
	Value Expression
}

func (a *Assignment) statementNode()       {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) String() string       { return a.Name + " = " + a.Value.String() }

// Print writes a value: print(expr)
type Print struct {
	Token token.Token
	Value Expression
}

func (p *Print) statementNode()       {}
func (p *Print) TokenLiteral() string { return p.Token.Literal }
func (p *Print) String() string       { return "print(" + p.Value.String() + ")" }

// ExpressionStatement
type ExpressionStatement struct {
	Token      token.Token // The first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string       { return es.Expression.String() }

// IfStatement: if (cond) { ... } else { ... }
// ElseBlock is nil when there is no else branch.
type IfStatement struct {
	Token     token.Token
	Condition Expression
	IfBlock   *Block
	ElseBlock *Block
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	out := "if (" + is.Condition.String() + ") " + is.IfBlock.String()
	if is.ElseBlock != nil {
		out += " else " + is.ElseBlock.String()
	}
	return out
}

// WhileStatement: while (cond) { ... }
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *Block
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

// ArrayElementAssignment: arr[i] = expr
type ArrayElementAssignment struct {
	Token token.Token
	Array string
	Index Expression
	Value Expression
}

func (as *ArrayElementAssignment) statementNode()       {}
func (as *ArrayElementAssignment) TokenLiteral() string { return as.Token.Literal }
func (as *ArrayElementAssignment) String() string {
	return as.Array + "[" + as.Index.String() + "] = " + as.Value.String()
}

// ArrayMethodCall is a method call used as a statement: arr.push(x)
type ArrayMethodCall struct {
	Token  token.Token
	Array  string
	Method string
	Args   []Expression
}

func (mc *ArrayMethodCall) statementNode()       {}
func (mc *ArrayMethodCall) TokenLiteral() string { return mc.Token.Literal }
func (mc *ArrayMethodCall) String() string {
	return mc.Array + "." + mc.Method + "(" + joinExpressions(mc.Args) + ")"
}

// FunctionDeclaration: function name(a, b) { ... }
type FunctionDeclaration struct {
	Token      token.Token
	Name       string
	Parameters []string
	Body       *Block
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) String() string {
	return "function " + fd.Name + "(" + strings.Join(fd.Parameters, ", ") + ") " + fd.Body.String()
}

// ReturnStatement: return [expr]
type ReturnStatement struct {
	Token token.Token
	Value Expression // nil when omitted
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return"
	}
	return "return " + rs.Value.String()
}

// ============================================================================
// Expressions
// ============================================================================

// NumberLiteral
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// StringLiteral
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

// BooleanLiteral: true or false
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

// Variable references a binding by name.
type Variable struct {
	Token token.Token
	Name  string
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Token.Literal }
func (v *Variable) String() string       { return v.Name }

// BinaryExpression: left + right, left ^ right
type BinaryExpression struct {
	Token    token.Token // operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

// ComparisonExpression: left == right, left < right
type ComparisonExpression struct {
	Token    token.Token // operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ce *ComparisonExpression) expressionNode()      {}
func (ce *ComparisonExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ComparisonExpression) String() string {
	return "(" + ce.Left.String() + " " + ce.Operator + " " + ce.Right.String() + ")"
}

// ArrayLiteral: [a, b, c]
type ArrayLiteral struct {
	Token    token.Token // [
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string       { return "[" + joinExpressions(al.Elements) + "]" }

// ArrayElementAccess: arr[i]
type ArrayElementAccess struct {
	Token token.Token
	Array string
	Index Expression
}

func (ea *ArrayElementAccess) expressionNode()      {}
func (ea *ArrayElementAccess) TokenLiteral() string { return ea.Token.Literal }
func (ea *ArrayElementAccess) String() string       { return ea.Array + "[" + ea.Index.String() + "]" }

// ArrayMethodExpression is a method call used as a value: n = arr.pop()
type ArrayMethodExpression struct {
	Token  token.Token
	Array  string
	Method string
	Args   []Expression
}

func (me *ArrayMethodExpression) expressionNode()      {}
func (me *ArrayMethodExpression) TokenLiteral() string { return me.Token.Literal }
func (me *ArrayMethodExpression) String() string {
	return me.Array + "." + me.Method + "(" + joinExpressions(me.Args) + ")"
}

// ArrayProperty: arr.length
type ArrayProperty struct {
	Token    token.Token
	Array    string
	Property string
}

func (ap *ArrayProperty) expressionNode()      {}
func (ap *ArrayProperty) TokenLiteral() string { return ap.Token.Literal }
func (ap *ArrayProperty) String() string       { return ap.Array + "." + ap.Property }

// FunctionCall: name(a, b)
type FunctionCall struct {
	Token     token.Token
	Name      string
	Arguments []Expression
}

func (fc *FunctionCall) expressionNode()      {}
func (fc *FunctionCall) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCall) String() string {
	return fc.Name + "(" + joinExpressions(fc.Arguments) + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
