package judge

import (
	"strconv"
)

type expr interface{ exprLine() int }

type (
	numLit struct {
		ln int
		v  int
	}
	strLit struct {
		ln int
		s  string
	}
	varRef struct {
		ln   int
		name string
	}
	unary struct {
		ln int
		op string
		x  expr
	}
	binary struct {
		ln   int
		op   string
		l, r expr
	}
)

func (e numLit) exprLine() int { return e.ln }
func (e strLit) exprLine() int { return e.ln }
func (e varRef) exprLine() int { return e.ln }
func (e unary) exprLine() int  { return e.ln }
func (e binary) exprLine() int { return e.ln }

type stmt interface{ stmtLine() int }

type (
	blockStmt struct {
		ln   int
		body []stmt
	}
	declStmt struct {
		ln    int
		name  string
		value expr
	}
	// assignStmt covers =, +=, -=, ++ and --; value is nil for ++/--.
	assignStmt struct {
		ln    int
		name  string
		op    string
		value expr
	}
	callStmt struct {
		ln   int
		fn   builtin
		args []expr
	}
	ifStmt struct {
		ln   int
		cond expr
		then stmt
		els  stmt
	}
	loopStmt struct {
		ln   int
		init stmt
		cond expr
		post stmt
		body stmt
	}
)

func (s blockStmt) stmtLine() int  { return s.ln }
func (s declStmt) stmtLine() int   { return s.ln }
func (s assignStmt) stmtLine() int { return s.ln }
func (s callStmt) stmtLine() int   { return s.ln }
func (s ifStmt) stmtLine() int     { return s.ln }
func (s loopStmt) stmtLine() int   { return s.ln }

type builtin uint8

const (
	fnMoveRight builtin = iota + 1
	fnMoveLeft
	fnMoveUp
	fnMoveDown
	fnWait
	fnPrint
	fnPrintln
)

// builtins maps qualified call names to functions. Player methods may be
// called with or without the receiver.
var builtins = map[string]builtin{
	"Player.moveRight":   fnMoveRight,
	"Player.moveLeft":    fnMoveLeft,
	"Player.moveUp":      fnMoveUp,
	"Player.moveDown":    fnMoveDown,
	"Player.wait":        fnWait,
	"moveRight":          fnMoveRight,
	"moveLeft":           fnMoveLeft,
	"moveUp":             fnMoveUp,
	"moveDown":           fnMoveDown,
	"wait":               fnWait,
	"System.out.print":   fnPrint,
	"System.out.println": fnPrintln,
}

var modifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true, "final": true,
}

type parser struct {
	toks   []token
	pos    int
	scopes []map[string]bool
}

// parse builds the program tree and resolves every variable reference.
func parse(src string) (*blockStmt, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	p.push()

	prog := &blockStmt{ln: 1}
	for p.peek().kind != tkEOF {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			prog.body = append(prog.body, s)
		}
	}
	return prog, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tkPunct || t.kind == tkIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) (token, error) {
	t := p.peek()
	if !p.is(text) {
		return t, errorf(t.line, "expected '%s', found %s", text, t)
	}
	return p.next(), nil
}

func (p *parser) ident() (token, error) {
	t := p.peek()
	if t.kind != tkIdent {
		return t, errorf(t.line, "expected identifier, found %s", t)
	}
	return p.next(), nil
}

func (p *parser) push() { p.scopes = append(p.scopes, map[string]bool{}) }
func (p *parser) pop()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *parser) declared(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i][name] {
			return true
		}
	}
	return false
}

func (p *parser) declare(t token) error {
	if p.declared(t.text) {
		return errorf(t.line, "variable %s is already defined", t.text)
	}
	p.scopes[len(p.scopes)-1][t.text] = true
	return nil
}

func (p *parser) statement() (stmt, error) {
	t := p.peek()

	switch {
	case t.kind == tkPunct && t.text == ";":
		p.next()
		return nil, nil
	case t.kind == tkPunct && t.text == "{":
		return p.block()
	case t.kind != tkIdent:
		return nil, errorf(t.line, "unexpected %s", t)
	}

	switch t.text {
	case "class", "void":
		return p.declaration()
	case "int":
		s, err := p.decl()
		if err != nil {
			return nil, err
		}
		_, err = p.expect(";")
		return s, err
	case "if":
		return p.ifStatement()
	case "for":
		return p.forStatement()
	case "while":
		return p.whileStatement()
	}
	if modifiers[t.text] {
		return p.declaration()
	}

	s, err := p.simple()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) block() (*blockStmt, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	p.push()
	defer p.pop()

	b := &blockStmt{ln: open.line}
	for !p.is("}") {
		if p.peek().kind == tkEOF {
			return nil, errorf(open.line, "missing '}'")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			b.body = append(b.body, s)
		}
	}
	p.next()
	return b, nil
}

// declaration unwraps "class Main { ... }" and "void main(...) { ... }"
// so full Java programs and bare statement lists both run.
func (p *parser) declaration() (stmt, error) {
	for modifiers[p.peek().text] && p.peek().kind == tkIdent {
		p.next()
	}

	t := p.next()
	switch t.text {
	case "class":
		if _, err := p.ident(); err != nil {
			return nil, err
		}
		return p.block()
	case "void":
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if name.text != "main" {
			return nil, errorf(name.line, "only the main method is supported, found %s", name.text)
		}
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		for !p.is(")") {
			if p.peek().kind == tkEOF {
				return nil, errorf(name.line, "missing ')'")
			}
			p.next()
		}
		p.next()
		return p.block()
	default:
		return nil, errorf(t.line, "unexpected %s", t)
	}
}

func (p *parser) decl() (stmt, error) {
	kw := p.next() // int
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	var value expr = numLit{ln: kw.line}
	if p.accept("=") {
		if value, err = p.intExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.declare(name); err != nil {
		return nil, err
	}
	return declStmt{ln: kw.line, name: name.text, value: value}, nil
}

// simple parses an assignment, increment or call without the trailing ';'.
func (p *parser) simple() (stmt, error) {
	first, err := p.ident()
	if err != nil {
		return nil, err
	}

	name := first.text
	for p.accept(".") {
		part, err := p.ident()
		if err != nil {
			return nil, err
		}
		name += "." + part.text
	}

	if p.is("(") {
		return p.call(first.line, name)
	}

	if !p.declared(name) {
		return nil, errorf(first.line, "cannot find symbol: %s", name)
	}

	op := p.peek()
	switch op.text {
	case "=", "+=", "-=":
		p.next()
		v, err := p.intExpr()
		if err != nil {
			return nil, err
		}
		return assignStmt{ln: first.line, name: name, op: op.text, value: v}, nil
	case "++", "--":
		p.next()
		return assignStmt{ln: first.line, name: name, op: op.text}, nil
	default:
		return nil, errorf(op.line, "not a statement")
	}
}

func (p *parser) call(line int, name string) (stmt, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, errorf(line, "cannot find symbol: method %s", name)
	}
	p.next() // (

	var args []expr
	for !p.is(")") {
		var (
			arg expr
			err error
		)
		if fn == fnPrint || fn == fnPrintln {
			arg, err = p.expression()
		} else {
			arg, err = p.intExpr()
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}

	switch fn {
	case fnPrint, fnPrintln:
		if len(args) > 1 {
			return nil, errorf(line, "%s expects at most 1 argument", name)
		}
	default:
		if len(args) != 1 {
			return nil, errorf(line, "%s expects 1 argument, found %d", name, len(args))
		}
	}
	return callStmt{ln: line, fn: fn, args: args}, nil
}

func (p *parser) ifStatement() (stmt, error) {
	kw := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.intExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.body()
	if err != nil {
		return nil, err
	}
	s := ifStmt{ln: kw.line, cond: cond, then: then}
	if p.accept("else") {
		if s.els, err = p.body(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) forStatement() (stmt, error) {
	kw := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	p.push()
	defer p.pop()

	var (
		s   = loopStmt{ln: kw.line}
		err error
	)
	if !p.is(";") {
		if p.is("int") {
			s.init, err = p.decl()
		} else {
			s.init, err = p.simple()
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(";") {
		if s.cond, err = p.intExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(")") {
		if s.post, err = p.simple(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if s.body, err = p.body(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) whileStatement() (stmt, error) {
	kw := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.intExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return loopStmt{ln: kw.line, cond: cond, body: body}, nil
}

// body parses a loop or branch body in its own scope.
func (p *parser) body() (stmt, error) {
	if p.is("{") {
		return p.block()
	}
	p.push()
	defer p.pop()
	t := p.peek()
	if t.kind == tkIdent && t.text == "int" {
		return nil, errorf(t.line, "variable declaration not allowed here")
	}
	return p.statement()
}

// intExpr parses an expression that must not involve strings.
func (p *parser) intExpr() (expr, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if hasString(e) {
		return nil, errorf(e.exprLine(), "incompatible types: String cannot be converted to int")
	}
	return e, nil
}

func hasString(e expr) bool {
	switch v := e.(type) {
	case strLit:
		return true
	case unary:
		return hasString(v.x)
	case binary:
		return hasString(v.l) || hasString(v.r)
	default:
		return false
	}
}

var precedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) expression() (expr, error) {
	return p.binaryLevel(0)
}

func (p *parser) binaryLevel(level int) (expr, error) {
	if level == len(precedence) {
		return p.unaryExpr()
	}
	left, err := p.binaryLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tkPunct || !contains(precedence[level], t.text) {
			return left, nil
		}
		p.next()
		right, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		if t.text != "+" && (hasString(left) || hasString(right)) {
			return nil, errorf(t.line, "bad operand types for '%s'", t.text)
		}
		left = binary{ln: t.line, op: t.text, l: left, r: right}
	}
}

func (p *parser) unaryExpr() (expr, error) {
	t := p.peek()
	if t.kind == tkPunct && (t.text == "-" || t.text == "!") {
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		if hasString(x) {
			return nil, errorf(t.line, "bad operand type for '%s'", t.text)
		}
		return unary{ln: t.line, op: t.text, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (expr, error) {
	t := p.next()
	switch t.kind {
	case tkNumber:
		v, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, errorf(t.line, "integer number too large: %s", t.text)
		}
		return numLit{ln: t.line, v: v}, nil
	case tkString:
		return strLit{ln: t.line, s: t.text}, nil
	case tkIdent:
		switch t.text {
		case "true":
			return numLit{ln: t.line, v: 1}, nil
		case "false":
			return numLit{ln: t.line, v: 0}, nil
		}
		if !p.declared(t.text) {
			return nil, errorf(t.line, "cannot find symbol: %s", t.text)
		}
		return varRef{ln: t.line, name: t.text}, nil
	case tkPunct:
		if t.text == "(" {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, errorf(t.line, "illegal start of expression: %s", t)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
