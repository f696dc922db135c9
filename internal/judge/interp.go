package judge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/codequest/internal/command"
	"github.com/vovakirdan/codequest/internal/grid"
)

// runtimeError aborts execution of an already compiled program.
type runtimeError struct {
	line int
	msg  string
}

func (e *runtimeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

// Limits bound interpreted programs.
type Limits struct {
	MaxSteps    int
	MaxCommands int
}

// DefaultLimits returns the limits used by the local judge.
func DefaultLimits() Limits {
	return Limits{MaxSteps: 100000, MaxCommands: 1000}
}

type machine struct {
	limits Limits
	scopes []map[string]int
	steps  int
	cmds   []command.Command
	out    strings.Builder
}

// interpret compiles and runs src, returning the commands and the
// printed output.
func interpret(src string, limits Limits) ([]command.Command, string, error) {
	prog, err := parse(src)
	if err != nil {
		return nil, "", err
	}
	m := &machine{limits: limits}
	if err := m.exec(prog); err != nil {
		return nil, m.out.String(), err
	}
	return m.cmds, m.out.String(), nil
}

func (m *machine) push() { m.scopes = append(m.scopes, map[string]int{}) }
func (m *machine) pop()  { m.scopes = m.scopes[:len(m.scopes)-1] }

func (m *machine) lookup(name string) (map[string]int, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if _, ok := m.scopes[i][name]; ok {
			return m.scopes[i], true
		}
	}
	return nil, false
}

func (m *machine) tick(line int) error {
	m.steps++
	if m.limits.MaxSteps > 0 && m.steps > m.limits.MaxSteps {
		return &runtimeError{line: line, msg: "time limit exceeded"}
	}
	return nil
}

func (m *machine) exec(s stmt) error {
	if s == nil {
		return nil
	}
	if err := m.tick(s.stmtLine()); err != nil {
		return err
	}

	switch s := s.(type) {
	case *blockStmt:
		m.push()
		defer m.pop()
		for _, inner := range s.body {
			if err := m.exec(inner); err != nil {
				return err
			}
		}
		return nil

	case declStmt:
		v, err := m.evalInt(s.value)
		if err != nil {
			return err
		}
		m.scopes[len(m.scopes)-1][s.name] = v
		return nil

	case assignStmt:
		scope, ok := m.lookup(s.name)
		if !ok {
			return &runtimeError{line: s.ln, msg: "undefined variable " + s.name}
		}
		switch s.op {
		case "++":
			scope[s.name]++
			return nil
		case "--":
			scope[s.name]--
			return nil
		}
		v, err := m.evalInt(s.value)
		if err != nil {
			return err
		}
		switch s.op {
		case "+=":
			scope[s.name] += v
		case "-=":
			scope[s.name] -= v
		default:
			scope[s.name] = v
		}
		return nil

	case callStmt:
		return m.call(s)

	case ifStmt:
		c, err := m.evalInt(s.cond)
		if err != nil {
			return err
		}
		if c != 0 {
			return m.exec(s.then)
		}
		return m.exec(s.els)

	case loopStmt:
		m.push()
		defer m.pop()
		if err := m.exec(s.init); err != nil {
			return err
		}
		for {
			if s.cond != nil {
				c, err := m.evalInt(s.cond)
				if err != nil {
					return err
				}
				if c == 0 {
					return nil
				}
			}
			if err := m.exec(s.body); err != nil {
				return err
			}
			if err := m.exec(s.post); err != nil {
				return err
			}
			if err := m.tick(s.ln); err != nil {
				return err
			}
		}
	}
	return &runtimeError{line: s.stmtLine(), msg: "unsupported statement"}
}

var moveDirs = map[builtin]grid.Dir{
	fnMoveRight: grid.DirRight,
	fnMoveLeft:  grid.DirLeft,
	fnMoveUp:    grid.DirUp,
	fnMoveDown:  grid.DirDown,
}

func (m *machine) call(s callStmt) error {
	switch s.fn {
	case fnPrint, fnPrintln:
		if len(s.args) == 1 {
			v, err := m.evalString(s.args[0])
			if err != nil {
				return err
			}
			m.out.WriteString(v)
		}
		if s.fn == fnPrintln {
			m.out.WriteByte('\n')
		}
		return nil
	}

	n, err := m.evalInt(s.args[0])
	if err != nil {
		return err
	}
	if n < 0 {
		return &runtimeError{line: s.ln, msg: fmt.Sprintf("argument must not be negative: %d", n)}
	}

	var c command.Command
	if d, ok := moveDirs[s.fn]; ok {
		c = command.Move(d, n)
	} else {
		c = command.Wait(n)
	}
	if m.limits.MaxCommands > 0 && len(m.cmds) >= m.limits.MaxCommands {
		return &runtimeError{line: s.ln, msg: "too many commands"}
	}
	m.cmds = append(m.cmds, c)
	return nil
}

func (m *machine) evalInt(e expr) (int, error) {
	switch e := e.(type) {
	case numLit:
		return e.v, nil
	case varRef:
		scope, ok := m.lookup(e.name)
		if !ok {
			return 0, &runtimeError{line: e.ln, msg: "undefined variable " + e.name}
		}
		return scope[e.name], nil
	case unary:
		x, err := m.evalInt(e.x)
		if err != nil {
			return 0, err
		}
		if e.op == "!" {
			return boolInt(x == 0), nil
		}
		return -x, nil
	case binary:
		return m.evalBinary(e)
	}
	return 0, &runtimeError{line: e.exprLine(), msg: "expected an integer"}
}

func (m *machine) evalBinary(e binary) (int, error) {
	l, err := m.evalInt(e.l)
	if err != nil {
		return 0, err
	}
	// && and || short-circuit.
	switch e.op {
	case "&&":
		if l == 0 {
			return 0, nil
		}
	case "||":
		if l != 0 {
			return 1, nil
		}
	}
	r, err := m.evalInt(e.r)
	if err != nil {
		return 0, err
	}

	switch e.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return 0, &runtimeError{line: e.ln, msg: "division by zero"}
		}
		if e.op == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "<":
		return boolInt(l < r), nil
	case "<=":
		return boolInt(l <= r), nil
	case ">":
		return boolInt(l > r), nil
	case ">=":
		return boolInt(l >= r), nil
	case "==":
		return boolInt(l == r), nil
	case "!=":
		return boolInt(l != r), nil
	case "&&", "||":
		return boolInt(r != 0), nil
	}
	return 0, &runtimeError{line: e.ln, msg: "unknown operator " + e.op}
}

// evalString evaluates a print argument; + concatenates once either side
// is a string.
func (m *machine) evalString(e expr) (string, error) {
	if !hasString(e) {
		v, err := m.evalInt(e)
		return strconv.Itoa(v), err
	}
	switch e := e.(type) {
	case strLit:
		return e.s, nil
	case binary:
		l, err := m.evalString(e.l)
		if err != nil {
			return "", err
		}
		r, err := m.evalString(e.r)
		if err != nil {
			return "", err
		}
		return l + r, nil
	}
	return "", &runtimeError{line: e.exprLine(), msg: "expected a string"}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
