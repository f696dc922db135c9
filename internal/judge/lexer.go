package judge

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkIdent
	tkNumber
	tkString
	tkPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tkEOF:
		return "end of input"
	case tkString:
		return fmt.Sprintf("%q", t.text)
	default:
		return fmt.Sprintf("'%s'", t.text)
	}
}

// compileError is a syntax or semantic error found before execution.
type compileError struct {
	line int
	msg  string
}

func (e *compileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

func errorf(line int, format string, args ...any) *compileError {
	return &compileError{line: line, msg: fmt.Sprintf(format, args...)}
}

var twoCharPuncts = map[string]bool{
	"<=": true, ">=": true, "==": true, "!=": true,
	"++": true, "--": true, "+=": true, "-=": true,
	"&&": true, "||": true,
}

const oneCharPuncts = "(){}[];,.=+-*/%<>!"

// lex splits source into tokens, dropping // and /* */ comments.
func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	line := 1

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '\n':
			line++
			i++
		case unicode.IsSpace(r):
			i++
		case r == '/' && i+1 < len(rs) && rs[i+1] == '/':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			start := line
			i += 2
			for ; i < len(rs); i++ {
				if rs[i] == '\n' {
					line++
				}
				if rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/' {
					break
				}
			}
			if i >= len(rs) {
				return nil, errorf(start, "unterminated comment")
			}
			i += 2
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tkIdent, text: string(rs[i:j]), line: line})
			i = j
		case unicode.IsDigit(r):
			j := i
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			toks = append(toks, token{kind: tkNumber, text: string(rs[i:j]), line: line})
			i = j
		case r == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(rs) && rs[j] != '"'; j++ {
				if rs[j] == '\n' {
					return nil, errorf(line, "unterminated string literal")
				}
				if rs[j] == '\\' && j+1 < len(rs) {
					j++
					switch rs[j] {
					case 'n':
						sb.WriteRune('\n')
					case 't':
						sb.WriteRune('\t')
					default:
						sb.WriteRune(rs[j])
					}
					continue
				}
				sb.WriteRune(rs[j])
			}
			if j >= len(rs) {
				return nil, errorf(line, "unterminated string literal")
			}
			toks = append(toks, token{kind: tkString, text: sb.String(), line: line})
			i = j + 1
		default:
			if i+1 < len(rs) && twoCharPuncts[string(rs[i:i+2])] {
				toks = append(toks, token{kind: tkPunct, text: string(rs[i : i+2]), line: line})
				i += 2
				continue
			}
			if strings.ContainsRune(oneCharPuncts, r) {
				toks = append(toks, token{kind: tkPunct, text: string(r), line: line})
				i++
				continue
			}
			return nil, errorf(line, "unexpected character %q", r)
		}
	}
	toks = append(toks, token{kind: tkEOF, line: line})
	return toks, nil
}
