/*
Copyright (C) 2023-2026  Carl-Philip Hänsch
Copyright (C) 2013  Pieter Kelchtermans (originally licensed unter WTFPL 2.0)

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package scm

import (
	"strconv"
	"strings"
)

func Simplify(s string) Scmer {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Read parses one s-expression. Every list form comes back wrapped in a fresh
// Cell carrying the source position, so each occurrence has its own cache.
func Read(source, s string) (expression Scmer) {
	tokens := tokenize(source, s)
	return readFrom(&tokens)
}

// ReadAll parses a whole file into its top level forms.
func ReadAll(source, s string) (expressions []Scmer) {
	tokens := tokenize(source, s)
	for len(tokens) > 0 {
		expressions = append(expressions, readFrom(&tokens))
	}
	return
}

// EvalAll parses and runs a whole file. Top level forms go through their
// cells, so a file loaded twice reuses the digested nodes of shared cells.
func EvalAll(source, s string, en *Env) (expression Scmer) {
	tokens := tokenize(source, s)
	for len(tokens) > 0 {
		code := readFrom(&tokens)
		Validate(code, "any")
		if c, ok := code.(*Cell); ok {
			expression = Digest(c, en)
		} else {
			expression = Eval(code, en)
		}
	}
	return
}

// Syntactic Analysis
func readFrom(tokens *[]Scmer) (expression Scmer) {
	if len(*tokens) == 0 {
		return nil
	}
	// pop first element from tokens
	token := (*tokens)[0]
	*tokens = (*tokens)[1:]
	if c, ok := token.(*Cell); ok {
		// open paren carrying its position
		L := make([]Scmer, 0)
		for {
			if len(*tokens) == 0 {
				panic(c.Position() + ": expecting matching )")
			}
			if s, ok := (*tokens)[0].(Symbol); ok && s == ")" {
				*tokens = (*tokens)[1:]
				c.Form = L
				return c
			}
			L = append(L, readFrom(tokens))
		}
	}
	if sym, ok := token.(Symbol); ok {
		if sym == "'" && len(*tokens) > 0 {
			if c, ok := (*tokens)[0].(*Cell); ok {
				// '( ... ) becomes a call to list
				*tokens = (*tokens)[1:]
				L := make([]Scmer, 1)
				L[0] = Symbol("list")
				for {
					if len(*tokens) == 0 {
						panic(c.Position() + ": expecting matching )")
					}
					if s, ok := (*tokens)[0].(Symbol); ok && s == ")" {
						break
					}
					L = append(L, readFrom(tokens))
				}
				*tokens = (*tokens)[1:]
				if len(L) == 1 {
					c.Form = []Scmer{}
					return c
				}
				c.Form = L
				return c
			}
			quoted := readFrom(tokens)
			return []Scmer{Symbol("quote"), quoted}
		}
		return token
	}
	return token
}

// Lexical Analysis
func tokenize(source, s string) []Scmer {
	/* tokenizer state machine:
		0 = expecting next item
		1 = inside Number
		2 = inside Symbol
		3 = inside string
		4 = inside escaping sequence of string
		5 = inside comment
		6 = comment ending * from * /

	tokens are either Number, Symbol, string or Symbol('(') or Symbol(')');
	open parens carry their source position in a Cell
	*/
	line := 1
	col := 0

	stringreplacer := strings.NewReplacer("\\\"", "\"", "\\\\", "\\", "\\n", "\n", "\\r", "\r", "\\t", "\t")
	state := 0
	startToken := 0
	result := make([]Scmer, 0)
	finishNumber := func(tok string) {
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			result = append(result, n)
		} else if f, err := strconv.ParseFloat(tok, 64); err == nil {
			result = append(result, f)
		} else if tok == "-" {
			result = append(result, Symbol("-"))
		} else {
			result = append(result, Symbol("NaN"))
		}
	}
	for i, ch := range s {
		// line counting
		if ch == '\n' {
			line++
			col = 0
		} else {
			col++
		}

		if state == 1 && (ch == '.' || ch >= '0' && ch <= '9') {
			// another character added to Number
		} else if state == 2 && ch == '*' && s[startToken:i] == "/" {
			// begin of comment
			state = 5
		} else if state == 5 && ch == '*' {
			// comment seems to end
			state = 6
		} else if state == 5 {
			// consume another character in comment
		} else if state == 6 && ch == '/' {
			// end comment
			state = 0
		} else if state == 6 {
			// continue comment
			state = 5
		} else if state == 2 && ch != ' ' && ch != '\r' && ch != '\n' && ch != '\t' && ch != ')' && ch != '(' {
			// another character added to Symbol
		} else if state == 3 && ch != '"' && ch != '\\' {
			// another character added to string
		} else if state == 3 && ch == '\\' {
			// escape sequence
			state = 4
		} else if state == 4 {
			state = 3 // continue with string
		} else if state == 3 && ch == '"' {
			// finish string
			result = append(result, stringreplacer.Replace(string(s[startToken+1:i])))
			state = 0
		} else {
			// otherwise: state change!
			if state == 1 {
				finishNumber(s[startToken:i])
			}
			if state == 2 {
				// finish Symbol
				result = append(result, Symbol(s[startToken:i]))
			}
			// now detect what to parse next
			startToken = i
			if ch == '(' {
				result = append(result, NewCell(Symbol("("), source, line, col))
				state = 0
			} else if ch == ')' {
				result = append(result, Symbol(")"))
				state = 0
			} else if ch == '\'' {
				result = append(result, Symbol("'"))
				state = 0
			} else if ch == '"' {
				// start string
				state = 3
			} else if ch >= '0' && ch <= '9' || ch == '-' {
				// start Number
				state = 1
			} else if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
				// white space
				state = 0
			} else {
				// everything else is a Symbol! (Symbols only are stopped by ' ()')
				state = 2
			}

		}
	}
	// in the end: finish unfinished Symbols and Numbers
	if state == 1 {
		finishNumber(s[startToken:])
	}
	if state == 2 {
		// finish Symbol
		result = append(result, Symbol(s[startToken:]))
	}
	return result
}
