/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

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
	"fmt"
	"regexp"
	"strings"
)

func valueFromPattern(pattern Scmer, en *Env) Scmer {
	switch p := pattern.(type) {
	case *Cell:
		return valueFromPattern(p.Form, en)
	case Symbol:
		if v, ok := en.Get(p); ok {
			return v
		}
		return p
	case NthLocalVar:
		return en.Numbered[p]
	}
	return pattern
}

func bindMatchVar(en *Env, target Scmer, val Scmer) {
	switch t := unwrap(target).(type) {
	case Symbol:
		if t == "_" {
			return
		}
		en.Vars[t] = &Binding{Kind: BindValue, Value: val}
	case NthLocalVar:
		en.Numbered[t] = val
	default:
		panic("match variable invalid: " + String(target))
	}
}

// match unifies val against pattern, storing variables into en:
//   - string and number patterns match on equality
//   - a symbol binds the value into a variable; _ is dontcare
//   - (list p...) unifies a list elementwise
//   - (symbol x) matches the symbol x literally
//   - (eval expr) matches the result of expr
//   - (ignorecase s) matches strings case insensitive
//   - (concat ...) decomposes a string around literal parts
//   - (cons head tail) splits a list
//   - (regex pattern whole vars...) matches a regex with capture groups
func match(val Scmer, pattern Scmer, en *Env) bool {
	switch p := pattern.(type) {
	case *Cell:
		return match(val, p.Form, en)
	case float64, int64, string, bool, nil:
		return Equal(val, p)
	case Symbol:
		bindMatchVar(en, p, val)
		return true
	case NthLocalVar:
		en.Numbered[p] = val
		return true
	case []Scmer:
		if len(p) == 0 {
			l, ok := unwrap(val).([]Scmer)
			return ok && len(l) == 0
		}
		switch unwrap(p[0]) {
		case Symbol("eval"):
			return Equal(Eval(p[1], en), val)
		case Symbol("list"):
			v, ok := unwrap(val).([]Scmer)
			if !ok {
				return false
			}
			sub := p[1:]
			if len(v) != len(sub) {
				return false
			}
			for i, item := range sub {
				if !match(v[i], item, en) {
					return false
				}
			}
			return true
		case Symbol("symbol"):
			v, ok := unwrap(val).(Symbol)
			return ok && v == mustSymbol(p[1])
		case Symbol("ignorecase"):
			s1, ok1 := unwrap(val).(string)
			s2, ok2 := valueFromPattern(p[1], en).(string)
			return ok1 && ok2 && strings.EqualFold(s1, s2)
		case Symbol("concat"):
			return matchConcat(val, p, en)
		case Symbol("cons"):
			v, ok := unwrap(val).([]Scmer)
			if !ok || len(v) == 0 {
				return false
			}
			return match(v[0], p[1], en) && match(v[1:], p[2], en)
		case Symbol("regex"):
			return matchRegex(val, p, en)
		default:
			panic("unknown match pattern: " + fmt.Sprint(p))
		}
	}
	return Equal(val, pattern)
}

// matchConcat handles (concat "prefix" var), (concat var "postfix") and
// (concat var "infix" var) on strings.
func matchConcat(val Scmer, p []Scmer, en *Env) bool {
	v, ok := unwrap(val).(string)
	if !ok {
		return false
	}
	if len(p) == 3 {
		if prefix, ok := valueFromPattern(p[1], en).(string); ok {
			// "prefix" var
			if !strings.HasPrefix(v, prefix) {
				return false
			}
			bindMatchVar(en, p[2], v[len(prefix):])
			return true
		}
		if postfix, ok := valueFromPattern(p[2], en).(string); ok {
			// var "postfix"
			if !strings.HasSuffix(v, postfix) {
				return false
			}
			bindMatchVar(en, p[1], v[:len(v)-len(postfix)])
			return true
		}
	}
	if len(p) == 4 {
		if infix, ok := valueFromPattern(p[2], en).(string); ok {
			// var "infix" var
			idx := strings.Index(v, infix)
			if idx < 0 {
				return false
			}
			bindMatchVar(en, p[1], v[:idx])
			bindMatchVar(en, p[3], v[idx+len(infix):])
			return true
		}
	}
	panic("unknown concat pattern: " + fmt.Sprint(p))
}

// matchRegex handles (regex "pattern" whole var...): whole receives the full
// match, the vars receive the capture groups.
func matchRegex(val Scmer, p []Scmer, en *Env) bool {
	v, ok := unwrap(val).(string)
	if !ok {
		return false
	}
	pat, ok := valueFromPattern(p[1], en).(string)
	if !ok {
		panic("regex expects string pattern")
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		panic(err)
	}
	if re.NumSubexp() != len(p)-3 {
		panic("regex " + pat + " contains " + fmt.Sprint(re.NumSubexp()) + " subexpressions, but " + fmt.Sprint(len(p)-3) + " variables were given")
	}
	groups := re.FindStringSubmatch(v)
	if groups == nil {
		return false
	}
	for i := 0; i <= re.NumSubexp(); i++ {
		bindMatchVar(en, p[i+2], groups[i])
	}
	return true
}
