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
	"strconv"
	"strings"
)

// String prints a value for human consumption; strings come out raw.
func String(v Scmer) string {
	var b strings.Builder
	stringify(&b, v)
	return b.String()
}

func stringify(b *strings.Builder, v Scmer) {
	switch vv := v.(type) {
	case nil:
		b.WriteString("nil")
	case bool:
		if vv {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int64:
		b.WriteString(strconv.FormatInt(vv, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(vv, 'g', -1, 64))
	case string:
		b.WriteString(vv)
	case Symbol:
		b.WriteString(string(vv))
	case NthLocalVar:
		fmt.Fprintf(b, "(var %d)", vv)
	case *Cell:
		stringify(b, vv.Form)
	case []Scmer:
		b.WriteByte('(')
		for i, item := range vv {
			if i > 0 {
				b.WriteByte(' ')
			}
			stringify(b, item)
		}
		b.WriteByte(')')
	case Proc:
		b.WriteString("[func]")
	case *Proc:
		b.WriteString("[func]")
	case func(...Scmer) Scmer:
		if def := DeclarationForValue(vv); def != nil {
			b.WriteString(def.Name)
		} else {
			b.WriteString("[native]")
		}
	case fmt.Stringer:
		b.WriteString(vv.String())
	case error:
		b.WriteString(vv.Error())
	default:
		fmt.Fprint(b, vv)
	}
}

// SerializeToString emits a form so it reparses with (scheme ...). Native
// functions known to the declaration registry come out under their name.
func SerializeToString(v Scmer, en *Env) string {
	var b strings.Builder
	Serialize(&b, v, en)
	return b.String()
}

func Serialize(b *strings.Builder, v Scmer, en *Env) {
	switch vv := v.(type) {
	case nil:
		b.WriteString("nil")
	case bool, int64, float64, Symbol, NthLocalVar:
		stringify(b, v)
	case string:
		b.WriteString(strconv.Quote(vv))
	case *Cell:
		Serialize(b, vv.Form, en)
	case []Scmer:
		b.WriteByte('(')
		for i, item := range vv {
			if i > 0 {
				b.WriteByte(' ')
			}
			Serialize(b, item, en)
		}
		b.WriteByte(')')
	case Proc:
		serializeProc(b, &vv, en)
	case *Proc:
		serializeProc(b, vv, en)
	case func(...Scmer) Scmer:
		if def := DeclarationForValue(vv); def != nil {
			b.WriteString(def.Name)
		} else {
			b.WriteString("[unserializable native]")
		}
	default:
		stringify(b, v)
	}
}

func serializeProc(b *strings.Builder, p *Proc, en *Env) {
	b.WriteString("(lambda ")
	Serialize(b, p.Params, en)
	b.WriteByte(' ')
	Serialize(b, p.Body, en)
	if p.NumVars > 0 {
		fmt.Fprintf(b, " %d", p.NumVars)
	}
	b.WriteByte(')')
}
