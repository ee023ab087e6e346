/*
Copyright (C) 2025-2026  Carl-Philip Hänsch

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
	"reflect"
	"strconv"
)

// Scmer is any value of the object language: nil, bool, float64, int64,
// string, Symbol, []Scmer, *Cell, Proc, func(...Scmer) Scmer,
// func(*Env, ...Scmer) Scmer, NthLocalVar, io.Reader, *ScmParser
type Scmer = any

type Symbol string // Symbols are represented by strings

// NthLocalVar is a digested reference into the numbered slots of the
// innermost frame; equals to (var i) in serialized form
type NthLocalVar uint8

// Proc is a closure over En. Body is the (usually *Cell wrapped) body form.
// When the lambda has been digested, NumVars tells how many numbered slots a
// call frame needs and bodyNode is the compiled dispatch node for the body.
type Proc struct {
	Params, Body Scmer
	En           *Env
	NumVars      int
	bodyNode     node
}

func symbolOf(v Scmer) (Symbol, bool) {
	switch s := v.(type) {
	case Symbol:
		return s, true
	case *Cell:
		return symbolOf(s.Form)
	}
	return Symbol(""), false
}

func mustSymbol(v Scmer) Symbol {
	if s, ok := symbolOf(v); ok {
		return s
	}
	panic("expected symbol: " + String(v))
}

// unwrap strips the Cell wrapper off a form without touching the cache
func unwrap(v Scmer) Scmer {
	if c, ok := v.(*Cell); ok {
		return c.Form
	}
	return v
}

func ToBool(v Scmer) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b != ""
	case Symbol:
		return b != ""
	case []Scmer:
		return len(b) > 0
	case *Cell:
		return ToBool(b.Form)
	default:
		return true
	}
}

func ToInt(v Scmer) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int64:
		return int(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	case *Cell:
		return ToInt(n.Form)
	}
	return 0
}

func ToFloat(v Scmer) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1.0
		}
		return 0.0
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	case *Cell:
		return ToFloat(n.Form)
	}
	return 0.0
}

// Equal compares two values structurally; numbers compare across int64/float64
func Equal(a, b Scmer) bool {
	a, b = unwrap(a), unwrap(b)
	switch va := a.(type) {
	case nil:
		return b == nil
	case float64:
		return isNumber(b) && ToFloat(b) == va
	case int64:
		return isNumber(b) && ToFloat(b) == float64(va)
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case Symbol:
		vb, ok := b.(Symbol)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case []Scmer:
		vb, ok := b.([]Scmer)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func isNumber(v Scmer) bool {
	switch unwrap(v).(type) {
	case float64, int64:
		return true
	}
	return false
}

// FromAny lifts a native Go value into the value universe
func FromAny(v any) Scmer {
	switch vv := v.(type) {
	case nil, bool, float64, int64, string, Symbol, []Scmer, *Cell, Proc, *Proc,
		func(...Scmer) Scmer, func(*Env, ...Scmer) Scmer, NthLocalVar:
		return vv
	case int:
		return int64(vv)
	case int8:
		return int64(vv)
	case int16:
		return int64(vv)
	case int32:
		return int64(vv)
	case uint:
		return int64(vv)
	case uint8:
		return int64(vv)
	case uint16:
		return int64(vv)
	case uint32:
		return int64(vv)
	case uint64:
		return int64(vv)
	case float32:
		return float64(vv)
	case error:
		return vv.Error()
	case fmt.Stringer:
		return vv.String()
	default:
		return vv
	}
}

// List is the native list constructor; also used as a marker head by the
// serializer for quoted lists
func List(a ...Scmer) Scmer {
	return a
}

func isListFn(v Scmer) bool {
	if fn, ok := v.(func(...Scmer) Scmer); ok {
		return reflect.ValueOf(fn).Pointer() == reflect.ValueOf(List).Pointer()
	}
	return false
}

func asSlice(v Scmer, what string) []Scmer {
	switch l := unwrap(v).(type) {
	case []Scmer:
		return l
	case nil:
		return nil
	}
	panic(what + ": expected list, got " + String(v))
}

// stripCells removes source wrappers from a form tree, copy-on-write. Quoted
// forms hand data back to the program, so wrappers must not leak into values.
func stripCells(v Scmer) Scmer {
	out, _ := stripCellsEx(v)
	return out
}

func stripCellsEx(v Scmer) (Scmer, bool) {
	switch vv := v.(type) {
	case *Cell:
		out, _ := stripCellsEx(vv.Form)
		return out, true
	case []Scmer:
		for i, item := range vv {
			if stripped, changed := stripCellsEx(item); changed {
				out := make([]Scmer, len(vv))
				copy(out, vv[:i])
				out[i] = stripped
				for j := i + 1; j < len(vv); j++ {
					out[j], _ = stripCellsEx(vv[j])
				}
				return out, true
			}
		}
		return vv, false
	default:
		return v, false
	}
}
