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
	NonLockingReadMap "github.com/launix-de/NonLockingReadMap"
)

type BindKind uint8

const (
	BindValue   BindKind = iota // ordinary variable, holds the storage slot
	BindMacro                   // expansion rule instead of a value
	BindDynamic                 // falls through to global dynamic scope
	BindForeign                 // external storage, Value holds getter, Setter the writer
)

// Binding is the resolved meaning of a name within a scope. The struct is the
// storage slot itself: digested variable reads keep the pointer and skip any
// later name resolution.
type Binding struct {
	Kind      BindKind
	Value     Scmer
	Expansion Scmer  // macro bindings: rule called with the operand forms
	Setter    Scmer  // foreign bindings: func(value)
	Type      string // declared type, "" = untyped; asserted by the reader of the slot, not by Resolve
}

type Vars map[Symbol]*Binding

// Env is a frame of the environment chain. A frame is created by a binding
// construct (lambda call, begin, macrolet) and never changes its name set
// afterwards except for explicit (define) which targets the innermost
// non-Nodefine frame, like in memcp. Numbered holds the fast slots of
// digested lambda calls.
type Env struct {
	Vars     Vars
	Numbered []Scmer
	Outer    *Env
	Nodefine bool // define will write to Outer
}

func (e *Env) FindRead(s Symbol) *Env {
	if _, ok := e.Vars[s]; ok {
		return e
	}
	if e.Outer == nil {
		return e
	}
	return e.Outer.FindRead(s)
}

func (e *Env) FindWrite(s Symbol) *Env {
	if _, ok := e.Vars[s]; ok {
		return e
	}
	if e.Outer == nil {
		return nil
	}
	return e.Outer.FindWrite(s)
}

// Get reads a plain value; macro and foreign bindings are resolved to their
// current value. ok is false for unbound names.
func (e *Env) Get(s Symbol) (Scmer, bool) {
	b, _, _, _ := Resolve(e, s)
	if b == nil {
		return nil, false
	}
	return readBinding(b, s), true
}

// Define creates or overwrites a value binding in the innermost frame that
// accepts defines
func (e *Env) Define(s Symbol, v Scmer) *Binding {
	target := e
	for target != nil && target.Nodefine {
		target = target.Outer
	}
	if target == nil {
		target = &Globalenv
	}
	if b, ok := target.Vars[s]; ok {
		b.Value = v
		return b
	}
	b := &Binding{Kind: BindValue, Value: v}
	if target.Outer == nil {
		b.Kind = BindDynamic
	}
	target.Vars[s] = b
	return b
}

/*
 Global symbol information
*/

// symbolInfo is one entry of the global symbol information store: global
// macros, foreign variables and declared types of dynamic globals. The store
// is read on every miss of the lexical chain and written only by declaration
// forms, so the non-locking read map fits exactly.
type symbolInfo struct {
	Name    string
	Binding *Binding
}

func (s symbolInfo) GetKey() string { return s.Name }
func (s symbolInfo) ComputeSize() uint {
	return uint(16 + len(s.Name) + 64)
}

var globalInfo = NonLockingReadMap.New[symbolInfo, string]()

// DeclareInfo registers global symbol information: a global macro, a foreign
// variable or a type declaration for a dynamic global. Populated at startup
// or by toplevel forms; evaluation only reads it.
func DeclareInfo(name Symbol, b *Binding) {
	globalInfo.Set(&symbolInfo{Name: string(name), Binding: b})
}

// InfoLookup exposes the symbol information interface: category is one of
// "variable-kind", "macro-expansion-rule", "declared-type"
func InfoLookup(name Symbol, category string) Scmer {
	si := globalInfo.Get(string(name))
	switch category {
	case "variable-kind":
		if si == nil {
			if _, ok := Globalenv.Vars[name]; ok {
				return "dynamic"
			}
			return nil
		}
		switch si.Binding.Kind {
		case BindMacro:
			return "macro"
		case BindForeign:
			return "foreign"
		default:
			return "dynamic"
		}
	case "macro-expansion-rule":
		if si != nil && si.Binding.Kind == BindMacro {
			return si.Binding.Expansion
		}
		return nil
	case "declared-type":
		if si != nil {
			return si.Binding.Type
		}
		return nil
	}
	panic("unknown info category: " + category)
}

/*
 Binding resolution
*/

// Resolve looks up a name: innermost frame outwards, then the global symbol
// information store. It returns the binding, its kind, the frame it lives in
// (nil for store-resident bindings) and the declared type. Asserting the type
// is the caller's job; Resolve itself is a pure lookup.
func Resolve(en *Env, s Symbol) (*Binding, BindKind, *Env, string) {
	for e := en; e != nil; e = e.Outer {
		if b, ok := e.Vars[s]; ok {
			return b, b.Kind, e, b.Type
		}
	}
	if si := globalInfo.Get(string(s)); si != nil {
		return si.Binding, si.Binding.Kind, nil, si.Binding.Type
	}
	return nil, BindValue, nil, ""
}

// readBinding dereferences a resolved binding to its current value and
// asserts the declared type. form is only used for the error message.
func readBinding(b *Binding, form Scmer) Scmer {
	var v Scmer
	switch b.Kind {
	case BindForeign:
		v = apply(b.Value)
	default:
		v = b.Value
	}
	assertType(form, v, b.Type)
	return v
}

func writeBinding(b *Binding, v Scmer) {
	if b.Kind == BindForeign {
		apply(b.Setter, v)
		return
	}
	b.Value = v
}

/*
 Declared types
*/

// TypeCheck is the pluggable type assertion predicate. The default checker
// understands the declaration type lattice of declare.go. Replace it to attach
// a richer type system; the failure path stays here.
var TypeCheck func(v Scmer, typ string) bool = defaultTypeCheck

func assertType(form Scmer, v Scmer, typ string) {
	if typ == "" {
		return
	}
	if !TypeCheck(v, typ) {
		panic(TypeError{Form: form, Value: v, Expected: typ})
	}
}

func defaultTypeCheck(v Scmer, typ string) bool {
	return types_match(typeOf(v), typ)
}

func typeOf(v Scmer) string {
	switch vv := unwrap(v).(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case float64:
		return "number"
	case int64:
		return "int"
	case bool:
		return "bool"
	case Symbol:
		return "symbol"
	case []Scmer:
		return "list"
	case Proc, *Proc, func(...Scmer) Scmer, func(*Env, ...Scmer) Scmer:
		return "func"
	default:
		_ = vv
		return "any"
	}
}
