/*
Copyright (C) 2025  Carl-Philip Hänsch

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
	"errors"
	"testing"
)

func TestEnv_Shadowing(t *testing.T) {
	en := testEnv()
	evalString(t, en, "(define sh_x 1)")
	if v := evalString(t, en, "((lambda (sh_x) sh_x) 2)"); v != int64(2) {
		t.Fatalf("parameter did not shadow outer binding: %v", v)
	}
	if v := evalString(t, en, "sh_x"); v != int64(1) {
		t.Fatalf("outer binding damaged by shadowing: %v", v)
	}
	// same through the cached path
	if v := digestString(t, en, "((lambda (sh_x) sh_x) 3)"); v != int64(3) {
		t.Fatalf("digested shadowing: %v", v)
	}
}

func TestEnv_OuterEscapesOneFrame(t *testing.T) {
	en := testEnv()
	code := `(define o_x 1)
	         ((lambda (o_x) (outer o_x)) 2)`
	if v := evalString(t, en, code); v != int64(1) {
		t.Fatalf("outer should read the surrounding frame: %v", v)
	}
}

func TestEnv_SetMutatesEnclosingBinding(t *testing.T) {
	en := testEnv()
	code := `(define counter 0)
	         (define bump_counter (lambda () (set counter (+ counter 1))))
	         (bump_counter)
	         (bump_counter)
	         counter`
	if v := evalString(t, en, code); v != int64(2) {
		t.Fatalf("closure writes should reach the defining frame: %v", v)
	}
}

func TestEnv_ForeignBinding(t *testing.T) {
	en := testEnv()
	store := int64(5)
	en.Vars[Symbol("ext_cfg")] = &Binding{
		Kind:   BindForeign,
		Value:  func(a ...Scmer) Scmer { return store },
		Setter: func(a ...Scmer) Scmer { store = a[0].(int64); return a[0] },
	}
	if v := evalString(t, en, "ext_cfg"); v != int64(5) {
		t.Fatalf("foreign read: %v", v)
	}
	evalString(t, en, "(set ext_cfg 9)")
	if store != 9 {
		t.Fatalf("foreign write did not reach the setter: %d", store)
	}
	// the digested read also goes through the getter on every visit
	c := Read("test", "(+ ext_cfg 1)").(*Cell)
	if v := Digest(c, en); v != int64(10) {
		t.Fatalf("digested foreign read: %v", v)
	}
	store = 20
	if v := Digest(c, en); v != int64(21) {
		t.Fatalf("digested foreign read is stale: %v", v)
	}
}

func TestEnv_DeclaredTypeAssertedOnRead(t *testing.T) {
	en := testEnv()
	evalString(t, en, `(declare typed_v "number") (set typed_v 5)`)
	if v := evalString(t, en, "typed_v"); v != int64(5) {
		t.Fatalf("typed read: %v", v)
	}
	evalString(t, en, `(set typed_v "oops")`)
	_, err := TryEval(Symbol("typed_v"), en)
	if err == nil {
		t.Fatalf("expected a type error on read")
	}
	var te TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TypeError, got %T %v", err, err)
	}
	if te.Expected != "number" {
		t.Fatalf("TypeError carries wrong expectation: %v", te.Expected)
	}
}

func TestEnv_DeclaredTypeOnDigestedRead(t *testing.T) {
	en := testEnv()
	evalString(t, en, `(declare dtyped_v "number") (set dtyped_v "wrong")`)
	c := Read("test", "(+ dtyped_v 1)").(*Cell)
	r := mustPanic(t, func() { Digest(c, en) })
	if _, ok := r.(TypeError); !ok {
		t.Fatalf("expected TypeError, got %T %v", r, r)
	}
}

func TestEnv_IntSatisfiesNumber(t *testing.T) {
	en := testEnv()
	evalString(t, en, `(declare int_as_num "number") (set int_as_num 7)`)
	if v := evalString(t, en, "int_as_num"); v != int64(7) {
		t.Fatalf("int should satisfy a number declaration: %v", v)
	}
}

func TestEnv_GlobalInfoKinds(t *testing.T) {
	DeclareMacro("kind_probe_macro", func(a ...Scmer) Scmer { return nil }, true)
	if v := InfoLookup(Symbol("kind_probe_macro"), "variable-kind"); v != "macro" {
		t.Fatalf("variable-kind of a macro: %v", v)
	}
	if v := InfoLookup(Symbol("kind_probe_macro"), "macro-expansion-rule"); v == nil {
		t.Fatalf("macro-expansion-rule missing")
	}
	if v := InfoLookup(Symbol("utterly_unknown_name_xyz"), "variable-kind"); v != nil {
		t.Fatalf("unknown name should have no kind: %v", v)
	}
}

func TestEnv_NodefineSkipsFrame(t *testing.T) {
	en := testEnv()
	inner := &Env{Vars: make(Vars), Outer: en, Nodefine: true}
	inner.Define(Symbol("nd_x"), int64(1))
	if _, ok := inner.Vars[Symbol("nd_x")]; ok {
		t.Fatalf("define landed in a Nodefine frame")
	}
	if b, ok := en.Vars[Symbol("nd_x")]; !ok || b.Value != int64(1) {
		t.Fatalf("define did not reach the accepting frame")
	}
}

func TestEnv_GetResolvesThroughChain(t *testing.T) {
	en := testEnv()
	en.Define(Symbol("chain_a"), int64(1))
	child := &Env{Vars: make(Vars), Outer: en, Nodefine: false}
	if v, ok := child.Get(Symbol("chain_a")); !ok || v != int64(1) {
		t.Fatalf("chain lookup: %v %v", v, ok)
	}
	if _, ok := child.Get(Symbol("chain_missing")); ok {
		t.Fatalf("missing name reported as bound")
	}
}
