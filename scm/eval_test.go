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
	"testing"
)

func testEnv() *Env {
	return &Env{Vars: make(Vars), Outer: &Globalenv, Nodefine: false}
}

// evalString runs code through the immediate strategy, form by form.
func evalString(t *testing.T, en *Env, code string) Scmer {
	t.Helper()
	var result Scmer
	for _, form := range ReadAll("test", code) {
		result = Eval(form, en)
	}
	return result
}

// digestString runs code through the caching strategy: every top level cell
// is digested and executed via its dispatch node.
func digestString(t *testing.T, en *Env, code string) Scmer {
	t.Helper()
	var result Scmer
	for _, form := range ReadAll("test", code) {
		if c, ok := form.(*Cell); ok {
			result = Digest(c, en)
		} else {
			result = Eval(form, en)
		}
	}
	return result
}

func mustPanic(t *testing.T, f func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatalf("expected a panic")
		}
	}()
	f()
	return
}

func TestEval_SelfEvaluating(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, "42"); v != int64(42) {
		t.Fatalf("expected 42, got %v", v)
	}
	if v := evalString(t, en, "3.5"); v != float64(3.5) {
		t.Fatalf("expected 3.5, got %v", v)
	}
	if v := evalString(t, en, `"hello"`); v != "hello" {
		t.Fatalf("expected hello, got %v", v)
	}
	if v := evalString(t, en, "true"); v != true {
		t.Fatalf("expected true, got %v", v)
	}
}

func TestEval_DefineAndRead(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, "(define x 5) x"); v != int64(5) {
		t.Fatalf("expected 5, got %v", v)
	}
	if v := evalString(t, en, "(set x 7) x"); v != int64(7) {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestEval_UnboundSymbol(t *testing.T) {
	en := testEnv()
	r := mustPanic(t, func() { evalString(t, en, "no_such_symbol_anywhere") })
	if _, ok := r.(UnboundError); !ok {
		t.Fatalf("expected UnboundError, got %T %v", r, r)
	}
}

func TestEval_InvalidOperator(t *testing.T) {
	en := testEnv()
	r := mustPanic(t, func() { evalString(t, en, "(42 1 2)") })
	if _, ok := r.(InvalidOperatorError); !ok {
		t.Fatalf("expected InvalidOperatorError, got %T %v", r, r)
	}
}

func TestEval_ComputedHead(t *testing.T) {
	en := testEnv()
	code := `(define curry_add (lambda (x) (lambda (y) (+ x y))))
	         ((curry_add 10) 4)`
	if v := evalString(t, en, code); v != int64(14) {
		t.Fatalf("computed head: %v", v)
	}
}

func TestEval_LambdaApplication(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, "((lambda (x y) (+ x y)) 2 3)"); v != int64(5) {
		t.Fatalf("expected 5, got %v", v)
	}
	// variadic parameter list
	if v := evalString(t, en, "((lambda args (count args)) 1 2 3)"); v != int64(3) {
		t.Fatalf("expected 3, got %v", v)
	}
	// lexical capture
	code := `(define make_adder (lambda (n) (lambda (m) (+ n m))))
	         (define add3 (make_adder 3))
	         (add3 4)`
	if v := evalString(t, en, code); v != int64(7) {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestEval_IfChain(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, `(if false "a" true "b" "c")`); v != "b" {
		t.Fatalf("expected b, got %v", v)
	}
	if v := evalString(t, en, `(if false "a" false "b" "c")`); v != "c" {
		t.Fatalf("expected c, got %v", v)
	}
	if v := evalString(t, en, `(if false "a")`); v != nil {
		t.Fatalf("expected nil, got %v", v)
	}
}

func TestEval_BeginScoping(t *testing.T) {
	en := testEnv()
	// begin opens a child frame; define inside stays inside
	evalString(t, en, `(define outer_visible 1)
		(begin (define inner_only 2) inner_only)`)
	if _, ok := en.Get(Symbol("inner_only")); ok {
		t.Fatalf("begin leaked a define into the surrounding frame")
	}
	// !begin shares the frame
	evalString(t, en, `(!begin (define shared 3))`)
	if v, ok := en.Get(Symbol("shared")); !ok || v != int64(3) {
		t.Fatalf("!begin did not define into the surrounding frame: %v %v", v, ok)
	}
}

func TestEval_AndOrCoalesce(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, "(and true 1)"); v != true {
		t.Fatalf("and: %v", v)
	}
	if v := evalString(t, en, "(and true false)"); v != false {
		t.Fatalf("and: %v", v)
	}
	if v := evalString(t, en, "(or false false)"); v != false {
		t.Fatalf("or: %v", v)
	}
	if v := evalString(t, en, `(coalesce false nil "x")`); v != "x" {
		t.Fatalf("coalesce: %v", v)
	}
	if v := evalString(t, en, `(coalesceNil nil 0)`); v != int64(0) {
		t.Fatalf("coalesceNil: %v", v)
	}
}

func TestEval_NilLiteral(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, "nil"); v != nil {
		t.Fatalf("nil literal: %v", v)
	}
	if v := evalString(t, en, "(nil? nil)"); v != true {
		t.Fatalf("nil?: %v", v)
	}
	if v := digestString(t, en, "(coalesceNil nil 5)"); v != int64(5) {
		t.Fatalf("digested nil: %v", v)
	}
	// serialized nil values must read back and evaluate to nil again
	s := SerializeToString(nil, en)
	if v := evalString(t, en, s); v != nil {
		t.Fatalf("serialized nil %q evaluates to %v", s, v)
	}
}

func TestEval_ApplyHook(t *testing.T) {
	en := testEnv()
	var sawProc Scmer
	var sawArgs []Scmer
	SetApplyHook(func(procedure Scmer, args []Scmer) Scmer {
		sawProc = procedure
		sawArgs = args
		return int64(99)
	})
	defer SetApplyHook(nil)
	if v := evalString(t, en, "(+ 1 2)"); v != int64(99) {
		t.Fatalf("hook did not intercept: %v", v)
	}
	if sawProc == nil || len(sawArgs) != 2 || sawArgs[0] != int64(1) {
		t.Fatalf("hook received %v %v", sawProc, sawArgs)
	}
	// hook also fires on the cached path
	c := Read("test", "(+ 3 4)").(*Cell)
	if v := Digest(c, en); v != int64(99) {
		t.Fatalf("hook did not intercept digested call: %v", v)
	}
}

func TestEval_AssignmentThroughSymbolMacro(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, `(define x 1)
		(symbolmacro alias x (set alias 42))
		x`)
	if v != int64(42) {
		t.Fatalf("assignment did not expand the target symbol macro: %v", v)
	}
}

func TestEval_When(t *testing.T) {
	en := testEnv()
	if v := evalString(t, en, `(when true 1 2)`); v != int64(2) {
		t.Fatalf("when true: %v", v)
	}
	if v := evalString(t, en, `(when false 1 2)`); v != nil {
		t.Fatalf("when false: %v", v)
	}
}

func TestEval_TryAndError(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, `(try (lambda () (error "boom")) (lambda (e) (concat "caught " e)))`)
	if v != "caught boom" {
		t.Fatalf("try/error: %v", v)
	}
	if v := evalString(t, en, `(try (lambda () 5) (lambda (e) -1))`); v != int64(5) {
		t.Fatalf("try without error: %v", v)
	}
}

func TestTryEval_DecoratesPosition(t *testing.T) {
	en := testEnv()
	form := Read("myfile.scm", "(error \"kaput\")")
	_, err := TryEval(form, en)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got := err.Error(); len(got) < 10 || got[:10] != "myfile.scm" {
		t.Fatalf("error not decorated with position: %v", got)
	}
}

func TestEval_AssocListApplication(t *testing.T) {
	en := testEnv()
	v := evalString(t, en, `(define d '("a" 1 "b" 2)) (d "b")`)
	if v != int64(2) {
		t.Fatalf("assoc lookup: %v", v)
	}
	if v := evalString(t, en, `(d "zz")`); v != nil {
		t.Fatalf("assoc miss: %v", v)
	}
}
