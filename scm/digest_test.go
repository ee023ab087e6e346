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
	"sync/atomic"
	"testing"
)

func TestDigest_CacheReuse(t *testing.T) {
	en := testEnv()
	evalString(t, en, "(define base 10)")
	c := Read("test", "(+ base 32)").(*Cell)
	before := atomic.LoadInt64(&totalDigestions)
	for i := 0; i < 3; i++ {
		if v := Digest(c, en); v != int64(42) {
			t.Fatalf("iteration %d: expected 42, got %v", i, v)
		}
	}
	if got := atomic.LoadInt64(&totalDigestions) - before; got != 1 {
		t.Fatalf("expected exactly 1 digestion over 3 runs, got %d", got)
	}
}

func TestDigest_SeesBindingMutation(t *testing.T) {
	en := testEnv()
	evalString(t, en, "(define base 10)")
	c := Read("test", "(+ base 1)").(*Cell)
	if v := Digest(c, en); v != int64(11) {
		t.Fatalf("first run: %v", v)
	}
	// the node reads through the captured binding, not a copied value
	evalString(t, en, "(set base 20)")
	if v := Digest(c, en); v != int64(21) {
		t.Fatalf("after mutation: %v", v)
	}
}

func TestDigest_EquivalentToImmediate(t *testing.T) {
	codes := []string{
		"(+ 1 2)",
		`(if (< 1 2) "yes" "no")`,
		"(begin (define a 1) (define b 2) (+ a b))",
		"((lambda (x y) (* x y)) 6 7)",
		`(and true (or false true))`,
		`(when (< 1 2) "taken")`,
		`(match 42 42 "num" "other")`,
	}
	for _, code := range codes {
		a := evalString(t, testEnv(), code)
		b := digestString(t, testEnv(), code)
		if !Equal(a, b) {
			t.Fatalf("%s: immediate %v != digested %v", code, a, b)
		}
	}
}

func TestDigest_FixedExpansionHappensOnce(t *testing.T) {
	DeclareMacro("dbl_fixed_test", func(a ...Scmer) Scmer {
		return []Scmer{Symbol("*"), a[0], int64(2)}
	}, false)
	calls := 0
	SetMacroExpander(func(def *MacroDef, form []Scmer, en *Env) Scmer {
		calls++
		return Apply(def.Rule, form[1:]...)
	})
	defer SetMacroExpander(nil)
	en := testEnv()
	c := Read("test", "(dbl_fixed_test 21)").(*Cell)
	for i := 0; i < 4; i++ {
		if v := Digest(c, en); v != int64(42) {
			t.Fatalf("iteration %d: expected 42, got %v", i, v)
		}
	}
	if calls != 1 {
		t.Fatalf("fixed expansion ran %d times, want 1", calls)
	}
}

func TestDigest_FirstWinsKeepsOldExpansion(t *testing.T) {
	save := Runtime.RebindPolicy
	Runtime.RebindPolicy = RebindFirstWins
	defer func() { Runtime.RebindPolicy = save }()

	DeclareMacro("fw_test_macro", func(a ...Scmer) Scmer { return int64(1) }, true)
	en := testEnv()
	c := Read("test", "(fw_test_macro)").(*Cell)
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("first digestion: %v", v)
	}
	DeclareMacro("fw_test_macro", func(a ...Scmer) Scmer { return int64(2) }, true)
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("FirstWins call site picked up the redefinition: %v", v)
	}
	// a fresh call site sees the new rule
	c2 := Read("test", "(fw_test_macro)").(*Cell)
	if v := Digest(c2, en); v != int64(2) {
		t.Fatalf("fresh call site: %v", v)
	}
}

func TestDigest_InvalidateRedigests(t *testing.T) {
	DeclareMacro("inv_test_macro", func(a ...Scmer) Scmer { return int64(1) }, true)
	en := testEnv()
	c := Read("test", "(inv_test_macro)").(*Cell)
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("first digestion: %v", v)
	}
	DeclareMacro("inv_test_macro", func(a ...Scmer) Scmer { return int64(2) }, true)
	c.Invalidate()
	if v := Digest(c, en); v != int64(2) {
		t.Fatalf("invalidation did not pick up the redefinition: %v", v)
	}
}

func TestDigest_AlwaysReexpandPerCallSite(t *testing.T) {
	DeclareMacro("are_test_macro", func(a ...Scmer) Scmer { return int64(1) }, true)
	en := testEnv()
	c := Read("test", "(are_test_macro)").(*Cell)
	c.Policy = RebindAlwaysReexpand
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("first run: %v", v)
	}
	DeclareMacro("are_test_macro", func(a ...Scmer) Scmer { return int64(2) }, true)
	if v := Digest(c, en); v != int64(2) {
		t.Fatalf("AlwaysReexpand call site kept the stale expansion: %v", v)
	}
}

func TestDigest_AlwaysReexpandGlobalPolicy(t *testing.T) {
	save := Runtime.RebindPolicy
	Runtime.RebindPolicy = RebindAlwaysReexpand
	defer func() { Runtime.RebindPolicy = save }()

	DeclareMacro("arg_test_macro", func(a ...Scmer) Scmer { return int64(10) }, true)
	en := testEnv()
	c := Read("test", "(+ (arg_test_macro) 1)").(*Cell)
	if v := Digest(c, en); v != int64(11) {
		t.Fatalf("first run: %v", v)
	}
	DeclareMacro("arg_test_macro", func(a ...Scmer) Scmer { return int64(20) }, true)
	if v := Digest(c, en); v != int64(21) {
		t.Fatalf("global AlwaysReexpand not honored: %v", v)
	}
}

func TestDigest_FixedIgnoresPolicy(t *testing.T) {
	// non-overridable rules are baked in even under AlwaysReexpand
	save := Runtime.RebindPolicy
	Runtime.RebindPolicy = RebindAlwaysReexpand
	defer func() { Runtime.RebindPolicy = save }()

	DeclareMacro("fixed_policy_test", func(a ...Scmer) Scmer { return int64(1) }, false)
	en := testEnv()
	c := Read("test", "(fixed_policy_test)").(*Cell)
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("first run: %v", v)
	}
	DeclareMacro("fixed_policy_test", func(a ...Scmer) Scmer { return int64(2) }, false)
	if v := Digest(c, en); v != int64(1) {
		t.Fatalf("fixed expansion was rebound: %v", v)
	}
}

func TestDigest_DeclineWithoutMacroIsProtocolError(t *testing.T) {
	RegisterSpecial("decline_orphan_test",
		func(en *Env, list []Scmer) (Scmer, Scmer, *Env) { return int64(7), nil, nil },
		digDecline)
	en := testEnv()
	// the immediate strategy still works
	if v := evalString(t, en, "(decline_orphan_test)"); v != int64(7) {
		t.Fatalf("immediate path: %v", v)
	}
	c := Read("test", "(decline_orphan_test)").(*Cell)
	r := mustPanic(t, func() { Digest(c, en) })
	pe, ok := r.(ProtocolError)
	if !ok {
		t.Fatalf("expected ProtocolError, got %T %v", r, r)
	}
	if pe.Op != "decline_orphan_test" {
		t.Fatalf("ProtocolError names wrong operator: %v", pe.Op)
	}
}

func TestDigest_DeclineFallsBackToMacro(t *testing.T) {
	// when declines digestion and is macro-backed
	en := testEnv()
	if v := digestString(t, en, `(when (< 1 2) "a" "b")`); v != "b" {
		t.Fatalf("when digested: %v", v)
	}
	if v := digestString(t, en, `(when false "a")`); v != nil && v != false {
		t.Fatalf("when false digested: %v", v)
	}
}

func TestDigest_PartialFailureInstallsNothing(t *testing.T) {
	en := testEnv()
	c := Read("test", "(42 (+ 1 2))").(*Cell)
	// a literal head is rejected during digestion; the cell must stay empty
	func() {
		defer func() { recover() }()
		Digest(c, en)
		t.Fatalf("expected digestion to panic")
	}()
	if c.loadNode() != nil {
		t.Fatalf("failed digestion left a node on the cell")
	}
}

func TestDigest_LambdaSlots(t *testing.T) {
	en := testEnv()
	// plain parameter lists compile to numbered slots
	v := digestString(t, en, "(define slot_f (lambda (a b) (+ a b))) (slot_f 40 2)")
	if v != int64(42) {
		t.Fatalf("numbered lambda: %v", v)
	}
	p, ok := unwrap(evalString(t, en, "slot_f")).(*Proc)
	if !ok {
		t.Fatalf("digested lambda should be a *Proc, got %T", evalString(t, en, "slot_f"))
	}
	if p.NumVars != 2 {
		t.Fatalf("expected 2 numbered slots, got %d", p.NumVars)
	}
	if p.bodyNode == nil {
		t.Fatalf("digested lambda has no body node")
	}
	// nested lambdas address the right frame
	code := `(define outer_l (lambda (x) (lambda (y) (- x y))))
	         ((outer_l 10) 4)`
	if v := digestString(t, en, code); v != int64(6) {
		t.Fatalf("nested slots: %v", v)
	}
}

func TestDigest_SlotAssignment(t *testing.T) {
	en := testEnv()
	code := `(define bump (lambda (x) (begin (set x (+ x 1)) x)))
	         (bump 41)`
	if v := digestString(t, en, code); v != int64(42) {
		t.Fatalf("slot write: %v", v)
	}
}

func TestDigest_LateBoundDefines(t *testing.T) {
	// a name assigned inside the digested form must not be captured against
	// an older global binding
	en := testEnv()
	evalString(t, en, "(define lb_x 1)")
	code := `(begin (define lb_x 100) (+ lb_x 1))`
	if v := digestString(t, en, code); v != int64(101) {
		t.Fatalf("late bound define: %v", v)
	}
}

func TestDigest_TypedParamsKeepAssertion(t *testing.T) {
	en := testEnv()
	evalString(t, en, `(define typed_f (lambda ((x "number")) (+ x 1)))`)
	c := Read("test", `(typed_f "oops")`).(*Cell)
	r := mustPanic(t, func() { Digest(c, en) })
	if _, ok := r.(TypeError); !ok {
		t.Fatalf("expected TypeError, got %T %v", r, r)
	}
	c2 := Read("test", "(typed_f 41)").(*Cell)
	if v := Digest(c2, en); v != int64(42) {
		t.Fatalf("typed call: %v", v)
	}
}

func TestDigest_QuoteStripsCells(t *testing.T) {
	en := testEnv()
	v := digestString(t, en, "(quote (a (b c)))")
	l, ok := v.([]Scmer)
	if !ok || len(l) != 2 {
		t.Fatalf("quote result: %v", v)
	}
	if _, isCell := l[1].(*Cell); isCell {
		t.Fatalf("quoted data still contains form wrappers")
	}
	inner, ok := l[1].([]Scmer)
	if !ok || inner[0] != Symbol("b") {
		t.Fatalf("inner quoted list: %v", l[1])
	}
}
