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
/*
 * A minimal Scheme interpreter, as seen in lis.py and SICP
 * http://norvig.com/lispy.html
 * http://mitpress.mit.edu/sicp/full-text/sicp/book/node77.html
 *
 * Pieter Kelchtermans 2013
 * LICENSE: WTFPL 2.0
 */
package scm

import (
	"fmt"
	"strings"
	"time"

	"github.com/jtolds/gls"
)

/*
 Eval / Apply
*/

// ApplyHook intercepts every function application when installed. It receives
// the callable and the already evaluated argument list and must produce the
// result itself (usually by calling Apply). It is not rebound around nested
// calls; a hook that needs reentrancy guards manages that on its own.
type ApplyHook func(procedure Scmer, args []Scmer) Scmer

// RuntimeConfig groups the mutable dispatch slots of the evaluator: the apply
// hook, the macro expander and the rebind policy for overridable macro call
// sites. There is one process wide instance (Runtime); tests may swap the
// whole pointer. None of the slots are rebound around nested evaluations and
// none are synchronized against evaluations in flight, installing a handler
// while other threads evaluate needs external coordination.
type RuntimeConfig struct {
	ApplyHook     ApplyHook
	MacroExpander Expander
	RebindPolicy  RebindPolicy
}

var Runtime = &RuntimeConfig{RebindPolicy: RebindFirstWins}

// SetApplyHook installs or removes (nil) the global apply hook.
func SetApplyHook(h ApplyHook) {
	Runtime.ApplyHook = h
}

// Eval is the immediate strategy: execute the form right away. Forms known to
// be re-executed should go through their Cell's Run instead, which digests
// once and reuses the dispatch node; Eval transparently picks up such cached
// nodes when it meets an already digested cell.
//
// The final action for function application and special form delegation is a
// continuation of the restart loop, so object language tail recursion does not
// grow the Go stack. Instrumentation belongs on TryEval or the apply hook,
// never inside this loop.
func Eval(expression Scmer, en *Env) (value Scmer) {
restart:
	switch v := expression.(type) {
	case *Cell:
		if n := v.loadNode(); n != nil {
			return runNode(n, en)
		}
		expression = v.Form
		goto restart
	case Symbol:
		b, kind, _, typ := Resolve(en, v)
		if b == nil {
			panic(UnboundError{v})
		}
		if kind == BindMacro {
			expression = expandSymbolMacro(b, v, en)
			goto restart
		}
		value = readBindingRaw(b)
		assertType(v, value, typ)
		return value
	case NthLocalVar:
		return en.Numbered[v]
	case digestedBody:
		return runNode(v.n, en)
	case []Scmer:
		list := v
		if len(list) == 0 {
			return expression
		}
		switch head := unwrap(list[0]).(type) {
		case Symbol:
			if op, ok := specialOps[head]; ok {
				value, tail, tailEn := op.Immediate(en, list)
				if tailEn != nil {
					expression, en = tail, tailEn
					goto restart
				}
				return value
			}
			if def := lookupMacro(en, head); def != nil {
				expression, _ = expandMacro(def, list, en)
				goto restart
			}
			b, kind, _, typ := Resolve(en, head)
			if b == nil {
				panic(UnboundError{head})
			}
			if kind == BindMacro {
				// symbol macro in operator position: substitute the head
				list2 := make([]Scmer, len(list))
				copy(list2, list)
				list2[0] = expandSymbolMacro(b, head, en)
				expression = list2
				goto restart
			}
			procedure := readBindingRaw(b)
			assertType(head, procedure, typ)
			args := evalArgs(list[1:], en)
			if h := Runtime.ApplyHook; h != nil {
				return h(procedure, args)
			}
			if p, ok := procedure.(Proc); ok {
				en, expression = prepareProcCallWithArgs(&p, args)
				goto restart
			}
			if p, ok := procedure.(*Proc); ok {
				en, expression = prepareProcCallWithArgs(p, args)
				goto restart
			}
			return applyNonProc(procedure, args, en, list[0])
		case []Scmer:
			// computed head: evaluate the operator expression itself
			procedure := Eval(list[0], en)
			args := evalArgs(list[1:], en)
			if h := Runtime.ApplyHook; h != nil {
				return h(procedure, args)
			}
			if p, ok := procedure.(Proc); ok {
				en, expression = prepareProcCallWithArgs(&p, args)
				goto restart
			}
			if p, ok := procedure.(*Proc); ok {
				en, expression = prepareProcCallWithArgs(p, args)
				goto restart
			}
			return applyNonProc(procedure, args, en, list[0])
		default:
			panic(InvalidOperatorError{Form: expression})
		}
	default:
		return expression // self-evaluating atom
	}
}

// readBindingRaw dereferences without the type assertion; Eval asserts itself
// so the error can carry the offending form
func readBindingRaw(b *Binding) Scmer {
	if b.Kind == BindForeign {
		return apply(b.Value)
	}
	return b.Value
}

func evalArgs(operands []Scmer, en *Env) []Scmer {
	args := make([]Scmer, len(operands))
	for i, x := range operands {
		args[i] = Eval(x, en)
	}
	return args
}

// applyNonProc applies natives, assoc lists and grammar objects; Procs are
// handled by the callers so their bodies stay inside the restart loop.
func applyNonProc(procedure Scmer, args []Scmer, en *Env, headForm Scmer) Scmer {
	countApply()
	switch p := procedure.(type) {
	case func(...Scmer) Scmer:
		return p(args...)
	case func(*Env, ...Scmer) Scmer:
		return p(en, args...)
	case []Scmer:
		// associative list: (assoc key) looks up the value
		if len(args) == 0 {
			return nil
		}
		i := 0
		for i < len(p)-1 {
			if Equal(args[0], p[i]) {
				return p[i+1]
			}
			i += 2
		}
		if i < len(p) {
			return p[i]
		}
		return nil
	case *ScmParser:
		if len(args) == 0 {
			return nil
		}
		return p.Execute(String(args[0]), en)
	}
	panic("unknown function: " + String(headForm))
}

// TryEval is the recovering entry point: evaluation errors come back as error
// values instead of panics, decorated with the source position when the form
// carries one.
func TryEval(expression Scmer, en *Env) (value Scmer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverToError(r)
			if c, ok := expression.(*Cell); ok && c.Source != "" {
				err = fmt.Errorf("%s: %w", c.Position(), err)
			}
		}
	}()
	return Eval(expression, en), nil
}

func prepareProcCallWithArgs(p *Proc, args []Scmer) (*Env, Scmer) {
	if p == nil {
		panic("apply: nil procedure")
	}
	env := &Env{Vars: make(Vars), Outer: p.En, Nodefine: false}
	if p.NumVars > 0 {
		env.Numbered = make([]Scmer, p.NumVars)
	}
	switch params := unwrap(p.Params).(type) {
	case []Scmer:
		if p.NumVars > 0 {
			for i := range params {
				if i < len(args) {
					env.Numbered[i] = args[i]
				}
			}
		} else {
			for i, param := range params {
				sym, typ := paramSymbol(param)
				if sym == "_" {
					continue
				}
				b := &Binding{Kind: BindValue, Type: typ}
				if i < len(args) {
					b.Value = args[i]
				}
				env.Vars[sym] = b
			}
		}
	case Symbol:
		if p.NumVars > 0 {
			env.Numbered[0] = args
		} else {
			env.Vars[params] = &Binding{Kind: BindValue, Value: args}
		}
	case nil:
		// no arguments to bind
	default:
		panic("proc parameters must be list, symbol, or nil")
	}
	if p.bodyNode != nil {
		return env, digestedBody{p.bodyNode}
	}
	return env, p.Body
}

// digestedBody routes a digested lambda body through the trampoline when the
// immediate strategy applies the procedure
type digestedBody struct{ n node }

// paramSymbol splits a parameter form: either name or (name "type")
func paramSymbol(param Scmer) (Symbol, string) {
	switch p := unwrap(param).(type) {
	case Symbol:
		return p, ""
	case []Scmer:
		if len(p) == 2 {
			return mustSymbol(p[0]), String(p[1])
		}
	}
	panic("invalid parameter declaration: " + String(param))
}

// helper function; Eval uses a code duplicate to get the tail recursion done right
func Apply(procedure Scmer, args ...Scmer) (value Scmer) {
	return ApplyEx(procedure, args, &Globalenv)
}

func apply(procedure Scmer, args ...Scmer) Scmer {
	return ApplyEx(procedure, args, &Globalenv)
}

func applyEx(procedure Scmer, args []Scmer, en *Env) Scmer {
	return ApplyEx(procedure, args, en)
}

func ApplyEx(procedure Scmer, args []Scmer, en *Env) (value Scmer) {
	switch p := procedure.(type) {
	case Proc:
		env, body := prepareProcCallWithArgs(&p, args)
		return Eval(body, env)
	case *Proc:
		env, body := prepareProcCallWithArgs(p, args)
		return Eval(body, env)
	}
	return applyNonProc(procedure, args, en, procedure)
}

/*
 Special forms: immediate handlers

 Each handler implements the one-shot semantics; the matching digestion
 handlers live in digest.go. Handlers return (value, tail, tailEnv); a non-nil
 tailEnv makes Eval continue with the tail form instead of recursing.
*/

func immQuote(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	return stripCells(list[1]), nil, nil
}

func immEval(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	return nil, Eval(list[1], en), en
}

func immOuter(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	if en.Outer == nil {
		panic("outer: already at the outermost scope")
	}
	return nil, list[1], en.Outer
}

func immIf(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	i := 1
	for i+1 < len(list) {
		if ToBool(Eval(list[i], en)) {
			return nil, list[i+1], en
		}
		i += 2
	}
	if i < len(list) {
		return nil, list[i], en
	}
	return nil, nil, nil
}

func immAnd(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	for idx, x := range list {
		if idx > 0 && !ToBool(Eval(x, en)) {
			return false, nil, nil
		}
	}
	return true, nil, nil
}

func immOr(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	for idx, x := range list {
		if idx > 0 && ToBool(Eval(x, en)) {
			return true, nil, nil
		}
	}
	return false, nil, nil
}

func immCoalesce(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	for i := 1; i < len(list); i++ {
		v := Eval(list[i], en)
		if i == len(list)-1 || ToBool(v) {
			return v, nil, nil
		}
	}
	return nil, nil, nil
}

func immCoalesceNil(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	for i := 1; i < len(list); i++ {
		v := Eval(list[i], en)
		if v != nil {
			return v, nil, nil
		}
	}
	return nil, nil, nil
}

func immBegin(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	if len(list) == 1 {
		return nil, nil, nil
	}
	en2 := &Env{Vars: make(Vars), Numbered: en.Numbered, Outer: en, Nodefine: false}
	for _, form := range list[1 : len(list)-1] {
		Eval(form, en2)
	}
	return nil, list[len(list)-1], en2
}

func immBeginSameScope(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	if len(list) == 1 {
		return nil, nil, nil
	}
	for _, form := range list[1 : len(list)-1] {
		Eval(form, en)
	}
	return nil, list[len(list)-1], en
}

// immAssign covers define and set. Assignment has its own protocol because a
// symbol macro in target position must be expanded before the write.
func immAssign(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	val := Eval(list[2], en)
	assignTo(en, list[1], val)
	return val, nil, nil
}

func assignTo(en *Env, target Scmer, val Scmer) {
	switch t := unwrap(target).(type) {
	case Symbol:
		b, kind, frame, _ := Resolve(en, t)
		if b != nil && kind == BindMacro {
			assignTo(en, expandSymbolMacro(b, t, en), val)
			return
		}
		if b != nil && kind == BindForeign {
			// writes to store resident bindings go through the setter
			writeBinding(b, val)
			return
		}
		if b != nil && frame != nil && !frameAcceptsDefine(en, frame) {
			// binding lives outside the define chain: mutate in place
			writeBinding(b, val)
			return
		}
		if b != nil && frame == nil {
			// store resident (foreign) binding
			writeBinding(b, val)
			return
		}
		en.Define(t, val)
	case NthLocalVar:
		en.Numbered[t] = val
	default:
		panic("cannot assign to " + String(target))
	}
}

// frameAcceptsDefine tells whether frame is within the chain a define from en
// would target
func frameAcceptsDefine(en *Env, frame *Env) bool {
	target := en
	for target != nil && target.Nodefine {
		target = target.Outer
	}
	return target == frame
}

func immSetN(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	val := Eval(list[2], en)
	idx, ok := unwrap(list[1]).(NthLocalVar)
	if !ok {
		panic("setN expects a numbered local variable")
	}
	en.Numbered[idx] = val
	return val, nil, nil
}

func immLambda(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	params := unwrap(list[1])
	numVars := 0
	if len(list) > 3 {
		numVars = ToInt(list[3])
	}
	return Proc{Params: params, Body: list[2], En: en, NumVars: numVars}, nil, nil
}

// (macrolet ((name (params) body)...) form) binds frame local macros
func immMacrolet(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	en2 := &Env{Vars: make(Vars), Numbered: en.Numbered, Outer: en, Nodefine: true}
	for _, defForm := range asSlice(list[1], "macrolet") {
		d := asSlice(defForm, "macrolet definition")
		if len(d) != 3 {
			panic("macrolet definition must be (name (params) body)")
		}
		name := mustSymbol(d[0])
		rule := Proc{Params: unwrap(d[1]), Body: d[2], En: en}
		en2.Vars[name] = &Binding{Kind: BindMacro, Expansion: &MacroDef{Name: name, Rule: rule, Overridable: false}}
	}
	return nil, list[2], en2
}

// (symbolmacro name expansion form) binds a frame local symbol macro
func immSymbolMacro(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	en2 := &Env{Vars: make(Vars), Numbered: en.Numbered, Outer: en, Nodefine: true}
	en2.Vars[mustSymbol(list[1])] = &Binding{Kind: BindMacro, Expansion: stripCells(list[2])}
	return nil, list[3], en2
}

// (defmacro name (params) body [overridable]) registers a global macro
func immDefmacro(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	name := mustSymbol(list[1])
	rule := Proc{Params: unwrap(list[2]), Body: list[3], En: en}
	overridable := true
	if len(list) > 4 {
		overridable = ToBool(Eval(list[4], en))
	}
	DeclareMacro(name, rule, overridable)
	return name, nil, nil
}

// (declare name "type") attaches a declared type to a binding; the type is
// asserted on every subsequent read of the binding
func immDeclareType(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	name := mustSymbol(list[1])
	typ := String(Eval(list[2], en))
	b, _, frame, _ := Resolve(en, name)
	if b == nil {
		b = en.Define(name, nil)
		b.Value = nil
	}
	b.Type = typ
	if frame == nil {
		DeclareInfo(name, b)
	}
	return name, nil, nil
}

func immMatch(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	val := Eval(list[1], en)
	i := 2
	en2 := &Env{Vars: make(Vars), Numbered: en.Numbered, Outer: en, Nodefine: true}
	for i < len(list)-1 {
		if match(val, list[i], en2) {
			return nil, list[i+1], en2
		}
		i += 2
	}
	if i < len(list) {
		return nil, list[i], en
	}
	return nil, nil, nil
}

func immParallel(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	// execute all childs parallely, return nil after finish
	childExprs := list[1:]
	if len(childExprs) == 0 {
		return nil, nil, nil
	}
	errs := make(chan any, len(childExprs))
	for _, expr := range childExprs {
		gls.Go(func(e Scmer) func() {
			return func() {
				defer func() {
					if r := recover(); r != nil {
						errs <- r
					} else {
						errs <- nil
					}
				}()
				Eval(e, en)
			}
		}(expr))
	}
	for range childExprs {
		if err := <-errs; err != nil {
			panic(err)
		}
	}
	return nil, nil, nil
}

func immTime(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	var start time.Time
	if TracePrint {
		start = time.Now()
	}
	var timedResult Scmer
	if Trace != nil {
		label := "(time)"
		if len(list) > 2 {
			label = String(Eval(list[2], en))
		}
		Trace.Duration(label, "scm", func() {
			timedResult = Eval(list[1], en)
		})
	} else {
		timedResult = Eval(list[1], en)
	}
	if TracePrint {
		d := time.Since(start).String()
		if len(list) > 2 {
			fmt.Println("trace", d, String(Eval(list[2], en)))
		} else {
			fmt.Println("trace", d)
		}
	}
	return timedResult, nil, nil
}

/*
 Environments
*/

var Globalenv Env

func init() {
	Globalenv = Env{
		Vars{ //aka an incomplete set of compiled-in values
			Symbol("true"):  &Binding{Kind: BindDynamic, Value: true},
			Symbol("false"): &Binding{Kind: BindDynamic, Value: false},
			Symbol("nil"):   &Binding{Kind: BindDynamic, Value: nil},

			// basic
			Symbol("list"): &Binding{Kind: BindDynamic, Value: List},
		},
		nil,
		nil,
		false,
	}

	// system
	DeclareTitle("SCM Builtins")
	Declare(&Globalenv, &Declaration{
		"quote", "returns a symbol or list without evaluating it",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"symbol", "symbol", "symbol to quote"},
		}, "symbol", nil,
		&SpecialForm{Immediate: immQuote, Digest: digQuote}, true,
	})
	Declare(&Globalenv, &Declaration{
		"eval", "executes the given scheme program in the current environment",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"code", "list", "list with head and optional parameters"},
		}, "any", nil,
		&SpecialForm{Immediate: immEval}, false,
	})
	Declare(&Globalenv, &Declaration{
		"outer", "evaluates code in the parent scope",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"code", "any", "code to evaluate"},
		}, "any", nil,
		&SpecialForm{Immediate: immOuter}, false,
	})
	Declare(&Globalenv, &Declaration{
		"if", "checks a condition and then conditionally evaluates code branches; there might be multiple condition+true-branch clauses",
		2, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"condition...", "any", "condition to evaluate"},
			DeclarationParameter{"true-branch...", "returntype", "code to evaluate if condition is true"},
			DeclarationParameter{"false-branch", "any", "code to evaluate if condition is false"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immIf, Digest: digIf}, true,
	})
	Declare(&Globalenv, &Declaration{
		"and", "returns true if all conditions evaluate to true",
		1, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"condition", "bool", "condition to evaluate"},
		}, "bool", nil,
		&SpecialForm{Immediate: immAnd, Digest: digAnd}, true,
	})
	Declare(&Globalenv, &Declaration{
		"or", "returns true if at least one condition evaluates to true",
		1, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"condition", "any", "condition to evaluate"},
		}, "bool", nil,
		&SpecialForm{Immediate: immOr, Digest: digOr}, true,
	})
	Declare(&Globalenv, &Declaration{
		"coalesce", "returns the first value that has a non-zero value",
		1, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"value", "returntype", "value to examine"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immCoalesce}, true,
	})
	Declare(&Globalenv, &Declaration{
		"coalesceNil", "returns the first value that has a non-nil value",
		1, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"value", "returntype", "value to examine"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immCoalesceNil}, true,
	})
	Declare(&Globalenv, &Declaration{
		"define", "defines or sets a variable in the current environment",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"variable", "symbol", "variable to set"},
			DeclarationParameter{"value", "returntype", "value to set the variable to"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immAssign, Digest: digAssign}, false,
	})
	Declare(&Globalenv, &Declaration{
		"set", "defines or sets a variable in the current environment",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"variable", "symbol", "variable to set"},
			DeclarationParameter{"value", "returntype", "value to set the variable to"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immAssign, Digest: digAssign}, false,
	})
	Declare(&Globalenv, &Declaration{
		"setN", "sets a numbered local variable",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"variable", "any", "numbered variable to set"},
			DeclarationParameter{"value", "returntype", "value to set the variable to"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immSetN}, false,
	})
	Declare(&Globalenv, &Declaration{
		"lambda", "returns a function (func) constructed from the given code",
		2, 3,
		[]DeclarationParameter{
			DeclarationParameter{"parameters", "symbol|list|nil", "if you provide a parameter list, you will have named parameters. If you provide a single symbol, the list of parameters will be provided in that symbol"},
			DeclarationParameter{"code", "any", "value that is evaluated when the lambda is called. code can use the parameters provided in the declaration as well es the scope above"},
			DeclarationParameter{"numvars", "number", "number of unnamed variables that can be accessed via (var 0) (var 1) etc."},
		}, "func", nil,
		&SpecialForm{Immediate: immLambda, Digest: digLambda}, false,
	})
	Declare(&Globalenv, &Declaration{
		"begin", "creates a own variable scope, evaluates all sub expressions and returns the result of the last one",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"expression...", "any", "expressions to evaluate"},
		}, "any", nil,
		&SpecialForm{Immediate: immBegin, Digest: digBegin}, false,
	})
	Declare(&Globalenv, &Declaration{
		"!begin", "evaluates all sub expressions in the current scope and returns the result of the last one",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"expression...", "any", "expressions to evaluate"},
		}, "any", nil,
		&SpecialForm{Immediate: immBeginSameScope, Digest: digBeginSameScope}, false,
	})
	Declare(&Globalenv, &Declaration{
		"macrolet", "binds local macros for the duration of the body form",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"definitions", "list", "list of (name (params) body) definitions"},
			DeclarationParameter{"body", "returntype", "form evaluated with the macros in scope"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immMacrolet}, false,
	})
	Declare(&Globalenv, &Declaration{
		"symbolmacro", "binds a local symbol macro: every read of the symbol evaluates the expansion form",
		3, 3,
		[]DeclarationParameter{
			DeclarationParameter{"symbol", "symbol", "symbol to bind"},
			DeclarationParameter{"expansion", "any", "replacement form"},
			DeclarationParameter{"body", "returntype", "form evaluated with the symbol macro in scope"},
		}, "returntype", nil,
		&SpecialForm{Immediate: immSymbolMacro}, false,
	})
	Declare(&Globalenv, &Declaration{
		"defmacro", "registers a global macro; overridable macros may be redefined at runtime which makes their call sites subject to the rebind policy",
		3, 4,
		[]DeclarationParameter{
			DeclarationParameter{"name", "symbol", "macro name"},
			DeclarationParameter{"parameters", "symbol|list|nil", "parameter declaration like in lambda"},
			DeclarationParameter{"body", "any", "body producing the expansion form"},
			DeclarationParameter{"overridable", "bool", "whether the macro may be redefined later (default true)"},
		}, "symbol", nil,
		&SpecialForm{Immediate: immDefmacro}, false,
	})
	Declare(&Globalenv, &Declaration{
		"declare", "attaches a declared type to a variable; every read asserts it",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"variable", "symbol", "variable to declare"},
			DeclarationParameter{"type", "string", "type according to the declaration type system"},
		}, "symbol", nil,
		&SpecialForm{Immediate: immDeclareType}, false,
	})
	Declare(&Globalenv, &Declaration{
		"match", `takes a value evaluates the branch that first matches the given pattern
Patterns can be any of:
 - symbol matches any value and stores is into a variable
 - "string" (matches only this string)
 - number (matches only this value)
 - (symbol "something") will only match the symbol 'something'
 - '(subpattern subpattern...) matches a list with exactly these subpatterns
 - (concat str1 str2 str3) will decompose a string into one of the following patterns: "prefix" variable, variable "postfix", variable "infix" variable
 - (cons a b) will reverse the cons function, so it will match the head of the list with a and the rest with b
 - (regex "pattern" text var1 var2...) will match the given regex pattern, store the whole string into text and all capture groups into var1, var2...
`,
		3, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "value to evaluate"},
			DeclarationParameter{"pattern...", "any", "pattern"},
			DeclarationParameter{"result...", "returntype", "result value when the pattern matches; this code can use the variables matched in the pattern"},
			DeclarationParameter{"default", "any", "(optional) value that is returned when no pattern matches"},
		}, "any", nil,
		&SpecialForm{Immediate: immMatch}, true,
	})
	Declare(&Globalenv, &Declaration{
		"parallel", "executes all parameters in parallel and returns nil if they are finished",
		1, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"expression...", "any", "expressions to evaluate in parallel"},
		}, "any", nil,
		&SpecialForm{Immediate: immParallel}, false,
	})
	Declare(&Globalenv, &Declaration{
		"time", "measures the time it takes to compute the first argument",
		1, 2,
		[]DeclarationParameter{
			DeclarationParameter{"code", "any", "code to execute"},
			DeclarationParameter{"label", "string", "label to print in the log or trace"},
		}, "any", nil,
		&SpecialForm{Immediate: immTime}, false,
	})
	Declare(&Globalenv, &Declaration{
		"when", "evaluates the body if the condition holds; expands to (if condition (begin body...))",
		2, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"condition", "any", "condition to evaluate"},
			DeclarationParameter{"body...", "any", "forms evaluated when the condition holds"},
		}, "any", nil,
		// digestion declines on purpose: the when macro below takes over
		&SpecialForm{Immediate: immWhen, Digest: digDecline}, false,
	})
	DeclareMacro("when", func(a ...Scmer) Scmer {
		body := make([]Scmer, 0, len(a))
		body = append(body, Symbol("begin"))
		body = append(body, a[1:]...)
		return []Scmer{Symbol("if"), a[0], body}
	}, false)
	Declare(&Globalenv, &Declaration{
		"error", "halts the whole execution thread and throws an error message",
		1, 1000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "value or message to throw"},
		}, "string",
		func(a ...Scmer) Scmer {
			if len(a) == 1 {
				panic(a[0])
			} else {
				var b strings.Builder
				for _, v := range a {
					b.WriteString(String(v))
				}
				panic(b.String())
			}
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"try", "tries to execute a function and returns its result. In case of a failure, the error is fed to the second function and its result value will be used",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"func", "func", "function with no parameters that will be called"},
			DeclarationParameter{"errorhandler", "func", "function that takes the error as parameter"},
		}, "any",
		func(a ...Scmer) (result Scmer) {
			defer func() {
				err := recover()
				if err != nil {
					result = Apply(a[1], FromAny(err))
				}
			}()
			result = Apply(a[0])
			return
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"apply", "runs the function with its arguments",
		2, 2,
		[]DeclarationParameter{
			DeclarationParameter{"function", "func", "function to execute"},
			DeclarationParameter{"arguments", "list", "list of arguments to apply"},
		}, "any",
		func(a ...Scmer) Scmer {
			return Apply(a[0], asSlice(a[1], "apply")...)
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"symbol", "returns a symbol built from that string",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "string", "string value that will be converted into a symbol"},
		}, "symbol",
		func(a ...Scmer) Scmer {
			return Symbol(String(a[0]))
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"string", "converts the given value into string",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"value", "any", "any value"},
		}, "string",
		func(a ...Scmer) Scmer {
			return String(a[0])
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"list", "returns a list containing the parameters as alements",
		0, 10000,
		[]DeclarationParameter{
			DeclarationParameter{"value...", "any", "value for the list"},
		}, "list",
		nil, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"scheme", "parses a scheme expression into a list",
		1, 2,
		[]DeclarationParameter{
			DeclarationParameter{"code", "string", "Scheme code"},
			DeclarationParameter{"filename", "string", "optional filename"},
		}, "any",
		func(a ...Scmer) Scmer {
			filename := "eval"
			if len(a) > 1 {
				filename = String(a[1])
			}
			return Read(filename, String(a[0]))
		}, nil, true,
	})
	Declare(&Globalenv, &Declaration{
		"serialize", "serializes a piece of code into a (hopefully) reparsable string; you shall be able to send that code over network and reparse with (scheme)",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"code", "list", "Scheme code"},
		}, "string",
		func(a ...Scmer) Scmer {
			return SerializeToString(a[0], &Globalenv)
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"digest", "digests a piece of code against the global environment and runs it; repeated calls on the same wrapper reuse the dispatch node",
		1, 1,
		[]DeclarationParameter{
			DeclarationParameter{"code", "any", "code to digest and run"},
		}, "any",
		func(a ...Scmer) Scmer {
			c, ok := a[0].(*Cell)
			if !ok {
				c = NewCell(a[0], "", 0, 0)
			}
			return Digest(c, &Globalenv)
		}, nil, false,
	})
	Declare(&Globalenv, &Declaration{
		"for", "Sequential loop over a list state; applies a condition and step function and returns the final state list.\nUse only when iterations have strong data dependencies and must run sequentially.\n\nExamples:\n- Count to 10: (for '(0) (lambda (x) (< x 10)) (lambda (x) (list (+ x 1))))  => '(10)\n- Sum 0..9:   (for '(0 0) (lambda (x sum) (< x 10)) (lambda (x sum) (list (+ x 1) (+ sum x)))) => '(10 45)",
		3, 3,
		[]DeclarationParameter{
			DeclarationParameter{"init", "list", "initial state as a list"},
			DeclarationParameter{"condition", "func", "func that receives the current state as parameters and must return true if the loop shall be continued"},
			DeclarationParameter{"step", "func", "step func that returns the next state as a list"},
		}, "list",
		func(a ...Scmer) Scmer {
			state := append([]Scmer{}, asSlice(a[0], "for init")...)
			for ToBool(Apply(a[1], state...)) {
				v := Apply(a[2], state...)
				if v == nil {
					state = []Scmer{}
					continue
				}
				state = append([]Scmer{}, asSlice(v, "for step")...)
			}
			return state
		}, nil, true,
	})

	init_alu()
	init_strings()
	init_streams()
	init_list()
	init_sortedmap()
	init_sync()
	init_scheduler()
	init_parser()
	init_metrics()
}

func immWhen(en *Env, list []Scmer) (Scmer, Scmer, *Env) {
	if !ToBool(Eval(list[1], en)) {
		return nil, nil, nil
	}
	body := make([]Scmer, 0, len(list))
	body = append(body, Symbol("!begin"))
	body = append(body, list[2:]...)
	return nil, body, en
}

// digDecline is the digestion handler of operators that fall back to their
// macro definition when digested
func digDecline(d *digester, list []Scmer) (node, bool) {
	return nil, false
}
