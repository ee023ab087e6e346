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

import "fmt"

/*
 Form digestion: the cached evaluation strategy.

 Digesting a form compiles it into a graph of dispatch nodes. Each node has
 its name resolution done already, so re-running the node skips the lookup
 work of Eval. The node graph hangs on the form's Cell; revisiting the same
 Cell instance reuses it. Distinct occurrences of structurally identical code
 live in distinct cells and digest independently.
*/

// RebindPolicy decides what a digested call site of an overridable macro does
// when it is revisited. Non-overridable expansions are always Fixed.
type RebindPolicy int

const (
	RebindDefault        RebindPolicy = iota // follow Runtime.RebindPolicy
	RebindFixed                              // expansion baked in at digestion, redefinitions ignored
	RebindFirstWins                          // first expansion is kept permanently
	RebindAlwaysReexpand                     // re-expand and re-digest on every visit
)

// node is a digested dispatch rule. A non-nil tail continuation means the
// node ended in tail position; runNode keeps going without growing the stack.
type node func(en *Env) (value Scmer, tail node, tailEn *Env)

func runNode(n node, en *Env) Scmer {
	for {
		v, next, nextEn := n(en)
		if next == nil {
			return v
		}
		n, en = next, nextEn
	}
}

// Cell associates a form with its source position and its cached dispatch
// node. The parser wraps every list form into a fresh cell.
type Cell struct {
	Form   Scmer
	Source string
	Line   int
	Col    int
	Policy RebindPolicy // per call site override; RebindDefault follows the global switch
	n      node
}

func NewCell(form Scmer, source string, line, col int) *Cell {
	return &Cell{Form: form, Source: source, Line: line, Col: col}
}

func (c *Cell) Position() string {
	if c.Source == "" {
		return "(unknown)"
	}
	return fmt.Sprintf("%s:%d:%d", c.Source, c.Line, c.Col)
}

func (c *Cell) loadNode() node {
	return c.n
}

// install puts the digested node on the cell. Install happens last, after the
// whole subgraph digested cleanly, so a digestion that panics partway leaves
// no half resolved node behind. First install wins.
func (c *Cell) install(n node) {
	if c.n == nil {
		c.n = n
	}
}

// Invalidate throws the cached node away; the next visit redigests against
// the then-current binding topology.
func (c *Cell) Invalidate() {
	c.n = nil
}

func (c *Cell) policyOrDefault() RebindPolicy {
	if c.Policy == RebindDefault {
		return Runtime.RebindPolicy
	}
	return c.Policy
}

// Run executes the cell's cached node, digesting first if there is none yet.
func (c *Cell) Run(en *Env) Scmer {
	n := c.loadNode()
	if n == nil {
		d := &digester{env: en, defined: make(map[Symbol]bool)}
		n = d.digestCell(c)
	}
	return runNode(n, en)
}

// Digest digests and runs a form against en, reusing the cached node when the
// same cell comes around again.
func Digest(c *Cell, en *Env) Scmer {
	return c.Run(en)
}

/*
 The digester walks a form and emits nodes. It tracks the lambda scopes under
 digestion so parameter reads become numbered slot accesses, and it remembers
 which names the form assigns at runtime so those stay late-bound instead of
 being captured against a binding the runtime scopes would shadow.
*/

type dscope struct {
	outer    *dscope
	numbered bool
	slots    map[Symbol]int  // set when numbered
	named    map[Symbol]bool // parameter names of a non-numbered lambda
}

type digester struct {
	env     *Env // digestion target environment; bindings found here are captured
	scope   *dscope
	defined map[Symbol]bool // names the digested form assigns itself
	policy  RebindPolicy
}

func (d *digester) digestCell(c *Cell) node {
	if n := c.loadNode(); n != nil {
		return n
	}
	countDigest()
	save := d.policy
	d.policy = c.policyOrDefault()
	n := d.digestForm(c.Form)
	d.policy = save
	c.install(n)
	return c.loadNode()
}

func (d *digester) digestForm(form Scmer) node {
	switch v := form.(type) {
	case *Cell:
		return d.digestCell(v)
	case Symbol:
		return d.digestSymbol(v)
	case NthLocalVar:
		return func(en *Env) (Scmer, node, *Env) {
			return en.Numbered[v], nil, nil
		}
	case []Scmer:
		return d.digestList(v, form)
	default:
		return constantNode(form)
	}
}

func constantNode(v Scmer) node {
	return func(en *Env) (Scmer, node, *Env) {
		return v, nil, nil
	}
}

func (d *digester) digestSymbol(s Symbol) node {
	up := 0
	for sc := d.scope; sc != nil; sc = sc.outer {
		if sc.numbered {
			if slot, ok := sc.slots[s]; ok {
				return slotReadNode(up, slot)
			}
			up++
		} else if sc.named[s] {
			return dynamicReadNode(s)
		}
	}
	if d.defined[s] {
		// the form assigns this name at runtime; resolving now would bind
		// past the frame the assignment targets
		return dynamicReadNode(s)
	}
	b, kind, _, typ := Resolve(d.env, s)
	if b == nil {
		// may come into existence before the node runs
		return dynamicReadNode(s)
	}
	switch kind {
	case BindMacro:
		// symbol macro: the replacement is lexical, digest it in place
		return d.digestForm(expandSymbolMacro(b, s, d.env))
	case BindForeign:
		return func(en *Env) (Scmer, node, *Env) {
			v := apply(b.Value)
			assertType(s, v, typ)
			return v, nil, nil
		}
	default:
		if typ == "" {
			return func(en *Env) (Scmer, node, *Env) {
				return b.Value, nil, nil
			}
		}
		return func(en *Env) (Scmer, node, *Env) {
			assertType(s, b.Value, typ)
			return b.Value, nil, nil
		}
	}
}

// slotReadNode reads a numbered parameter. up counts how many numbered frames
// lie between the use and the lambda that owns the slot; scope frames share
// their creator's array, so distinct arrays mark lambda boundaries.
func slotReadNode(up, slot int) node {
	if up == 0 {
		return func(en *Env) (Scmer, node, *Env) {
			return en.Numbered[slot], nil, nil
		}
	}
	return func(en *Env) (Scmer, node, *Env) {
		e := en
		for e != nil && e.Numbered == nil {
			e = e.Outer
		}
		remaining := up
		for remaining > 0 {
			if e == nil {
				panic("numbered variable escaped its scope")
			}
			cur := &e.Numbered[0]
			for e != nil && (e.Numbered == nil || &e.Numbered[0] == cur) {
				e = e.Outer
			}
			remaining--
		}
		if e == nil {
			panic("numbered variable escaped its scope")
		}
		return e.Numbered[slot], nil, nil
	}
}

func slotWriteNode(up, slot int, val node) node {
	if up == 0 {
		return func(en *Env) (Scmer, node, *Env) {
			v := runNode(val, en)
			en.Numbered[slot] = v
			return v, nil, nil
		}
	}
	return func(en *Env) (Scmer, node, *Env) {
		v := runNode(val, en)
		e := en
		for e != nil && e.Numbered == nil {
			e = e.Outer
		}
		remaining := up
		for remaining > 0 {
			if e == nil {
				panic("numbered variable escaped its scope")
			}
			cur := &e.Numbered[0]
			for e != nil && (e.Numbered == nil || &e.Numbered[0] == cur) {
				e = e.Outer
			}
			remaining--
		}
		if e == nil {
			panic("numbered variable escaped its scope")
		}
		e.Numbered[slot] = v
		return v, nil, nil
	}
}

// dynamicReadNode resolves by name on every visit; used for names the
// digester cannot pin to a stable binding.
func dynamicReadNode(s Symbol) node {
	return func(en *Env) (Scmer, node, *Env) {
		b, kind, _, typ := Resolve(en, s)
		if b == nil {
			panic(UnboundError{s})
		}
		if kind == BindMacro {
			return Eval(expandSymbolMacro(b, s, en), en), nil, nil
		}
		v := readBindingRaw(b)
		assertType(s, v, typ)
		return v, nil, nil
	}
}

func (d *digester) digestList(list []Scmer, form Scmer) node {
	if len(list) == 0 {
		return constantNode(form)
	}
	switch head := unwrap(list[0]).(type) {
	case Symbol:
		if op, ok := specialOps[head]; ok {
			if op.Digest == nil {
				return immediateFormNode(op, list)
			}
			if n, ok2 := op.Digest(d, list); ok2 {
				return n
			}
			// handler declined: the operator is macro-backed
			if def := lookupMacro(d.env, head); def != nil {
				return d.digestMacroCall(def, list)
			}
			panic(ProtocolError{Op: head, Msg: "digestion declined but no macro with this name exists"})
		}
		if def := lookupMacro(d.env, head); def != nil {
			return d.digestMacroCall(def, list)
		}
		return d.digestCall(d.digestSymbol(head), list)
	case []Scmer:
		// computed head: digest the operator expression like any operand
		return d.digestCall(d.digestOperand(list[0]), list)
	default:
		panic(InvalidOperatorError{Form: form})
	}
}

// immediateFormNode wraps operators without a digestion handler; the node
// still skips the operator table lookup on revisits.
func immediateFormNode(op *SpecialForm, list []Scmer) node {
	return func(en *Env) (Scmer, node, *Env) {
		v, tail, tailEn := op.Immediate(en, list)
		if tailEn != nil {
			return Eval(tail, tailEn), nil, nil
		}
		return v, nil, nil
	}
}

// digestCall compiles a function application. The head is resolved once;
// operands digest lazily at their own cells so each keeps its own cache.
func (d *digester) digestCall(headNode node, list []Scmer) node {
	args := make([]node, len(list)-1)
	for i, operand := range list[1:] {
		args[i] = d.digestOperand(operand)
	}
	headForm := list[0]
	return func(en *Env) (Scmer, node, *Env) {
		procedure := runNode(headNode, en)
		argv := make([]Scmer, len(args))
		for i, a := range args {
			argv[i] = runNode(a, en)
		}
		if h := Runtime.ApplyHook; h != nil {
			return h(procedure, argv), nil, nil
		}
		switch p := procedure.(type) {
		case Proc:
			env, body := prepareProcCallWithArgs(&p, argv)
			if db, ok := body.(digestedBody); ok {
				return nil, db.n, env
			}
			return Eval(body, env), nil, nil
		case *Proc:
			env, body := prepareProcCallWithArgs(p, argv)
			if db, ok := body.(digestedBody); ok {
				return nil, db.n, env
			}
			return Eval(body, env), nil, nil
		default:
			return applyNonProc(procedure, argv, en, headForm), nil, nil
		}
	}
}

func (d *digester) digestOperand(operand Scmer) node {
	if c, ok := operand.(*Cell); ok {
		if n := c.loadNode(); n != nil {
			return n
		}
		snapshot := &digester{env: d.env, scope: d.scope, defined: d.defined, policy: d.policy}
		return func(en *Env) (Scmer, node, *Env) {
			n := c.loadNode()
			if n == nil {
				n = snapshot.digestCell(c)
			}
			return n(en)
		}
	}
	return d.digestForm(operand)
}

// digestMacroCall expands through the gateway once and decides the rebind
// policy from what the expansion exercised.
func (d *digester) digestMacroCall(def *MacroDef, list []Scmer) node {
	expansion, overridable := expandMacro(def, list, d.env)
	if !overridable {
		// Fixed: the expansion permanently replaces this node
		return d.digestForm(expansion)
	}
	policy := d.policy
	if policy == RebindDefault {
		policy = Runtime.RebindPolicy
	}
	if policy != RebindAlwaysReexpand {
		return d.digestForm(expansion)
	}
	name := def.Name
	snapshot := &digester{env: d.env, scope: d.scope, defined: d.defined, policy: d.policy}
	return func(en *Env) (Scmer, node, *Env) {
		cur := lookupMacro(en, name)
		if cur == nil {
			cur = def
		}
		exp, _ := expandMacro(cur, list, en)
		n := snapshot.digestForm(exp)
		return n(en)
	}
}

/*
 Digestion handlers of the builtin special operators.
*/

func digQuote(d *digester, list []Scmer) (node, bool) {
	return constantNode(stripCells(list[1])), true
}

func digIf(d *digester, list []Scmer) (node, bool) {
	var conds, branches []node
	i := 1
	for i+1 < len(list) {
		conds = append(conds, d.digestOperand(list[i]))
		branches = append(branches, d.digestOperand(list[i+1]))
		i += 2
	}
	var elseBranch node
	if i < len(list) {
		elseBranch = d.digestOperand(list[i])
	}
	return func(en *Env) (Scmer, node, *Env) {
		for j, cond := range conds {
			if ToBool(runNode(cond, en)) {
				return nil, branches[j], en
			}
		}
		if elseBranch != nil {
			return nil, elseBranch, en
		}
		return nil, nil, nil
	}, true
}

func digAnd(d *digester, list []Scmer) (node, bool) {
	conds := d.digestOperands(list[1:])
	return func(en *Env) (Scmer, node, *Env) {
		for _, cond := range conds {
			if !ToBool(runNode(cond, en)) {
				return false, nil, nil
			}
		}
		return true, nil, nil
	}, true
}

func digOr(d *digester, list []Scmer) (node, bool) {
	conds := d.digestOperands(list[1:])
	return func(en *Env) (Scmer, node, *Env) {
		for _, cond := range conds {
			if ToBool(runNode(cond, en)) {
				return true, nil, nil
			}
		}
		return false, nil, nil
	}, true
}

func (d *digester) digestOperands(operands []Scmer) []node {
	nodes := make([]node, len(operands))
	for i, x := range operands {
		nodes[i] = d.digestOperand(x)
	}
	return nodes
}

func digBegin(d *digester, list []Scmer) (node, bool) {
	if len(list) == 1 {
		return constantNode(nil), true
	}
	d.noteAssignments(list[1:])
	body := d.digestOperands(list[1:])
	return func(en *Env) (Scmer, node, *Env) {
		en2 := &Env{Vars: make(Vars), Numbered: en.Numbered, Outer: en, Nodefine: false}
		for _, n := range body[:len(body)-1] {
			runNode(n, en2)
		}
		return nil, body[len(body)-1], en2
	}, true
}

func digBeginSameScope(d *digester, list []Scmer) (node, bool) {
	if len(list) == 1 {
		return constantNode(nil), true
	}
	d.noteAssignments(list[1:])
	body := d.digestOperands(list[1:])
	return func(en *Env) (Scmer, node, *Env) {
		for _, n := range body[:len(body)-1] {
			runNode(n, en)
		}
		return nil, body[len(body)-1], en
	}, true
}

// noteAssignments pre-scans sequence bodies for assignment targets so reads
// of those names digest late-bound even when the read precedes the write in
// digestion order.
func (d *digester) noteAssignments(forms []Scmer) {
	for _, f := range forms {
		l, ok := unwrap(f).([]Scmer)
		if !ok || len(l) < 2 {
			continue
		}
		if headIs(l, "define") || headIs(l, "set") {
			if s, ok := symbolOf(l[1]); ok {
				d.defined[s] = true
			}
		}
	}
}

func digAssign(d *digester, list []Scmer) (node, bool) {
	val := d.digestOperand(list[2])
	if s, ok := symbolOf(list[1]); ok {
		up := 0
		for sc := d.scope; sc != nil; sc = sc.outer {
			if sc.numbered {
				if slot, ok2 := sc.slots[s]; ok2 {
					return slotWriteNode(up, slot, val), true
				}
				up++
			}
		}
		d.defined[s] = true
	}
	target := list[1]
	// generic path keeps the full assignment protocol, including symbol
	// macro target expansion at runtime
	return func(en *Env) (Scmer, node, *Env) {
		v := runNode(val, en)
		assignTo(en, target, v)
		return v, nil, nil
	}, true
}

func digLambda(d *digester, list []Scmer) (node, bool) {
	params := stripCells(list[1])
	body := list[2]
	var scope *dscope
	numVars := 0
	switch p := params.(type) {
	case Symbol:
		// variadic: the whole argument list lands in slot 0
		scope = &dscope{outer: d.scope, numbered: true, slots: map[Symbol]int{p: 0}}
		numVars = 1
	case []Scmer:
		slots := make(map[Symbol]int, len(p))
		plain := true
		for i, param := range p {
			s, ok := param.(Symbol)
			if !ok {
				plain = false
				break
			}
			if s != "_" {
				slots[s] = i
			}
		}
		if plain && len(p) > 0 {
			scope = &dscope{outer: d.scope, numbered: true, slots: slots}
			numVars = len(p)
		} else if len(p) == 0 {
			scope = &dscope{outer: d.scope, named: map[Symbol]bool{}}
		} else {
			// typed parameters keep their names so the declared type
			// assertion of readBinding applies
			named := make(map[Symbol]bool, len(p))
			for _, param := range p {
				s, _ := paramSymbol(param)
				named[s] = true
			}
			scope = &dscope{outer: d.scope, named: named}
		}
	case nil:
		scope = &dscope{outer: d.scope, named: map[Symbol]bool{}}
	default:
		panic("lambda parameters must be list, symbol, or nil")
	}
	inner := &digester{env: d.env, scope: scope, defined: d.defined, policy: d.policy}
	bodyNode := inner.digestOperand(body)
	return func(en *Env) (Scmer, node, *Env) {
		return &Proc{Params: params, Body: body, En: en, NumVars: numVars, bodyNode: bodyNode}, nil, nil
	}, true
}
